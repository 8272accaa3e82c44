package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCandidatesOrderAndDedup(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver("default-pw")

	require.NoError(t, r.cache.Save(dir, map[string]string{"a.pdf": "csv-pw"}))
	r.memory["a.pdf"] = "mem-pw"

	candidates, err := r.Candidates(dir, "a.pdf", strPtr("provided-pw"))
	require.NoError(t, err)

	var values []string
	for _, c := range candidates {
		if c == nil {
			values = append(values, "<nil>")
		} else {
			values = append(values, *c)
		}
	}
	assert.Equal(t, []string{"provided-pw", "csv-pw", "mem-pw", "default-pw", "<nil>"}, values)
}

func TestCandidatesDedupDuplicateAcrossSources(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver("shared-pw")
	r.memory["a.pdf"] = "shared-pw"

	candidates, err := r.Candidates(dir, "a.pdf", strPtr("shared-pw"))
	require.NoError(t, err)

	var nonNil int
	for _, c := range candidates {
		if c != nil {
			nonNil++
		}
	}
	assert.Equal(t, 1, nonNil)
	assert.Nil(t, candidates[len(candidates)-1])
}

func TestSaveSuccessfulRoundTripsThroughCSV(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver("")

	require.NoError(t, r.SaveSuccessful(dir, "b.pdf", strPtr("won-pw")))

	entries, err := r.cache.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "won-pw", entries["b.pdf"])

	// A fresh resolver with no in-memory state still finds it via the CSV.
	r2 := NewResolver("")
	candidates, err := r2.Candidates(dir, "b.pdf", nil)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	require.NotNil(t, candidates[0])
	assert.Equal(t, "won-pw", *candidates[0])
}

func TestSaveSuccessfulIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver("")

	require.NoError(t, r.SaveSuccessful(dir, "c.pdf", strPtr("pw1")))
	require.NoError(t, r.SaveSuccessful(dir, "c.pdf", strPtr("pw1")))

	entries, err := r.cache.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "pw1", entries["c.pdf"])
}
