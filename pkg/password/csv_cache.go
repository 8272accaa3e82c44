// Package password implements the ordered candidate-password resolver
// (C5, spec §4.5) with its CSV-backed and in-memory caches (spec §3.4).
package password

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
)

const csvFileName = "file_passwords.csv"

var csvHeader = []string{"pdf_filename", "password"}

// CSVCache reads and rewrites <pdf_directory>/file_passwords.csv in full on
// every update, sorted by filename (spec §3.4). The loader skips the
// header only when the first row equals exactly ["pdf_filename",
// "password"]; a header-less file is therefore ambiguous and left as-is
// per spec §9 Open Questions.
type CSVCache struct{}

// Load reads the CSV at dir/file_passwords.csv into a filename->password
// map. A missing file yields an empty map, not an error.
func (CSVCache) Load(dir string) (map[string]string, error) {
	path := filepath.Join(dir, csvFileName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			continue
		}
		if i == 0 && rec[0] == csvHeader[0] && rec[1] == csvHeader[1] {
			continue
		}
		result[rec[0]] = rec[1]
	}
	return result, nil
}

// Save rewrites dir/file_passwords.csv in full with a header row, entries
// sorted by filename (spec §3.4, §4.5).
func (CSVCache) Save(dir string, entries map[string]string) error {
	path := filepath.Join(dir, csvFileName)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := w.Write([]string{name, entries[name]}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
