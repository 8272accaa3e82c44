package password

import (
	"sync"
)

// Resolver produces ordered password candidates for a PDF file and
// remembers the winning password across both an in-memory cache and the
// CSV cache at <pdf_directory>/file_passwords.csv (spec §4.5).
type Resolver struct {
	cache       CSVCache
	defaultPass string

	mu     sync.Mutex
	memory map[string]string // basename -> password
}

// NewResolver builds a Resolver with the configured default password used
// as the last non-null candidate.
func NewResolver(defaultPassword string) *Resolver {
	return &Resolver{
		defaultPass: defaultPassword,
		memory:      make(map[string]string),
	}
}

// Candidates returns, in order, up to 5 candidates for basename in dir:
// caller-supplied, CSV-cached, in-memory-cached, configured default, and a
// nil sentinel meaning "try without a password". Duplicates are suppressed
// by first occurrence (spec §4.5, §8 "Password order").
func (r *Resolver) Candidates(dir, basename string, provided *string) ([]*string, error) {
	var ordered []*string
	seen := make(map[string]bool)

	add := func(p *string) {
		if p == nil {
			for _, c := range ordered {
				if c == nil {
					return
				}
			}
			ordered = append(ordered, nil)
			return
		}
		if *p == "" || seen[*p] {
			return
		}
		seen[*p] = true
		v := *p
		ordered = append(ordered, &v)
	}

	if provided != nil {
		add(provided)
	}

	csvEntries, err := r.cache.Load(dir)
	if err != nil {
		return nil, err
	}
	if v, ok := csvEntries[basename]; ok {
		add(&v)
	}

	r.mu.Lock()
	memVal, memOK := r.memory[basename]
	r.mu.Unlock()
	if memOK {
		add(&memVal)
	}

	if r.defaultPass != "" {
		add(&r.defaultPass)
	}

	add(nil)

	return ordered, nil
}

// SaveSuccessful persists the winning password into both caches. successful
// == nil (or empty) records that the document required no password and is a no-op:
// there is nothing meaningful to cache for an unencrypted document.
func (r *Resolver) SaveSuccessful(dir, basename string, successful *string) error {
	if successful == nil || *successful == "" {
		return nil
	}

	r.mu.Lock()
	r.memory[basename] = *successful
	r.mu.Unlock()

	entries, err := r.cache.Load(dir)
	if err != nil {
		return err
	}
	entries[basename] = *successful
	return r.cache.Save(dir, entries)
}
