// Package store holds the latest observation per metric identity.
//
// The store is the only state shared between target cycles and the
// publication endpoint. Writers go through Upsert, readers through
// Snapshot; an entry is replaced whole so a reader can never see a torn
// (value, timestamp) pair.
package store

import (
	"sort"
	"sync"

	"github.com/tinytelemetry/pulse/internal/model"
)

// Store is a concurrent map from metric identity (name plus label set)
// to the latest extracted sample. Entries never expire; they persist until
// overwritten by a later successful extraction for the same identity.
type Store struct {
	mu     sync.RWMutex
	series map[string]model.Sample
}

// New returns an empty store.
func New() *Store {
	return &Store{series: make(map[string]model.Sample)}
}

// Upsert inserts or atomically replaces the entry for the observation's
// identity. Last writer wins.
func (s *Store) Upsert(obs model.Observation) {
	key := model.IdentityKey(obs.Name, obs.Labels)

	s.mu.Lock()
	s.series[key] = model.Sample{
		Name:        obs.Name,
		Labels:      cloneLabels(obs.Labels),
		Value:       obs.Value,
		TimestampMS: obs.TimestampMS,
	}
	s.mu.Unlock()
}

// Snapshot returns a consistent point-in-time copy of all entries, sorted
// by identity key so the order is stable across calls.
func (s *Store) Snapshot() []model.Sample {
	s.mu.RLock()
	keys := make([]string, 0, len(s.series))
	for k := range s.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]model.Sample, 0, len(keys))
	for _, k := range keys {
		sample := s.series[k]
		sample.Labels = cloneLabels(sample.Labels)
		out = append(out, sample)
	}
	s.mu.RUnlock()
	return out
}

// Len returns the number of stored series.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series)
}

func cloneLabels(labels map[string]string) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}
