package model

import "sort"

// ExtractorKind selects the engine used to turn a fetched response body
// into observations.
type ExtractorKind string

const (
	// ExtractorJQ runs a jq query against the body parsed as JSON.
	ExtractorJQ ExtractorKind = "jq"
	// ExtractorRegex applies a regular expression to the raw body text.
	ExtractorRegex ExtractorKind = "regex"
)

// Observation is a single extracted sample: one metric name, one label set,
// one value, stamped at extraction time.
type Observation struct {
	Name        string
	Labels      map[string]string
	Value       float64
	TimestampMS int64 // milliseconds since epoch, captured at extraction
}

// Sample is one store entry as seen by a snapshot reader. It carries the
// same fields as an Observation; the distinction is ownership: Observations
// are produced by extraction, Samples are read back out of the store.
type Sample struct {
	Name        string
	Labels      map[string]string
	Value       float64
	TimestampMS int64
}

// IdentityKey renders a (name, label set) pair into a canonical string so
// that label maps compare as unordered key-value collections. Labels are
// joined in sorted key order with separators that cannot appear in a
// sanitized metric name.
func IdentityKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := name
	for _, k := range keys {
		key += "\x1f" + k + "\x1e" + labels[k]
	}
	return key
}
