// Package extract turns fetched response bodies into observations.
//
// A Rule is compiled once at configuration load and is then a pure
// function of the body: no I/O, no shared state. Two extractor kinds
// exist, jq (structured queries over a JSON document) and regex
// (patterns over the raw body text).
package extract

import (
	"fmt"
	"regexp"

	"github.com/itchyny/gojq"
	"github.com/tinytelemetry/pulse/internal/model"
)

// Rule is one compiled extraction directive. Its name becomes the metric
// name of every observation it produces.
type Rule struct {
	name  string
	kind  model.ExtractorKind
	query *gojq.Code
	re    *regexp.Regexp
}

// Compile validates and compiles one extraction expression for the given
// extractor kind. Compilation errors are fatal at startup; a compiled Rule
// never fails structurally afterwards, only per-body.
func Compile(name, expr string, kind model.ExtractorKind) (*Rule, error) {
	switch kind {
	case model.ExtractorJQ:
		parsed, err := gojq.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("parsing jq query %q: %w", expr, err)
		}
		code, err := gojq.Compile(parsed)
		if err != nil {
			return nil, fmt.Errorf("compiling jq query %q: %w", expr, err)
		}
		return &Rule{name: name, kind: kind, query: code}, nil

	case model.ExtractorRegex:
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compiling regex %q: %w", expr, err)
		}
		return &Rule{name: name, kind: kind, re: re}, nil

	default:
		return nil, fmt.Errorf("unknown extractor kind %q", kind)
	}
}

// Name returns the rule's metric name.
func (r *Rule) Name() string {
	return r.name
}

// Kind returns the extractor kind this rule was compiled for.
func (r *Rule) Kind() model.ExtractorKind {
	return r.kind
}

// Extract runs the rule against one response body. All observations of one
// call share the given extraction timestamp. A returned error aborts only
// this rule; an empty result with a nil error means the body held nothing
// emittable, which is not a failure.
func (r *Rule) Extract(body []byte, timestampMS int64) ([]model.Observation, error) {
	switch r.kind {
	case model.ExtractorJQ:
		return r.extractJQ(body, timestampMS)
	case model.ExtractorRegex:
		return r.extractRegex(body, timestampMS)
	default:
		return nil, fmt.Errorf("unknown extractor kind %q", r.kind)
	}
}
