// Package config loads and validates the targets file.
//
// The file is plain YAML parsed with yaml.v3 so header names and other
// user-supplied keys keep their case. Every schedule expression and
// extraction expression is compiled here; a file that loads without error
// yields targets the runner can execute without further validation.
package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/tinytelemetry/pulse/internal/extract"
	"github.com/tinytelemetry/pulse/internal/model"
	"github.com/tinytelemetry/pulse/internal/schedule"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of the targets file.
type File struct {
	Targets []TargetSpec `yaml:"targets"`
}

// TargetSpec is one target as written in YAML.
type TargetSpec struct {
	Name      string            `yaml:"name"`
	URL       string            `yaml:"url"`
	Headers   map[string]string `yaml:"headers"`
	Cron      string            `yaml:"cron"`
	Extractor string            `yaml:"extractor"`
	Rules     []RuleSpec        `yaml:"rules"`
}

// RuleSpec is one extraction rule as written in YAML.
type RuleSpec struct {
	Name    string `yaml:"name"`
	Extract string `yaml:"extract"`
}

// Target is a validated, compiled target descriptor. It is immutable
// after load and may be shared across goroutines without synchronization.
type Target struct {
	Name    string
	URL     string
	Headers map[string]string
	Trigger schedule.Trigger
	Rules   []*extract.Rule
}

// Load reads and compiles the targets file at path.
func Load(path string) ([]*Target, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading targets file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing targets file: %w", err)
	}
	return Build(file.Targets)
}

// Build validates and compiles raw target specs. Any malformed schedule,
// unknown extractor kind or uncompilable expression fails the whole load.
func Build(specs []TargetSpec) ([]*Target, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no targets configured")
	}

	targets := make([]*Target, 0, len(specs))
	for i, spec := range specs {
		target, err := buildTarget(spec)
		if err != nil {
			name := spec.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			return nil, fmt.Errorf("target %s: %w", name, err)
		}
		targets = append(targets, target)
	}
	return targets, nil
}

func buildTarget(spec TargetSpec) (*Target, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	if spec.URL == "" {
		return nil, fmt.Errorf("missing url")
	}
	parsed, err := url.Parse(spec.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", spec.URL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid url %q: scheme must be http or https", spec.URL)
	}

	trigger, err := schedule.Parse(spec.Cron)
	if err != nil {
		return nil, err
	}

	kind, err := extractorKind(spec.Extractor)
	if err != nil {
		return nil, err
	}

	if len(spec.Rules) == 0 {
		return nil, fmt.Errorf("no rules configured")
	}
	rules := make([]*extract.Rule, 0, len(spec.Rules))
	for _, rs := range spec.Rules {
		if rs.Name == "" {
			return nil, fmt.Errorf("rule with empty name")
		}
		if rs.Extract == "" {
			return nil, fmt.Errorf("rule %s: missing extract expression", rs.Name)
		}
		rule, err := extract.Compile(rs.Name, rs.Extract, kind)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rs.Name, err)
		}
		rules = append(rules, rule)
	}

	return &Target{
		Name:    spec.Name,
		URL:     spec.URL,
		Headers: spec.Headers,
		Trigger: trigger,
		Rules:   rules,
	}, nil
}

// extractorKind resolves the configured kind, defaulting to jq.
func extractorKind(raw string) (model.ExtractorKind, error) {
	switch model.ExtractorKind(raw) {
	case "":
		return model.ExtractorJQ, nil
	case model.ExtractorJQ:
		return model.ExtractorJQ, nil
	case model.ExtractorRegex:
		return model.ExtractorRegex, nil
	default:
		return "", fmt.Errorf("unknown extractor kind %q", raw)
	}
}
