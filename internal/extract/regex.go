package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tinytelemetry/pulse/internal/model"
)

// extractRegex applies the compiled pattern to the raw body text. Only the
// first match is considered. Three modes, decided by the pattern's groups:
//
//   - no capturing groups (or none participating): the entire matched text
//     is the value;
//   - only unnamed groups: their captures are concatenated in group order
//     and parsed as one number;
//   - at least one named group: the group named "value" is the value and
//     every other named group becomes a label.
func (r *Rule) extractRegex(body []byte, timestampMS int64) ([]model.Observation, error) {
	text := string(body)
	idx := r.re.FindStringSubmatchIndex(text)
	if idx == nil {
		return nil, errors.New("pattern matched nothing")
	}

	names := r.re.SubexpNames()
	hasNamed := false
	for _, n := range names {
		if n != "" {
			hasNamed = true
			break
		}
	}

	if hasNamed {
		return r.regexNamed(text, idx, names, timestampMS)
	}
	return r.regexPositional(text, idx, timestampMS)
}

func (r *Rule) regexNamed(text string, idx []int, names []string, timestampMS int64) ([]model.Observation, error) {
	valueIdx := r.re.SubexpIndex("value")
	if valueIdx < 0 || idx[2*valueIdx] < 0 {
		return nil, errors.New(`no capture for group "value"`)
	}

	num, err := parseNumber(text[idx[2*valueIdx]:idx[2*valueIdx+1]])
	if err != nil {
		return nil, err
	}

	var labels map[string]string
	for i := 1; i < len(names); i++ {
		name := names[i]
		if name == "" || name == "value" || idx[2*i] < 0 {
			continue
		}
		if labels == nil {
			labels = make(map[string]string)
		}
		labels[name] = text[idx[2*i]:idx[2*i+1]]
	}

	return []model.Observation{{
		Name:        r.name,
		Labels:      labels,
		Value:       num,
		TimestampMS: timestampMS,
	}}, nil
}

func (r *Rule) regexPositional(text string, idx []int, timestampMS int64) ([]model.Observation, error) {
	var b strings.Builder
	participated := false
	for i := 1; i <= r.re.NumSubexp(); i++ {
		if idx[2*i] < 0 {
			continue
		}
		participated = true
		b.WriteString(text[idx[2*i]:idx[2*i+1]])
	}

	raw := b.String()
	if !participated {
		// No groups at all, or every group sat out of the match: fall
		// back to the entire matched text.
		raw = text[idx[0]:idx[1]]
	}

	num, err := parseNumber(raw)
	if err != nil {
		return nil, err
	}
	return []model.Observation{{
		Name:        r.name,
		Value:       num,
		TimestampMS: timestampMS,
	}}, nil
}

func parseNumber(raw string) (float64, error) {
	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("matched text %q is not a number", raw)
	}
	return num, nil
}
