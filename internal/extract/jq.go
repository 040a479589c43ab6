package extract

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/tinytelemetry/pulse/internal/model"
)

// extractJQ parses the body as JSON, evaluates the compiled query and
// dispatches on the shape of the first result value. Shapes with no
// defined mapping (strings, booleans, null) yield zero observations.
func (r *Rule) extractJQ(body []byte, timestampMS int64) ([]model.Observation, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing body as JSON: %w", err)
	}

	iter := r.query.Run(doc)
	result, ok := iter.Next()
	if !ok {
		// Query produced no output at all (e.g. `empty`).
		return nil, nil
	}
	if err, failed := result.(error); failed {
		return nil, fmt.Errorf("jq: %w", err)
	}

	return r.observationsFromValue(result, timestampMS), nil
}

func (r *Rule) observationsFromValue(value interface{}, timestampMS int64) []model.Observation {
	if num, ok := asNumber(value); ok {
		return []model.Observation{{
			Name:        r.name,
			Value:       num,
			TimestampMS: timestampMS,
		}}
	}

	switch v := value.(type) {
	case map[string]interface{}:
		return r.observationsFromObject(v, timestampMS)
	case []interface{}:
		return r.observationsFromArray(v, timestampMS)
	}
	return nil
}

// observationsFromObject fans one object out into a metric family: every
// numeric entry becomes a sample labeled key=<entry key>. Non-numeric
// entries are skipped. Keys are visited in sorted order so the output is
// deterministic.
func (r *Rule) observationsFromObject(obj map[string]interface{}, timestampMS int64) []model.Observation {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]model.Observation, 0, len(obj))
	for _, k := range keys {
		num, ok := asNumber(obj[k])
		if !ok {
			continue
		}
		out = append(out, model.Observation{
			Name:        r.name,
			Labels:      map[string]string{"key": k},
			Value:       num,
			TimestampMS: timestampMS,
		})
	}
	return out
}

// observationsFromArray fans an array out over its object elements. An
// element qualifies when it carries a numeric field named "value"; every
// other scalar field of the element becomes a label. Nested objects and
// arrays are not recursed into, and non-qualifying elements are skipped.
func (r *Rule) observationsFromArray(arr []interface{}, timestampMS int64) []model.Observation {
	var out []model.Observation
	for _, elem := range arr {
		obj, ok := elem.(map[string]interface{})
		if !ok {
			continue
		}
		num, ok := asNumber(obj["value"])
		if !ok {
			continue
		}

		var labels map[string]string
		for field, fieldValue := range obj {
			if field == "value" {
				continue
			}
			text, scalar := scalarString(fieldValue)
			if !scalar {
				continue
			}
			if labels == nil {
				labels = make(map[string]string)
			}
			labels[field] = text
		}

		out = append(out, model.Observation{
			Name:        r.name,
			Labels:      labels,
			Value:       num,
			TimestampMS: timestampMS,
		})
	}
	return out
}

// asNumber reports whether a jq result value is numeric. gojq yields int,
// float64 or *big.Int depending on the query; document values decoded by
// encoding/json are always float64.
func asNumber(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case *big.Int:
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, true
	}
	return 0, false
}

// scalarString renders a scalar JSON value the way it would appear in the
// document: strings verbatim, booleans as true/false, numbers in their
// shortest form. Objects and arrays are not scalars.
func scalarString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case *big.Int:
		return v.String(), true
	}
	return "", false
}
