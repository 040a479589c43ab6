// Package expose renders store snapshots into the Prometheus text
// exposition format, version 0.0.4.
//
// Every metric is declared as a gauge. Output is deterministic: families
// are sorted by metric name and samples within a family by their rendered
// line, so consecutive renders of the same snapshot are byte-identical.
package expose

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tinytelemetry/pulse/internal/model"
)

// ContentType is the HTTP Content-Type of the rendered text.
const ContentType = "text/plain; version=0.0.4"

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// Render formats a snapshot. For each distinct metric name one type
// declaration line is emitted, followed by one sample line per identity:
//
//	# TYPE yaks gauge
//	yaks{key="shaved"} 3 1750338779649
func Render(samples []model.Sample) string {
	families := make(map[string][]string)
	for _, sample := range samples {
		name := SanitizeName(sample.Name)
		families[name] = append(families[name], sampleLine(name, sample))
	}

	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		lines := families[name]
		sort.Strings(lines)

		b.WriteString("# TYPE ")
		b.WriteString(name)
		b.WriteString(" gauge\n")
		for _, line := range lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sampleLine(name string, sample model.Sample) string {
	var b strings.Builder
	b.WriteString(name)

	if len(sample.Labels) > 0 {
		keys := make([]string, 0, len(sample.Labels))
		for k := range sample.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(SanitizeName(k))
			b.WriteString(`="`)
			b.WriteString(labelEscaper.Replace(sample.Labels[k]))
			b.WriteByte('"')
		}
		b.WriteByte('}')
	}

	fmt.Fprintf(&b, " %s %d", formatValue(sample.Value), sample.TimestampMS)
	return b.String()
}

// formatValue renders a float the way Prometheus does: shortest form,
// integers without a decimal point.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// SanitizeName maps an arbitrary string onto a valid exposition
// identifier: letters, digits and underscores, not starting with a digit.
// Every disallowed character becomes an underscore; a leading digit is
// kept but prefixed with one.
func SanitizeName(name string) string {
	if name == "" {
		return "_"
	}

	var b strings.Builder
	b.Grow(len(name) + 1)
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
