package expose

import (
	"strings"
	"testing"

	"github.com/tinytelemetry/pulse/internal/model"
)

func TestRender_SingleUnlabeledSample(t *testing.T) {
	t.Parallel()
	out := Render([]model.Sample{
		{Name: "crates_io_crates", Value: 48213, TimestampMS: 1750334436432},
	})

	want := "# TYPE crates_io_crates gauge\ncrates_io_crates 48213 1750334436432\n"
	if out != want {
		t.Errorf("Render = %q, want %q", out, want)
	}
}

func TestRender_LabeledFamily(t *testing.T) {
	t.Parallel()
	out := Render([]model.Sample{
		{Name: "yaks", Labels: map[string]string{"key": "total"}, Value: 5, TimestampMS: 1750338779649},
		{Name: "yaks", Labels: map[string]string{"key": "shaved"}, Value: 3, TimestampMS: 1750338779649},
	})

	want := "# TYPE yaks gauge\n" +
		"yaks{key=\"shaved\"} 3 1750338779649\n" +
		"yaks{key=\"total\"} 5 1750338779649\n"
	if out != want {
		t.Errorf("Render = %q, want %q", out, want)
	}
}

func TestRender_OneTypeLinePerName(t *testing.T) {
	t.Parallel()
	out := Render([]model.Sample{
		{Name: "b_metric", Value: 2, TimestampMS: 1},
		{Name: "a_metric", Labels: map[string]string{"k": "x"}, Value: 1, TimestampMS: 1},
		{Name: "a_metric", Labels: map[string]string{"k": "y"}, Value: 3, TimestampMS: 1},
	})

	if n := strings.Count(out, "# TYPE a_metric gauge"); n != 1 {
		t.Errorf("a_metric type lines = %d, want 1", n)
	}
	if n := strings.Count(out, "# TYPE b_metric gauge"); n != 1 {
		t.Errorf("b_metric type lines = %d, want 1", n)
	}
	if !strings.HasPrefix(out, "# TYPE a_metric gauge\n") {
		t.Errorf("families not sorted by name:\n%s", out)
	}
}

func TestRender_MultipleLabels(t *testing.T) {
	t.Parallel()
	out := Render([]model.Sample{
		{Name: "m", Labels: map[string]string{"zone": "eu", "app": "web"}, Value: 1.5, TimestampMS: 99},
	})

	want := "# TYPE m gauge\nm{app=\"web\",zone=\"eu\"} 1.5 99\n"
	if out != want {
		t.Errorf("Render = %q, want %q (label keys sorted)", out, want)
	}
}

func TestRender_EscapesLabelValues(t *testing.T) {
	t.Parallel()
	out := Render([]model.Sample{
		{Name: "m", Labels: map[string]string{"path": `C:\temp`, "msg": "say \"hi\"\nbye"}, Value: 1, TimestampMS: 0},
	})

	if !strings.Contains(out, `path="C:\\temp"`) {
		t.Errorf("backslash not escaped:\n%s", out)
	}
	if !strings.Contains(out, `msg="say \"hi\"\nbye"`) {
		t.Errorf("quote/newline not escaped:\n%s", out)
	}
}

func TestRender_LargeValuesUseScientificNotation(t *testing.T) {
	t.Parallel()
	out := Render([]model.Sample{
		{Name: "downloads", Value: 36426658, TimestampMS: 1750334436432},
	})

	want := "# TYPE downloads gauge\ndownloads 3.6426658e+07 1750334436432\n"
	if out != want {
		t.Errorf("Render = %q, want %q", out, want)
	}
}

func TestRender_Empty(t *testing.T) {
	t.Parallel()
	if out := Render(nil); out != "" {
		t.Errorf("Render(nil) = %q, want empty", out)
	}
}

func TestRender_Deterministic(t *testing.T) {
	t.Parallel()
	samples := []model.Sample{
		{Name: "a", Labels: map[string]string{"x": "1", "y": "2"}, Value: 1, TimestampMS: 5},
		{Name: "b", Value: 2, TimestampMS: 5},
		{Name: "a", Labels: map[string]string{"x": "2"}, Value: 3, TimestampMS: 5},
	}
	first := Render(samples)
	for i := 0; i < 10; i++ {
		if got := Render(samples); got != first {
			t.Fatalf("render not deterministic:\n%s\nvs\n%s", first, got)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"already_valid_1", "already_valid_1"},
		{"dashes-and.dots", "dashes_and_dots"},
		{"spaces here", "spaces_here"},
		{"2xx_rate", "_2xx_rate"},
		{"über", "_ber"},
		{"", "_"},
		{"a{b}\"c\"", "a_b__c_"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   float64
		want string
	}{
		{48213, "48213"},
		{123456, "123456"},
		{21.5, "21.5"},
		{0, "0"},
		{-3.25, "-3.25"},
		// Shortest-form 'g' switches to scientific notation at decimal
		// exponent 6, the same rendering Prometheus itself emits.
		{1000000, "1e+06"},
		{36426658, "3.6426658e+07"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
