package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestMakeDefaults(t *testing.T) {
	l := Make(&bytes.Buffer{})

	if l.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", l.Level(), DefaultLevel)
	}

	if l.Format() != DefaultFormat {
		t.Errorf("Format() = %v, want %v", l.Format(), DefaultFormat)
	}

	if l.caller != DefaultCaller || l.pretty != DefaultPretty {
		t.Errorf("unexpected defaults caller=%v pretty=%v", l.caller, l.pretty)
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level Level
		log   func(Logger)
		want  bool
	}{
		{LevelInfo, func(l Logger) { l.Debug("m") }, false},
		{LevelInfo, func(l Logger) { l.Info("m") }, true},
		{LevelDebug, func(l Logger) { l.Debug("m") }, true},
		{LevelDebug, func(l Logger) { l.Trace("m") }, false},
		{LevelTrace, func(l Logger) { l.Trace("m") }, true},
		{LevelError, func(l Logger) { l.Warn("m") }, false},
		{LevelError, func(l Logger) { l.Error("m") }, true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer

		tt.log(Make(&buf, WithLevel(tt.level)))

		if got := buf.Len() > 0; got != tt.want {
			t.Errorf("level %v: wrote=%v, want %v (%q)", tt.level, got, tt.want, buf.String())
		}
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatJSON), WithLevel(LevelTrace), WithTimeLayout("none"))
	l.With(slog.String("component", "vm")).Trace("cache hit", slog.Int("id", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v: %s", err, buf.String())
	}

	want := map[string]any{
		"level":     "TRACE",
		"msg":       "cache hit",
		"component": "vm",
		"id":        float64(3),
	}

	for k, v := range want {
		if rec[k] != v {
			t.Errorf("%s = %v, want %v", k, rec[k], v)
		}
	}

	if _, ok := rec["time"]; ok {
		t.Errorf("time present with layout none: %v", rec["time"])
	}
}

func TestTimeLayout(t *testing.T) {
	tests := []struct {
		layout string
		want   string
	}{
		{"RFC3339", "T"},
		{"rfc-3339-nano", "."},
		{"kitchen", "M"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer

		Make(&buf, WithTimeLayout(tt.layout), WithFormat(FormatJSON)).Info("x")

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatal(err)
		}

		ts, _ := rec["time"].(string)
		if !strings.Contains(ts, tt.want) {
			t.Errorf("layout %q: time %q does not contain %q", tt.layout, ts, tt.want)
		}
	}
}

func TestCaller(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true), WithFormat(FormatText)).Info("here")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("source does not point at the caller: %s", buf.String())
	}
}

func TestWrapKeepsConfig(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithFormat(FormatJSON), WithLevel(LevelWarn))
	wrapped := base.Wrap(WithLevel(LevelDebug))

	if wrapped.Format() != FormatJSON {
		t.Errorf("Wrap lost format: %v", wrapped.Format())
	}

	if wrapped.Level() != LevelDebug || base.Level() != LevelWarn {
		t.Errorf("levels base=%v wrapped=%v", base.Level(), wrapped.Level())
	}

	var zero Logger
	zero.Info("discarded")

	if got := zero.Wrap(WithOutput(&buf)); got.Logger == nil {
		t.Error("Wrap of zero Logger produced a nil slog.Logger")
	}
}

func TestPretty(t *testing.T) {
	for _, format := range []Format{FormatText, FormatJSON} {
		var buf bytes.Buffer

		l := Make(&buf, WithPretty(true), WithFormat(format), WithTimeLayout(""))
		l.WithGroup("g").With(slog.Bool("ok", true)).Warn("pretty", slog.Int("n", 7))

		out := buf.String()
		for _, want := range []string{"WARN", "pretty", "g.ok", "true", "g.n", "7"} {
			if !strings.Contains(out, want) {
				t.Errorf("%v output missing %q: %q", format, want, out)
			}
		}
	}
}
