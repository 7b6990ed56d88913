package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPackageFunctions(t *testing.T) {
	saved := Default()
	defer func() { defaultLog = saved }()

	var buf bytes.Buffer

	defaultLog = Make(&buf)
	Config(WithLevel(LevelDebug), WithFormat(FormatJSON))

	tests := []struct {
		name  string
		fn    func(string, ...slog.Attr)
		level string
	}{
		{"Debug", Debug, "DEBUG"},
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn("message", slog.String("key", "value"))

			out := buf.String()
			for _, want := range []string{`"msg":"message"`, tt.level, `"key":"value"`} {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %s: %s", want, out)
				}
			}
		})
	}

	buf.Reset()
	With(slog.String("scope", "pkg")).Info("scoped")

	if !strings.Contains(buf.String(), `"scope":"pkg"`) {
		t.Errorf("With attrs missing: %s", buf.String())
	}
}
