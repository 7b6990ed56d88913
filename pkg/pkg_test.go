package pkg

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "curly" {
		t.Errorf("Expected Name to be %q, got %q", "curly", Name)
	}
}

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Fatal("Expected embedded Version to be non-empty")
	}

	if strings.TrimSpace(Version) != Version {
		t.Errorf("Expected Version without surrounding space, got %q", Version)
	}
}

func TestAuthor(t *testing.T) {
	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == "ardnew"
	}) {
		t.Errorf("Expected Author to contain %q", "ardnew")
	}
}

func TestDirs(t *testing.T) {
	for name, dir := range map[string]string{
		"config": ConfigDir(),
		"cache":  CacheDir(),
	} {
		if filepath.Base(dir) != Prefix() {
			t.Errorf("%s dir %q does not end with prefix %q", name, dir, Prefix())
		}
	}

	if strings.HasPrefix(Prefix(), ".") {
		t.Errorf("Prefix %q has a leading dot", Prefix())
	}
}

func TestError(t *testing.T) {
	errBase := NewError("widget failed")
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"message", errBase, "widget failed"},
		{"wrapped", errBase.Wrap(cause), "widget failed: boom"},
		{"cause only", WrapError(cause), "boom"},
		{"empty", &Error{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	errBase := NewError("widget failed")
	cause := errors.New("boom")

	derived := errBase.Wrap(cause).With(slog.String("name", "w"))
	wrapped := fmt.Errorf("outer: %w", derived)

	if !errors.Is(wrapped, errBase) {
		t.Error("derived error does not match its sentinel")
	}

	if !errors.Is(wrapped, cause) {
		t.Error("derived error does not match its cause")
	}

	if errors.Is(derived, NewError("other")) {
		t.Error("derived error matches an unrelated sentinel")
	}

	if got := WrapError(wrapped); got != derived {
		t.Errorf("WrapError did not recover the *Error in the chain")
	}
}

func TestErrorWithIsImmutable(t *testing.T) {
	base := NewError("x").With(slog.Int("a", 1))
	_ = base.With(slog.Int("b", 2))

	if n := len(base.Attrs()); n != 1 {
		t.Errorf("With mutated receiver: %d attrs", n)
	}

	v := base.Wrap(errors.New("c")).LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("LogValue kind = %v, want group", v.Kind())
	}

	keys := []string{}
	for _, a := range v.Group() {
		keys = append(keys, a.Key)
	}

	if !slices.Equal(keys, []string{"error", "cause", "a"}) {
		t.Errorf("LogValue keys = %v", keys)
	}
}
