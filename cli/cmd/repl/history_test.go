package repl

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHistoryPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	for _, e := range []HistoryEntry{
		{"{{a}}", modeEval},
		{"help", modeCtrl},
		{"{{b}}", modeEval},
	} {
		if err := h.Write(e.Line, e.Mode); err != nil {
			t.Fatal(err)
		}
	}

	loaded := NewHistory(path)
	if err := loaded.Load(); err != nil {
		t.Fatal(err)
	}

	if loaded.Len() != 3 {
		t.Fatalf("Len = %d, want 3", loaded.Len())
	}

	e, err := loaded.Entry(1)
	if err != nil {
		t.Fatal(err)
	}

	if e != (HistoryEntry{"help", modeCtrl}) {
		t.Errorf("Entry(1) = %+v", e)
	}
}

func TestHistoryDuplicateMovesToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	_ = h.Write("{{a}}", modeEval)
	_ = h.Write("{{b}}", modeEval)
	_ = h.Write("{{a}}", modeEval)
	_ = h.Write("{{a}}", modeEval)

	if h.Len() != 2 {
		t.Fatalf("Len = %d, want 2", h.Len())
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := string(b), "T:{{b}}\nT:{{a}}\n"; got != want {
		t.Errorf("history file = %q, want %q", got, want)
	}
}

func TestHistorySameLineDifferentMode(t *testing.T) {
	h := NewHistory("")
	_ = h.Write("list", modeEval)
	_ = h.Write("list", modeCtrl)

	if h.Len() != 2 {
		t.Errorf("Len = %d, want entries in both modes kept", h.Len())
	}
}

func TestHistoryLoadTrims(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	var b strings.Builder
	for range maxHistory + 5 {
		b.WriteString("T:x\n")
	}

	b.WriteString("legacy line\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatal(err)
	}

	if h.Len() != maxHistory {
		t.Errorf("Len = %d, want %d", h.Len(), maxHistory)
	}

	last, _ := h.Entry(h.Len() - 1)
	if last != (HistoryEntry{"legacy line", modeEval}) {
		t.Errorf("last entry = %+v", last)
	}
}

func TestHistoryMissingFile(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "absent"))
	if err := h.Load(); err != nil {
		t.Fatal(err)
	}

	if _, err := h.Entry(0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Entry(0) error = %v, want %v", err, ErrOutOfBounds)
	}
}
