package repl

import (
	"context"
	"slices"
	"testing"

	"github.com/ardnew/curly/engine"
	"github.com/ardnew/curly/log"
)

func testModel(t *testing.T) model {
	t.Helper()

	env := engine.New(engine.WithLogger(log.Discard()), engine.WithData(true))
	env.RegisterPartial("card", "<{{name}}>")

	root := map[string]any{
		"user":  map[string]any{"name": "Ann", "age": 3},
		"items": []any{"a", "b"},
	}

	m := newModel(context.Background(), env, root, NewHistory(""), log.Discard())
	m.vars["mode"] = "dev"

	return m
}

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "{{foo", 5, "foo", 2, 5},
		{"dot_separated", "{{bar.baz", 9, "baz", 6, 9},
		{"slash_separated", "{{bar/baz", 9, "baz", 6, 9},
		{"data", "{{@ind", 6, "ind", 3, 6},
		{"block", "{{#each it", 10, "it", 8, 10},
		{"hash_value", "{{x a=fo", 8, "fo", 6, 8},
		{"mid_word", "{{foobar}}", 4, "foobar", 2, 8},
		{"empty_after_dot", "{{config.", 9, "", 9, 9},
		{"hyphenated", "{{log-pretty", 12, "log-pretty", 2, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestScanMustache(t *testing.T) {
	tests := []struct {
		input string
		want  mustache
	}{
		{"plain", mustache{}},
		{"{{a}} b", mustache{}},
		{"{{", mustache{open: true, leading: true}},
		{"{{user.", mustache{open: true, parent: "user", leading: true}},
		{"{{#each ", mustache{open: true, opener: '#'}},
		{"{{#each user/", mustache{open: true, opener: '#', parent: "user"}},
		{"{{> ", mustache{open: true, opener: '>', leading: true}},
		{"{{@", mustache{open: true, data: true, leading: true}},
		{"{{x k=@root.", mustache{open: true, data: true, parent: "root"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := scanMustache(tt.input, len(tt.input)); got != tt.want {
				t.Errorf("scanMustache(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestComputeMatches(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		mode    inputMode
		want    []string // exact matches in order
		contain string   // a match that must be present
	}{
		{name: "children", input: "{{user.", want: []string{"age", "name"}},
		{name: "this_children", input: "{{this.user.", want: []string{"age", "name"}},
		{name: "filtered", input: "{{user.na", want: []string{"name"}},
		{name: "top_level", input: "{{us", contain: "user"},
		{name: "helpers", input: "{{#ea", contain: "each"},
		{name: "block_param", input: "{{#each it", contain: "items"},
		{name: "indices", input: "{{items.", want: []string{"0", "1"}},
		{name: "data", input: "{{@", want: []string{"mode"}},
		{name: "partials", input: "{{> ca", want: []string{"card"}},
		{name: "outside", input: "us"},
		{name: "closed", input: "{{user}} us"},
		{name: "top_level_empty", input: "{{"},
		{name: "command", input: "par", mode: modeCtrl, want: []string{"partials"}},
		{name: "command_args", input: "data us", mode: modeCtrl},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel(t)
			m.mode = tt.mode
			m.input.SetValue(tt.input)
			m.input.CursorEnd()

			matches, _, _ := m.computeMatches()

			var got []string
			for _, match := range matches {
				got = append(got, match.Str)
			}

			switch {
			case tt.contain != "":
				if !slices.Contains(got, tt.contain) {
					t.Errorf("matches = %v, want to contain %q", got, tt.contain)
				}
			case !slices.Equal(got, tt.want):
				t.Errorf("matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCycleCompletes(t *testing.T) {
	m := testModel(t)
	m.input.SetValue("{{user.na")
	m.input.CursorEnd()
	refreshMatches(&m)

	m = m.cycle(1)

	if got := m.input.Value(); got != "{{user.name" {
		t.Errorf("input after tab = %q, want %q", got, "{{user.name")
	}

	if m.tabActive {
		t.Error("single candidate should complete without tab-cycling")
	}
}

func TestCycleWraps(t *testing.T) {
	m := testModel(t)
	m.input.SetValue("{{user.")
	m.input.CursorEnd()
	refreshMatches(&m)

	m = m.cycle(1)
	if got := m.input.Value(); got != "{{user.age" {
		t.Fatalf("first tab = %q", got)
	}

	m = m.cycle(1)
	if got := m.input.Value(); got != "{{user.name" {
		t.Fatalf("second tab = %q", got)
	}

	m = m.cycle(1)
	if got := m.input.Value(); got != "{{user.age" {
		t.Errorf("third tab = %q, want wrap to first candidate", got)
	}
}
