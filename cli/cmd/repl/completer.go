package repl

import (
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/curly/lookup"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "list", "data", "partials", "set", "unset", "edit", "clear", "quit",
}

// maxIndexCandidates bounds the indices offered for a sequence.
const maxIndexCandidates = 32

// isWordBoundary reports whether r delimits a path segment for completion
// purposes: whitespace, path separators, the data markers and mustache
// punctuation.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '.', '/',
		'{', '}', '#', '^', '>', '&', '!',
		'@', '~', '=', '"', '\'', '[', ']':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input. Returns an empty word when the cursor sits on a
// boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// mustache describes the expression the cursor is in.
type mustache struct {
	open    bool   // cursor follows "{{" with no "}}" in between
	opener  byte   // the character after "{{" if it is a block or partial marker
	parent  string // separator-joined path leading to the current word
	data    bool   // the path starts with a data marker
	leading bool   // the word is the first one of the expression
}

// scanMustache inspects the input before wordStart.
func scanMustache(input string, wordStart int) mustache {
	var m mustache

	prefix := input[:wordStart]

	open := strings.LastIndex(prefix, "{{")
	if open < 0 || strings.LastIndex(prefix, "}}") > open {
		return m
	}

	m.open = true

	body := prefix[open+2:]
	if body != "" && strings.ContainsRune("#^>/&", rune(body[0])) {
		m.opener = body[0]
		body = body[1:]
	}

	// The path is the run of non-space characters ending at the word.
	path := body[strings.LastIndexAny(body, " \t=")+1:]
	m.leading = strings.TrimSpace(body[:len(body)-len(path)]) == ""

	if path != "" && (path[0] == '@' || path[0] == '~') {
		m.data = true
		path = path[1:]
	}

	m.parent = strings.TrimRight(path, "./")

	return m
}

// segments splits a parent path on its separators.
func segments(parent string) []string {
	if parent == "" {
		return nil
	}

	return strings.FieldsFunc(parent, func(r rune) bool {
		return r == '.' || r == '/'
	})
}

// candidates returns the completions offered for the mustache at the cursor.
func (m model) candidates(mu mustache) []string {
	if !mu.open {
		return nil
	}

	if mu.opener == '>' && mu.leading {
		return slices.Sorted(maps.Keys(m.env.Partials()))
	}

	segs := segments(mu.parent)

	if mu.data {
		frame := m.frame()
		if len(segs) == 0 {
			return childNames(frame)
		}

		segs[0] = "@" + segs[0]

		return childNames(lookup.EvaluateProperty(m.root, frame, segs))
	}

	if len(segs) == 0 {
		names := childNames(m.root)
		if mu.leading && mu.opener != '/' {
			names = append(names, m.helperNames()...)
		}

		return append(names, "this")
	}

	if segs[0] == "this" {
		segs = segs[1:]
	}

	return childNames(lookup.EvaluateProperty(m.root, m.frame(), segs))
}

// childNames returns the names by which the members of v can be addressed.
func childNames(v any) []string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}

		rv = rv.Elem()
	}

	var names []string

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}

		for _, k := range rv.MapKeys() {
			names = append(names, k.String())
		}

		slices.Sort(names)

	case reflect.Struct:
		for i := range rv.NumField() {
			if f := rv.Type().Field(i); f.IsExported() {
				names = append(names, f.Name)
			}
		}

	case reflect.Slice, reflect.Array:
		for i := range min(rv.Len(), maxIndexCandidates) {
			names = append(names, strconv.Itoa(i))
		}
	}

	return names
}

// computeMatches calculates the fuzzy match results for the word at the
// cursor. After a separator the word is empty and every child is offered.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	var (
		candidates []string
		browse     bool
	)

	if m.mode == modeCtrl {
		if word == "" || strings.ContainsAny(input[:wordStart], " \t") {
			return nil, wordStart, wordEnd
		}

		candidates = ctrlCommands
	} else {
		mu := scanMustache(input, wordStart)
		candidates = m.candidates(mu)
		browse = mu.parent != "" || mu.data
	}

	if len(candidates) == 0 {
		return nil, wordStart, wordEnd
	}

	if word == "" {
		if !browse {
			return nil, wordStart, wordEnd
		}

		matches = make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. The selected candidate (when tabbing)
// uses the selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle, highlight := suggestionStyle, matchStyle
	if selected {
		baseStyle, highlight = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	return b.String()
}
