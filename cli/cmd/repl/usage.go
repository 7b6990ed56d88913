package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// usage describes how a built-in helper is invoked.
type usage struct {
	block  bool     // used as {{#name}}...{{/name}}
	params []string // positional parameters; a "..." prefix marks the rest
	hash   []string // accepted hash keys
}

// usages lists the built-in helpers.
var usages = map[string]usage{
	"if":         {block: true, params: []string{"cond"}},
	"unless":     {block: true, params: []string{"cond"}},
	"with":       {block: true, params: []string{"context"}},
	"each":       {block: true, params: []string{"list"}},
	"log":        {params: []string{"message", "...args"}, hash: []string{"key"}},
	"lookup":     {params: []string{"object", "key"}},
	"expr":       {params: []string{"source"}, hash: []string{"name"}},
	"sanitize":   {params: []string{"html"}},
	"pathprefix": {params: []string{"...paths"}},
}

// call is the helper invocation the cursor is in.
type call struct {
	name     string
	argIndex int
}

// detectCall finds the helper named by the first word of the mustache at
// the cursor and the index of the parameter being typed. It reports false
// while the helper name itself is being typed.
func detectCall(input string, cursor int) (call, bool) {
	if cursor > len(input) {
		cursor = len(input)
	}

	prefix := input[:cursor]

	open := strings.LastIndex(prefix, "{{")
	if open < 0 || strings.LastIndex(prefix, "}}") > open {
		return call{}, false
	}

	body := strings.TrimLeft(prefix[open+2:], "#^&~")

	fields := fieldsQuoted(body)
	if len(fields) == 0 || len(fields) == 1 && !strings.HasSuffix(body, " ") {
		return call{}, false
	}

	idx := len(fields) - 1
	if strings.HasSuffix(body, " ") {
		idx++
	}

	return call{name: fields[0], argIndex: idx - 1}, true
}

// fieldsQuoted splits s on spaces outside of quoted strings.
func fieldsQuoted(s string) []string {
	var (
		fields []string
		quote  rune
		start  = -1
	)

	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
			if start < 0 {
				start = i
			}
		case r == ' ' || r == '\t':
			if start >= 0 {
				fields = append(fields, s[start:i])
				start = -1
			}
		default:
			if start < 0 {
				start = i
			}
		}
	}

	if start >= 0 {
		fields = append(fields, s[start:])
	}

	return fields
}

// renderUsageHint renders the usage of a helper with the parameter at
// argIndex highlighted.
func renderUsageHint(name string, u usage, argIndex int) string {
	var b strings.Builder

	if u.block {
		b.WriteString(usageStyle.Render("#"))
	}

	b.WriteString(usageNameStyle.Render(name))

	for i, param := range u.params {
		b.WriteString(" ")

		rest := strings.HasPrefix(param, "...")
		if rest && argIndex >= i || !rest && argIndex == i {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(usageStyle.Render(param))
		}
	}

	for _, key := range u.hash {
		b.WriteString(usageStyle.Render(" " + key + "="))
	}

	if u.block {
		b.WriteString(usageStyle.Render(" ... /" + name))
	}

	return b.String()
}

var (
	usageStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	usageNameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	currentParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true).Underline(true)
)
