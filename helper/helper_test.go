package helper

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/curly/compiler"
	"github.com/ardnew/curly/escape"
	"github.com/ardnew/curly/log"
	"github.com/ardnew/curly/vm"
)

func render(t *testing.T, helpers vm.Helpers, source string, context any) (string, error) {
	t.Helper()

	r, err := compiler.New(
		compiler.WithHelpers(helpers),
		compiler.WithEscaper(escape.Raw),
	).Compile(source, vm.CompileOptions{Data: true})
	require.NoError(t, err)

	return r(context, &vm.Options{Data: map[string]any{"site": "curly"}})
}

func TestBuiltins(t *testing.T) {
	helpers := Builtins(WithLogger(log.Discard()), WithListSeparator(":"))

	ctx := map[string]any{
		"name":   "Ann",
		"yes":    true,
		"no":     false,
		"items":  []string{"a", "b", "c"},
		"none":   []string{},
		"scores": map[string]int{"bob": 2, "amy": 1},
		"person": map[string]any{"name": "Bob", "city": "Oslo"},
		"field":  "city",
		"html":   `<p onclick="x()">hi<script>bad()</script></p>`,
		"path":   "/usr/bin:/bin",
		"n":      3,
	}

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"if true", "{{#if yes}}Y{{else}}N{{/if}}", "Y"},
		{"if false", "{{#if no}}Y{{else}}N{{/if}}", "N"},
		{"if empty list", "{{#if none}}Y{{else}}N{{/if}}", "N"},
		{"unless", "{{#unless no}}U{{/unless}}{{#unless yes}}X{{/unless}}", "U"},
		{"with", "{{#with person}}{{name}} in {{city}}{{/with}}", "Bob in Oslo"},
		{"with missing", "{{#with nobody}}x{{else}}nobody{{/with}}", "nobody"},
		{"each", "{{#each items}}{{@index}}{{.}}{{#if @first}}^{{/if}}{{#if @last}}${{/if}} {{/each}}", "0a^ 1b 2c$ "},
		{"each map", "{{#each scores}}{{@key}}={{.}};{{/each}}", "amy=1;bob=2;"},
		{"each empty", "{{#each none}}x{{else}}empty{{/each}}", "empty"},
		{"each parent frame", "{{#each items}}{{#each ../items}}{{@../index}}{{@index}},{{/each}}{{/each}}", "00,01,02,10,11,12,20,21,22,"},
		{"each keeps data", "{{#each items}}{{@site}}{{/each}}", "curlycurlycurly"},
		{"each outer context", "{{#each items}}{{../name}}{{/each}}", "AnnAnnAnn"},
		{"lookup", "{{lookup person field}}", "Oslo"},
		{"log", "[{{log \"hello\" name level=1}}]", "[]"},
		{"expr", `{{expr "n * 2 + len(items)"}}`, "9"},
		{"expr hash", `{{expr "n + k" k=4}}`, "7"},
		{"expr this", `{{#with person}}{{expr "this.name + '!'"}}{{/with}}`, "Bob!"},
		{"expr data", `{{expr "data.site"}}`, "curly"},
		{"expr block", `{{#expr "n > 2"}}big{{else}}small{{/expr}}`, "big"},
		{"expr block false", `{{#expr "n > 5"}}big{{else}}small{{/expr}}`, "small"},
		{"sanitize", "{{sanitize html}}", "<p>hi</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := render(t, helpers, tt.source, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestBuiltinErrors(t *testing.T) {
	helpers := Builtins(WithLogger(log.Discard()))

	tests := []struct {
		name   string
		source string
		want   error
	}{
		{"if as mustache", "{{if x}}", ErrNeedsBlock},
		{"if without argument", "{{#if}}x{{/if}}", ErrArgs},
		{"each with two arguments", "{{#each a b}}x{{/each}}", ErrArgs},
		{"lookup arity", "{{lookup a}}", ErrArgs},
		{"expr not a string", "{{expr 1}}", ErrArgs},
		{"expr syntax", `{{expr "1 +"}}`, ErrExprCompile},
		{"expr runtime", `{{expr "1 % x" x=0}}`, ErrExpr},
		{"sanitize arity", "{{sanitize}}", ErrArgs},
		{"pathprefix arity", "{{pathprefix}}", ErrArgs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := render(t, helpers, tt.source, nil)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, compiler.ErrHelperFailed)
		})
	}
}

func TestLogHelper(t *testing.T) {
	var buf bytes.Buffer

	helpers := Builtins(WithLogger(log.Make(&buf, log.WithFormat(log.FormatJSON), log.WithTimeLayout(""))))

	_, err := render(t, helpers, `{{log "visit" name step=2}}`, map[string]any{"name": "Ann"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"visit"`)
	assert.Contains(t, out, `"args":["Ann"]`)
	assert.Contains(t, out, `"step":2`)
}

func TestExprCache(t *testing.T) {
	e := newEvaluator(log.Discard())

	p1, err := e.compile("a + 1")
	require.NoError(t, err)

	p2, err := e.compile("a + 1")
	require.NoError(t, err)

	assert.Same(t, p1, p2)

	v, err := e.eval("a + 1", map[string]any{"a": 41})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestCallerHelpersOverride(t *testing.T) {
	r, err := compiler.New(compiler.WithHelpers(Builtins(WithLogger(log.Discard())))).
		Compile("{{#if x}}a{{/if}}", vm.CompileOptions{})
	require.NoError(t, err)

	out, err := r(map[string]any{"x": true}, &vm.Options{Helpers: vm.Helpers{
		"if": func(any, []any, *vm.HelperOptions) (any, error) { return "custom", nil },
	}})
	require.NoError(t, err)
	assert.Equal(t, "custom", out)
}

func TestPathPrefix(t *testing.T) {
	helpers := Builtins(WithLogger(log.Discard()), WithListSeparator(":"))

	out, err := render(t, helpers, `{{pathprefix path "/opt/bin" "/sbin"}}`,
		map[string]any{"path": "/usr/bin:/bin"})
	require.NoError(t, err)

	assert.Equal(t, "/opt/bin:/sbin:/usr/bin:/bin", out)
}
