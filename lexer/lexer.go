// Package lexer tokenizes mustache template text.
//
// A [Lexer] produces a lazy, finite token stream. Literal text becomes
// [CONTENT]; each "{{ ... }}" region becomes an opening token, the tokens of
// the expression inside, and [CLOSE]. A backslash before "{{" escapes the
// mustache so that it is emitted as content.
//
// Malformed input never fails: the stream ends with an [INVALID] token at
// the first character that cannot start a token, and every call to
// [Lexer.Lex] after the stream ends returns [EOF].
package lexer

import (
	"iter"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ardnew/curly/pkg"
)

// ErrInvalidToken is returned by [Collect] when the input contains a
// character that cannot start a token.
var ErrInvalidToken = pkg.NewError("invalid token")

const (
	openDelim  = "{{"
	closeDelim = "}}"

	escape byte = '\\'

	// notIdent lists the ASCII characters that end an identifier, besides
	// whitespace and control characters. Braces are handled separately.
	notIdent = "!\"#%&'()*+,./;<=>@[\\]^`|"
)

type mode uint8

const (
	modeContent mode = iota
	modeEscaped
	modeOpen
	modeMustache
	modeDone
)

// openers maps the character following "{{" to the opening token it forms.
var openers = map[byte]Kind{
	'>': OPEN_PARTIAL,
	'#': OPEN_BLOCK,
	'/': OPEN_ENDBLOCK,
	'^': OPEN_INVERSE,
}

// Lexer splits template text into tokens.
// The zero value is a lexer over empty input.
type Lexer struct {
	input  string
	pos    int
	mode   mode
	braces int // open '{' in identifiers of the current mustache
	text   string
}

// New returns a lexer over input.
func New(input string) *Lexer {
	l := &Lexer{}
	l.SetInput(input)

	return l
}

// SetInput resets l to the beginning of input, discarding all state.
func (l *Lexer) SetInput(input string) {
	*l = Lexer{input: input}
}

// Text returns the text of the token most recently returned by [Lexer.Lex].
func (l *Lexer) Text() string { return l.text }

// Lex returns the next token.
func (l *Lexer) Lex() Token {
	tok := l.next()
	l.text = tok.Text

	return tok
}

func (l *Lexer) next() Token {
	for {
		switch l.mode {
		case modeContent:
			if tok, ok := l.content(); ok {
				return tok
			}

		case modeEscaped:
			return l.escaped()

		case modeOpen:
			return l.open()

		case modeMustache:
			return l.mustache()

		default:
			return Token{Kind: EOF}
		}
	}
}

// content emits literal text up to the next "{{". It reports false when it
// only switched modes without producing a token.
func (l *Lexer) content() (Token, bool) {
	rest := l.input[l.pos:]
	if rest == "" {
		l.mode = modeDone

		return Token{Kind: EOF}, true
	}

	i := strings.Index(rest, openDelim)
	if i < 0 {
		l.pos = len(l.input)

		return Token{Kind: CONTENT, Text: rest}, true
	}

	text := rest[:i]
	l.pos += i
	l.mode = modeOpen

	if strings.HasSuffix(text, string(escape)) {
		text = text[:len(text)-1]
		l.mode = modeEscaped
	}

	if text == "" {
		return Token{}, false
	}

	return Token{Kind: CONTENT, Text: text}, true
}

// escaped emits an escaped mustache as content: everything from the current
// "{{" up to, but not including, the next "{{". A backslash right before that
// next "{{" escapes it too.
func (l *Lexer) escaped() Token {
	rest := l.input[l.pos:]

	n := len(rest)
	if i := strings.Index(rest[len(openDelim):], openDelim); i >= 0 {
		n = i + len(openDelim)
	}

	text := rest[:n]
	l.pos += n
	l.mode = modeContent

	if n < len(rest) && text[n-1] == escape {
		text = text[:n-1]
		l.mode = modeEscaped
	}

	return Token{Kind: CONTENT, Text: text}
}

func (l *Lexer) open() Token {
	rest := l.input[l.pos:]
	l.mode = modeMustache
	l.braces = 0

	switch {
	case strings.HasPrefix(rest, "{{!--"):
		return l.comment(len("{{!--"), "--}}")

	case strings.HasPrefix(rest, "{{!"):
		return l.comment(len("{{!"), closeDelim)
	}

	if len(rest) > len(openDelim) {
		if kind, ok := openers[rest[len(openDelim)]]; ok {
			l.pos += len(openDelim) + 1

			return Token{Kind: kind, Text: rest[:len(openDelim)+1]}
		}
	}

	if n := elseLen(rest); n > 0 {
		l.pos += n

		return Token{Kind: OPEN_INVERSE, Text: rest[:n]}
	}

	l.pos += len(openDelim)

	return Token{Kind: OPEN, Text: openDelim}
}

func (l *Lexer) comment(skip int, end string) Token {
	body := l.input[l.pos+skip:]

	i := strings.Index(body, end)
	if i < 0 {
		return l.invalid(l.input[l.pos:])
	}

	l.pos += skip + i + len(end)
	l.mode = modeContent

	return Token{Kind: COMMENT, Text: body[:i]}
}

// elseLen returns the length of a "{{ else" opener at the start of s, or 0.
func elseLen(s string) int {
	i := len(openDelim)
	for i < len(s) && isSpace(s[i]) {
		i++
	}

	if !strings.HasPrefix(s[i:], "else") {
		return 0
	}

	i += len("else")
	if i < len(s) && !isSpace(s[i]) && s[i] != '}' {
		return 0
	}

	return i
}

func (l *Lexer) mustache() Token {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}

	rest := l.input[l.pos:]
	if rest == "" {
		l.mode = modeDone

		return Token{Kind: EOF}
	}

	c := rest[0]

	switch {
	case strings.HasPrefix(rest, closeDelim):
		l.pos += len(closeDelim)
		l.mode = modeContent

		return Token{Kind: CLOSE, Text: closeDelim}

	case strings.HasPrefix(rest, ".."):
		l.pos += 2

		return Token{Kind: ID, Text: ".."}

	case c == '.' && (len(rest) == 1 || rest[1] == '}' || isSpace(rest[1])):
		l.pos++

		return Token{Kind: ID, Text: "."}

	case c == '.' || c == '/':
		l.pos++

		return Token{Kind: SEP, Text: rest[:1]}

	case c == '=':
		l.pos++

		return Token{Kind: EQUALS, Text: "="}

	case c == '@':
		n := l.identLen(rest[1:])
		l.pos += 1 + n

		return Token{Kind: DATA, Text: rest[1 : 1+n]}

	case c == '"' || c == '\'':
		return l.quoted(rest, c)

	case c == '[':
		i := strings.IndexByte(rest, ']')
		if i < 0 {
			return l.invalid(rest)
		}

		l.pos += i + 1

		return Token{Kind: ID, Text: rest[1:i]}
	}

	if n := integerLen(rest); n > 0 && literalEnds(rest, n) {
		l.pos += n

		return Token{Kind: INTEGER, Text: rest[:n]}
	}

	for _, b := range [...]string{"true", "false"} {
		if strings.HasPrefix(rest, b) && literalEnds(rest, len(b)) {
			l.pos += len(b)

			return Token{Kind: BOOLEAN, Text: b}
		}
	}

	n := l.identLen(rest)
	if n == 0 {
		_, size := utf8.DecodeRuneInString(rest)

		return l.invalid(rest[:size])
	}

	if n < len(rest) && !identEnds(rest[n]) {
		return l.invalid(rest[n : n+1])
	}

	l.pos += n

	return Token{Kind: ID, Text: rest[:n]}
}

// quoted scans a string literal delimited by q at the start of s. Only an
// escaped delimiter is unescaped; other backslashes are kept verbatim.
func (l *Lexer) quoted(s string, q byte) Token {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case escape:
			if i+1 < len(s) && s[i+1] == q {
				i++
			}

		case q:
			l.pos += i + 1
			text := strings.ReplaceAll(s[1:i], string([]byte{escape, q}), string(q))

			return Token{Kind: STRING, Text: text}
		}
	}

	return l.invalid(s)
}

// identLen returns the length of the identifier at the start of s.
// A '{' opens a brace run that may span several path segments, and a '}'
// belongs to the identifier only while a run is open.
func (l *Lexer) identLen(s string) int {
	n := 0

	for ; n < len(s); n++ {
		switch c := s[n]; {
		case c == '{':
			l.braces++

		case c == '}':
			if l.braces == 0 {
				return n
			}

			l.braces--

		case c < utf8.RuneSelf && !isIdent(c):
			return n
		}
	}

	return n
}

func (l *Lexer) invalid(text string) Token {
	l.mode = modeDone
	l.pos = len(l.input)

	return Token{Kind: INVALID, Text: text}
}

func integerLen(s string) int {
	i := 0
	if strings.HasPrefix(s, "-") {
		i++
	}

	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}

	if j == i {
		return 0
	}

	return j
}

// literalEnds reports whether the literal of length n at the start of s is
// followed by whitespace or a closing brace.
func literalEnds(s string, n int) bool {
	return n < len(s) && (s[n] == '}' || isSpace(s[n]))
}

func identEnds(c byte) bool {
	return isSpace(c) || c == '=' || c == '}' || c == '/' || c == '.'
}

func isIdent(c byte) bool {
	return c > ' ' && c != 0x7f && strings.IndexByte(notIdent, c) < 0
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}

	return false
}

// Tokens returns an iterator over the tokens of text. The final token
// yielded is [EOF] or [INVALID].
func Tokens(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		l := New(text)

		for {
			tok := l.Lex()
			if !yield(tok) || tok.Kind.Terminal() {
				return
			}
		}
	}
}

// Collect returns the tokens of text without the trailing [EOF].
// If the stream ends with [INVALID], the tokens before it are returned along
// with an error wrapping [ErrInvalidToken].
func Collect(text string) ([]Token, error) {
	var toks []Token

	for tok := range Tokens(text) {
		switch tok.Kind {
		case EOF:
			return toks, nil

		case INVALID:
			return toks, ErrInvalidToken.With(
				slog.String("text", tok.Text),
				slog.Int("after", len(toks)),
			)
		}

		toks = append(toks, tok)
	}

	return toks, nil
}
