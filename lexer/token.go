package lexer

import (
	"log/slog"
	"strconv"

	"github.com/ardnew/curly/pkg"
)

// ErrUnknownKind is returned when decoding a token kind name fails.
var ErrUnknownKind = pkg.NewError("unknown token kind")

// Kind identifies the lexical category of a [Token].
type Kind uint8

const (
	EOF Kind = iota
	INVALID
	CONTENT
	COMMENT
	OPEN
	OPEN_BLOCK
	OPEN_ENDBLOCK
	OPEN_INVERSE
	OPEN_PARTIAL
	CLOSE
	ID
	SEP
	EQUALS
	STRING
	INTEGER
	BOOLEAN
	DATA
)

var kindNames = [...]string{
	EOF:           "EOF",
	INVALID:       "INVALID",
	CONTENT:       "CONTENT",
	COMMENT:       "COMMENT",
	OPEN:          "OPEN",
	OPEN_BLOCK:    "OPEN_BLOCK",
	OPEN_ENDBLOCK: "OPEN_ENDBLOCK",
	OPEN_INVERSE:  "OPEN_INVERSE",
	OPEN_PARTIAL:  "OPEN_PARTIAL",
	CLOSE:         "CLOSE",
	ID:            "ID",
	SEP:           "SEP",
	EQUALS:        "EQUALS",
	STRING:        "STRING",
	INTEGER:       "INTEGER",
	BOOLEAN:       "BOOLEAN",
	DATA:          "DATA",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Terminal reports whether no further tokens follow a token of kind k.
func (k Kind) Terminal() bool { return k == EOF || k == INVALID }

// Token is a lexical unit. Text is the semantic text of the token: quotes
// are removed from strings, brackets from bracketed identifiers, and the
// marker from data names. Comments carry their interior text.
type Token struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	Text string `json:"text" yaml:"text"`
}

func (t Token) String() string {
	if t.Kind == EOF {
		return t.Kind.String()
	}

	return t.Kind.String() + "(" + strconv.Quote(t.Text) + ")"
}

// MarshalText encodes k by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name produced by [Kind.MarshalText].
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)

			return nil
		}
	}

	return ErrUnknownKind.With(slog.String("kind", string(text)))
}
