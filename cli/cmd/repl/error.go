package repl

import "github.com/ardnew/curly/pkg"

// Errors returned by the REPL.
var (
	ErrOutOfBounds  = pkg.NewError("index out of range")
	ErrEditDeclined = pkg.NewError("decline edit")
	ErrUsage        = pkg.NewError("usage")
)
