package cmd

import "github.com/ardnew/curly/pkg"

// Errors returned by the commands.
var (
	ErrWriteConfig = pkg.NewError("could not write configuration file")
	ErrFileExists  = pkg.NewError("file exists")
	ErrDataFile    = pkg.NewError("could not open data file")
	ErrMergeData   = pkg.NewError("data files must all be mappings")
	ErrTemplate    = pkg.NewError("could not read template")
	ErrLex         = pkg.NewError("could not lex template")
	ErrEncode      = pkg.NewError("could not encode output")
	ErrWatch       = pkg.NewError("could not watch files")
	ErrWatchStdin  = pkg.NewError("standard input cannot be watched")
)
