package cmd

import (
	"context"

	"github.com/ardnew/curly/cli/cmd/repl"
	"github.com/ardnew/curly/log"
)

// Repl starts the interactive console.
type Repl struct {
	Inputs `embed:""`

	NoHistory bool `help:"Do not read or write the history file"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	root, err := loadContext(r.Data)
	if err != nil {
		return err
	}

	env, err := r.engine(ctx)
	if err != nil {
		return err
	}

	var cacheDir string
	if ktx := kongContextFrom(ctx); ktx != nil && !r.NoHistory {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	return repl.Run(ctx, env, root, cacheDir, log.Default())
}
