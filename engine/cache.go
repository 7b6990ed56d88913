package engine

import (
	"bytes"
	"context"
	"encoding/gob"
	"log/slog"
	"strconv"

	"github.com/zeebo/xxh3"

	"github.com/ardnew/curly/vm"
)

// Compile compiles source with the environment's options. Compilations are
// cached by source and options until [Env.ClearCache].
func (e *Env) Compile(ctx context.Context, source string) (vm.Render, error) {
	return e.CompileWith(ctx, source, vm.CompileOptions{Data: e.data})
}

// CompileWith compiles source with opts. See [Env.Compile].
func (e *Env) CompileWith(ctx context.Context, source string, opts vm.CompileOptions) (vm.Render, error) {
	sourceHash := xxh3.HashString(source)
	optsHash := hashOptions(opts)
	key := strconv.FormatUint(sourceHash^optsHash, 36)

	v, hit := e.cache.Load(key)

	e.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(sourceHash, 16)),
		slog.String("opts_hash", strconv.FormatUint(optsHash, 16)),
		slog.Bool("cache_hit", hit),
	)

	if hit {
		if render, ok := v.(vm.Render); ok {
			return render, nil
		}
	}

	render, err := e.compiler.Compile(source, opts)
	if err != nil {
		return nil, err
	}

	v, _ = e.cache.LoadOrStore(key, render)

	return v.(vm.Render), nil
}

// ClearCache drops all cached compilations.
func (e *Env) ClearCache() {
	e.cache.Clear()
}

// hashOptions encodes opts with gob and hashes the encoding.
func hashOptions(opts vm.CompileOptions) uint64 {
	var buf bytes.Buffer

	_ = gob.NewEncoder(&buf).Encode(opts.Data)

	return xxh3.Hash(buf.Bytes())
}
