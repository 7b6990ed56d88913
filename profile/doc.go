// Package profile provides optional runtime profiling for curly.
//
// Profiling uses [github.com/pkg/profile] and is compiled in only with the
// "pprof" build tag:
//
//	go build -tags pprof -o curly .
//
// Without the tag [Modes] is empty and [Profiler.Start] does nothing.
//
// # Modes
//
//   - allocs:    memory allocations
//   - block:     blocking on synchronization primitives
//   - clock:     wall-clock time
//   - cpu:       CPU time
//   - goroutine: goroutine stacks
//   - heap:      live heap allocations
//   - mem:       memory in general
//   - mutex:     mutex contention
//   - thread:    thread creation
//   - trace:     execution trace
//
// # Usage
//
//	p := profile.Profiler{Mode: "cpu", Path: "/tmp/profiles"}
//	defer p.Start().Stop()
//
// The CLI exposes the same settings as --pprof-mode and --pprof-dir. The
// default directory is "pprof" under the user cache directory, for example
// $XDG_CACHE_HOME/curly/pprof. Profiles are analyzed with go tool pprof:
//
//	go tool pprof -http=: ~/.cache/curly/pprof/cpu.pprof
//
// Rendering large templates in a loop with --pprof-mode=allocs is the
// quickest way to see where the lexer and the path resolver allocate.
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`

// Profiler describes a profiling session.
type Profiler struct {
	// Mode is one of [Modes]. An empty or unknown mode disables profiling.
	Mode string
	// Path is the output directory. Empty means the current directory.
	Path string
	// Quiet suppresses the profiler's own log messages.
	Quiet bool
}

// Start starts profiling and returns the handle that stops it. Both Start
// and Stop are always safe to call.
func (p Profiler) Start() interface{ Stop() } {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
