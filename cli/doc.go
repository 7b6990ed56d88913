// Package cli contains the command line interface for curly.
//
// # Usage
//
//	curly [flags] <template>              render a template (default command)
//	curly render -d data.yaml page.hbs    render with a data file
//	curly lex yaml page.hbs               dump the token stream
//	curly repl -d data.json               interactive console
//	curly init                            write the configuration file
//
// # Configuration
//
// Flag defaults are read from config.json and config.yaml in the user
// configuration directory, for example $XDG_CONFIG_HOME/curly. The YAML
// file may nest keys by flag prefix or spell them out in full:
//
//	log:
//	  level: debug
//	render-bare-calls: true
//
// Underscores may be used in place of hyphens. Command-line flags override
// both files.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, none, ...)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize output on terminals
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o curly .
//
//   - --pprof-mode: Enable profiling (see [profile.Modes])
//   - --pprof-dir: Set profile output directory (default
//     ~/.cache/curly/pprof)
package cli
