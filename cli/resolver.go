package cli

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve is a [kong.ConfigurationLoader] that reads flag defaults from a
// YAML document.
//
// Nested mappings are flattened by joining keys with hyphens, so
//
//	log:
//	  level: debug
//	  pretty: false
//
// sets --log-level=debug and --log-pretty=false, the same as the top-level
// keys log-level and log_pretty would. Sequences become comma-separated
// lists.
func resolve(r io.Reader) (kong.Resolver, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrConfig.Wrap(err)
	}

	cfg := config{}
	if len(bytes.TrimSpace(b)) == 0 {
		return cfg, nil
	}

	var doc map[string]any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, ErrConfig.Wrap(err)
	}

	cfg.flatten("", doc)

	return cfg, nil
}

// config implements [kong.Resolver] over flattened YAML keys.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}

func (r config) flatten(prefix string, m map[string]any) {
	for key, val := range m {
		if prefix != "" {
			key = prefix + "-" + key
		}

		if sub, ok := val.(map[string]any); ok {
			r.flatten(key, sub)

			continue
		}

		r[key] = scalar(val)
	}
}

// scalar converts a decoded YAML value to a form Kong can map onto a flag.
// Kong parses numbers from strings.
func scalar(v any) any {
	switch v := v.(type) {
	case nil, bool, string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = fmt.Sprint(scalar(item))
		}

		return strings.Join(items, ",")
	default:
		return fmt.Sprint(v)
	}
}
