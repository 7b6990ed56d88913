package helper

import (
	"os"
	"slices"

	"github.com/ardnew/mung"

	"github.com/ardnew/curly/escape"
	"github.com/ardnew/curly/vm"
)

//nolint:gochecknoglobals
var listSeparator = string(os.PathListSeparator)

// sanitize cleans its argument of unsafe markup. The result is written
// without further escaping.
func (c config) sanitize(_ any, params []any, opts *vm.HelperOptions) (any, error) {
	if err := argc(opts, params, 1); err != nil {
		return nil, err
	}

	return escape.SafeString(c.policy.Sanitize(escape.String(params[0]))), nil
}

// pathPrefix prepends the remaining arguments to the list given as the
// first.
//
//	{{pathprefix env.PATH "/opt/bin" "~/bin"}}
func (c config) pathPrefix(_ any, params []any, opts *vm.HelperOptions) (any, error) {
	if len(params) == 0 {
		return nil, argc(opts, params, 1)
	}

	// Items are prepended one at a time, so the last one given ends up
	// first unless the list is reversed.
	prefix := make([]string, 0, len(params)-1)
	for _, p := range slices.Backward(params[1:]) {
		prefix = append(prefix, escape.String(p))
	}

	return mung.Make(
		mung.WithSubjectItems(escape.String(params[0])),
		mung.WithDelim(c.delim),
		mung.WithPrefixItems(prefix...),
	).String(), nil
}
