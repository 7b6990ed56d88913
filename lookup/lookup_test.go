package lookup

import (
	"errors"
	"reflect"
	"slices"
	"testing"
)

type person struct {
	Name     string
	Nickname string `json:"nick,omitempty"`
	Tags     []string
	secret   string
}

func (p person) Greeting() string { return "hi " + p.Name }

func (p *person) Shout() string { return p.Name + "!" }

// model exposes every name through Get.
type model map[string]any

func (m model) Get(name string) any { return "got:" + name }

// collection exposes elements by position only.
type collection struct{ items []string }

func (c collection) At(i int) any {
	if i < len(c.items) {
		return "at:" + c.items[i]
	}

	return nil
}

// sliceCollection is a collection whose elements are also plain members.
type sliceCollection []string

func (c sliceCollection) At(int) any { return "at" }

// both is a model and a collection; Get must be skipped.
type both struct{}

func (both) Get(string) any { return "get" }
func (both) At(int) any     { return "at" }

// custom replaces plain member access.
type custom struct{}

func (custom) Access(name string) (any, bool) {
	if name == "magic" {
		return 42, true
	}

	return nil, false
}

func TestNameLookupPlain(t *testing.T) {
	p := person{Name: "Ann", Nickname: "A", Tags: []string{"x", "y"}, secret: "s"}

	tests := []struct {
		name string
		base any
		key  string
		want any
	}{
		{"map key", map[string]any{"a": 1}, "a", 1},
		{"map miss", map[string]any{"a": 1}, "b", nil},
		{"map any key", map[any]any{"a": "v"}, "a", "v"},
		{"map int key", map[int]string{3: "three"}, "3", "three"},
		{"map length", map[string]int{"a": 1, "b": 2}, "length", 2},
		{"map length key wins", map[string]int{"length": 9}, "length", 9},
		{"field", p, "Name", "Ann"},
		{"field lower", p, "name", "Ann"},
		{"field tag", p, "nick", "A"},
		{"unexported", p, "secret", nil},
		{"method", p, "Greeting", "hi Ann"},
		{"method lower", p, "greeting", "hi Ann"},
		{"pointer field", &p, "Name", "Ann"},
		{"pointer method", &p, "Shout", "Ann!"},
		{"value lacks pointer method", p, "Shout", nil},
		{"slice index", []int{5, 6}, "1", 6},
		{"slice out of range", []int{5, 6}, "2", nil},
		{"slice length", []int{5, 6}, "length", 2},
		{"string length", "abc", "length", 3},
		{"nested slice", p, "Tags", []string{"x", "y"}},
		{"nil base", nil, "a", nil},
		{"nil pointer", (*person)(nil), "Name", nil},
		{"scalar", 7, "a", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NameLookup(tt.base, tt.key, nil, nil)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NameLookup(%v, %q) = %#v, want %#v", tt.base, tt.key, got, tt.want)
			}
		})
	}
}

func TestNameLookupCapabilities(t *testing.T) {
	tests := []struct {
		name string
		base any
		key  string
		want any
	}{
		{"model", model{}, "anything", "got:anything"},
		{"model direct member wins", model{"k": "direct"}, "k", "direct"},
		{"collection index", collection{[]string{"a", "b"}}, "1", "at:b"},
		{"collection direct index wins", sliceCollection{"a", "b"}, "0", "a"},
		{"collection non integer", collection{[]string{"a"}}, "x", nil},
		{"collection out of range", collection{[]string{"a"}}, "7", nil},
		{"model and collection skips get", both{}, "name", nil},
		{"model and collection index", both{}, "0", "at"},
		{"custom accessor", custom{}, "magic", 42},
		{"custom accessor miss", custom{}, "other", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NameLookup(tt.base, tt.key, nil, nil)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NameLookup(%T, %q) = %#v, want %#v", tt.base, tt.key, got, tt.want)
			}
		})
	}
}

func TestInvocation(t *testing.T) {
	root := map[string]any{"root": true}
	data := map[string]any{"frame": true}

	var gotRoot, gotData any

	base := map[string]any{
		"zero": func() any { return "z" },
		"two": func(r, d any) any {
			gotRoot, gotData = r, d

			return "t"
		},
		"typed":   func() int { return 3 },
		"fails":   func() (any, error) { return "x", errors.New("no") },
		"ok":      func() (string, error) { return "fine", nil },
		"unary":   func(string) string { return "u" },
		"variadic": func(...any) any { return "v" },
	}

	tests := []struct {
		key  string
		want any
	}{
		{"zero", "z"},
		{"two", "t"},
		{"typed", 3},
		{"fails", nil},
		{"ok", "fine"},
	}

	for _, tt := range tests {
		if got := NameLookup(base, tt.key, root, data); got != tt.want {
			t.Errorf("%s: got %#v, want %#v", tt.key, got, tt.want)
		}
	}

	if !reflect.DeepEqual(gotRoot, root) || !reflect.DeepEqual(gotData, data) {
		t.Errorf("two-argument call got (%v, %v)", gotRoot, gotData)
	}

	for _, key := range []string{"unary", "variadic"} {
		if got := NameLookup(base, key, root, data); reflect.ValueOf(got).Kind() != reflect.Func {
			t.Errorf("%s: expected the function itself, got %#v", key, got)
		}
	}

	bare := Resolver{Convention: CallBare}
	gotRoot, gotData = "unset", "unset"

	if got := bare.NameLookup(base, "two", root, data); got != "t" {
		t.Errorf("bare call = %#v", got)
	}

	if gotRoot != nil || gotData != nil {
		t.Errorf("bare call passed (%v, %v), want zero values", gotRoot, gotData)
	}
}

func TestEvaluateProperty(t *testing.T) {
	ctx := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": "deep"}},
		"list": []any{
			map[string]any{"name": "first"},
		},
	}
	data := map[string]any{"index": 4, "root": ctx}

	tests := []struct {
		name     string
		segments []string
		want     any
	}{
		{"empty", nil, ctx},
		{"single", []string{"a"}, ctx["a"]},
		{"deep", []string{"a", "b", "c"}, "deep"},
		{"through slice", []string{"list", "0", "name"}, "first"},
		{"miss stops", []string{"nope", "b"}, nil},
		{"tilde data", []string{"~index"}, 4},
		{"at data", []string{"@index"}, 4},
		{"data traversal", []string{"~root", "a", "b", "c"}, "deep"},
		{"data itself", []string{"~"}, data},
		{"data parent", []string{"@", "", "index"}, 4},
		{"data miss", []string{"~nope"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateProperty(ctx, data, tt.segments)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EvaluateProperty(%q) = %#v, want %#v", tt.segments, got, tt.want)
			}
		})
	}
}

func TestEvaluatePropertyDoesNotMutate(t *testing.T) {
	segments := []string{"~index", "x"}
	saved := slices.Clone(segments)

	_ = EvaluateProperty(nil, map[string]any{"index": 1}, segments)

	if !slices.Equal(segments, saved) {
		t.Errorf("segments mutated: %q", segments)
	}
}

func TestEvaluatePropertyInvokesWithRoot(t *testing.T) {
	var seen any

	ctx := map[string]any{
		"child": map[string]any{
			"fn": func(root, _ any) any {
				seen = root

				return "ok"
			},
		},
	}

	if got := EvaluateProperty(ctx, nil, []string{"child", "fn"}); got != "ok" {
		t.Fatalf("got %#v", got)
	}

	if !reflect.DeepEqual(seen, ctx) {
		t.Errorf("invocable received %#v, want the root context", seen)
	}
}

func TestConvention(t *testing.T) {
	if ParseConvention("BARE") != CallBare || ParseConvention("x") != CallWithFrame {
		t.Error("ParseConvention")
	}

	for _, c := range []Convention{CallWithFrame, CallBare} {
		if ParseConvention(c.String()) != c {
			t.Errorf("%v does not round trip", c)
		}
	}
}

// keyedValue answers Get through a value receiver, so a nil *keyedValue
// still satisfies Model.
type keyedValue struct{}

func (keyedValue) Get(string) any { return "got" }

func TestEvaluatePropertyTypedNil(t *testing.T) {
	tests := []struct {
		name     string
		ctx      any
		segments []string
	}{
		{"value method", map[string]any{"u": (*person)(nil)}, []string{"u", "greeting"}},
		{"pointer method", map[string]any{"u": (*person)(nil)}, []string{"u", "shout"}},
		{"field", map[string]any{"u": (*person)(nil)}, []string{"u", "name"}},
		{"model", map[string]any{"m": (*keyedValue)(nil)}, []string{"m", "x"}},
		{"root", (*person)(nil), []string{"greeting"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateProperty(tt.ctx, nil, tt.segments); got != nil {
				t.Errorf("EvaluateProperty(%v) = %#v, want nil", tt.segments, got)
			}
		})
	}
}
