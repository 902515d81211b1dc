package mock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/screen-expect/pkg/backend"
	"github.com/devicelab-dev/screen-expect/pkg/screen"
)

// Fixture describes a fake screen in YAML:
//
//	backend: chained
//	elements:
//	  title: Welcome          # one visible element with this text
//	  rows: [a, b, c]         # a collection
//	  spinner: {text: "", visible: false}
//	indexed:
//	  rowAt: rows             # rowAt(i) returns the i-th element of rows
//	values:
//	  rowCount: 3
//	methods:
//	  getUser: {returns: {name: ann}}
//	  logout: {error: session expired}
type Fixture struct {
	Backend  string                 `yaml:"backend"`
	Elements map[string]ElementSet  `yaml:"elements"`
	Indexed  map[string]string      `yaml:"indexed"`
	Values   map[string]interface{} `yaml:"values"`
	Methods  map[string]Method      `yaml:"methods"`
}

// ElementSet is one element (mapping or scalar text) or a list of them.
type ElementSet struct {
	Items []*ElementInfo
	List  bool
}

// Method is a fake screen method.
type Method struct {
	Returns interface{} `yaml:"returns"`
	Error   string      `yaml:"error"`
}

type elementInfoRaw ElementInfo

// UnmarshalYAML accepts a bare string as the element text. Omitted visible and
// enabled flags default to true.
func (e *ElementInfo) UnmarshalYAML(node *yaml.Node) error {
	raw := elementInfoRaw{Visible: true, Enabled: true}
	if node.Kind == yaml.ScalarNode {
		raw.Text = node.Value
		*e = ElementInfo(raw)
		return nil
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*e = ElementInfo(raw)
	return nil
}

// UnmarshalYAML allows ElementSet to be a single element or a sequence.
func (s *ElementSet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		s.List = true
		return node.Decode(&s.Items)
	}
	var one ElementInfo
	if err := node.Decode(&one); err != nil {
		return err
	}
	s.Items = []*ElementInfo{&one}
	return nil
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture parses fixture YAML.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if _, err := backend.ParseKind(f.Backend); err != nil {
		return nil, err
	}
	for name, target := range f.Indexed {
		if _, ok := f.Elements[target]; !ok {
			return nil, fmt.Errorf("indexed member %s refers to unknown elements %q", name, target)
		}
	}
	return &f, nil
}

// Kind returns the fixture's backend, eager unless chained is requested.
func (f *Fixture) Kind() backend.Kind {
	k, _ := backend.ParseKind(f.Backend)
	if k == backend.KindAuto {
		return backend.KindEager
	}
	return k
}

// Screen builds the fake screen. Every driver call is recorded on rec.
func (f *Fixture) Screen(rec *Recorder) screen.Map {
	m := make(screen.Map)
	chained := f.Kind() == backend.KindChained

	locators := make(map[string]*Locator)
	lists := make(map[string]backend.ElementList)
	for _, name := range sortedKeys(f.Elements) {
		set := f.Elements[name]
		if chained {
			l := NewLocator(rec, name, set.Items...)
			locators[name] = l
			m[name] = l
			continue
		}
		list := Elements(rec, set.Items...)
		lists[name] = list
		if set.List {
			m[name] = list
		} else {
			m[name] = list[0]
		}
	}

	for name, target := range f.Indexed {
		target := target
		if chained {
			l := locators[target]
			m[name] = func(i int) backend.Locator { return l.Nth(i) }
			continue
		}
		list := lists[target]
		m[name] = func(i int) (backend.Element, error) {
			if i < 0 || i >= len(list) {
				return nil, fmt.Errorf("no element %d in %s", i, target)
			}
			return list[i], nil
		}
	}

	for name, v := range f.Values {
		m[name] = v
	}

	for name, spec := range f.Methods {
		m[name] = method(rec, name, spec)
	}

	if chained {
		m[backend.MarkerMember] = NewPage(rec, locators)
	}
	return m
}

func method(rec *Recorder, name string, spec Method) func(context.Context, ...interface{}) (interface{}, error) {
	return func(ctx context.Context, args ...interface{}) (interface{}, error) {
		if err := rec.record(ctx, "call", name); err != nil {
			return nil, err
		}
		if spec.Error != "" {
			return nil, errors.New(spec.Error)
		}
		return spec.Returns, nil
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
