// Package screen defines the screen-object contract: a named bag of locators,
// locator factories and action/query methods for one UI screen.
//
// The interpreter only looks members up by name and invokes them; it never
// builds or mutates a screen.
package screen

import (
	"reflect"
	"sort"
	"unicode"
)

// Screen exposes named members.
type Screen interface {
	// Lookup returns the member called name.
	Lookup(name string) (Member, bool)
	// Names lists every member name, sorted.
	Names() []string
}

// Map is a Screen backed by a plain map. Values may be locators, elements,
// scalars or functions.
type Map map[string]interface{}

// FromMap wraps m.
func FromMap(m map[string]interface{}) Map {
	return Map(m)
}

// Lookup implements Screen.
func (m Map) Lookup(name string) (Member, bool) {
	v, ok := m[name]
	if !ok {
		return Member{}, false
	}
	return NewMember(name, v), true
}

// Names implements Screen.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Struct is a Screen that reflects over the exported fields and methods of a
// Go value. Members are reachable by their Go name or its lowerCamel form, so
// a document can say `loginButton` for field LoginButton.
type Struct struct {
	v       reflect.Value
	members map[string]reflect.Value
	names   []string
}

// FromStruct wraps a struct or pointer to struct. Methods are taken from the
// method set of v as passed, so pass a pointer to reach pointer-receiver methods.
func FromStruct(v interface{}) *Struct {
	rv := reflect.ValueOf(v)
	s := &Struct{v: rv, members: make(map[string]reflect.Value)}

	for i := 0; i < rv.NumMethod(); i++ {
		s.add(rv.Type().Method(i).Name, rv.Method(i))
	}

	sv := rv
	for sv.Kind() == reflect.Pointer && !sv.IsNil() {
		sv = sv.Elem()
	}
	if sv.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(sv.Type()) {
			if !f.IsExported() || f.Anonymous {
				continue
			}
			s.add(f.Name, sv.FieldByIndex(f.Index))
		}
	}

	sort.Strings(s.names)
	return s
}

func (s *Struct) add(goName string, v reflect.Value) {
	camel := lowerCamel(goName)
	if _, exists := s.members[camel]; !exists {
		s.names = append(s.names, camel)
	}
	s.members[goName] = v
	s.members[camel] = v
}

// Lookup implements Screen.
func (s *Struct) Lookup(name string) (Member, bool) {
	v, ok := s.members[name]
	if !ok {
		return Member{}, false
	}
	return Member{Name: name, value: v}, true
}

// Names implements Screen.
func (s *Struct) Names() []string {
	return append([]string(nil), s.names...)
}

// Wrap turns v into a Screen when it has a recognizable shape: an existing
// Screen, a map[string]interface{}, or a struct (pointer).
func Wrap(v interface{}) (Screen, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case Screen:
		return t, true
	case map[string]interface{}:
		return Map(t), true
	}
	rv := reflect.ValueOf(v)
	base := rv
	for base.Kind() == reflect.Pointer && !base.IsNil() {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return nil, false
	}
	return FromStruct(v), true
}

// Has reports whether s exposes a member called name.
func Has(s Screen, name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

func lowerCamel(name string) string {
	r := []rune(name)
	// keep acronym prefixes readable: URLField -> urlField
	i := 0
	for i < len(r) && unicode.IsUpper(r[i]) {
		if i > 0 && i+1 < len(r) && unicode.IsLower(r[i+1]) {
			break
		}
		r[i] = unicode.ToLower(r[i])
		i++
	}
	return string(r)
}
