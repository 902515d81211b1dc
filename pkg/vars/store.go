// Package vars holds the interpreter's variable store: values captured by one
// check and read back by later blocks through {{name}} templates.
package vars

import (
	"sort"

	"github.com/devicelab-dev/screen-expect/pkg/logger"
)

// Persister receives values that must outlive the interpreter.
type Persister interface {
	Persist(key string, value interface{}) error
}

// Store maps variable names to their last captured value.
// It is not safe for concurrent use; one validation at a time.
type Store struct {
	values    map[string]interface{}
	persister Persister
}

// New creates an empty store.
func New() *Store {
	return &Store{values: make(map[string]interface{})}
}

// SetPersister attaches p; persisting writes are forwarded to it.
func (s *Store) SetPersister(p Persister) {
	s.persister = p
}

type storeOptions struct {
	persistTo map[string]interface{}
	persist   bool
}

// StoreOption configures a single Store call.
type StoreOption func(*storeOptions)

// PersistTo mirrors the value into data (usually the caller's test data).
func PersistTo(data map[string]interface{}) StoreOption {
	return func(o *storeOptions) { o.persistTo = data }
}

// Persist toggles mirroring. Defaults to true.
func Persist(persist bool) StoreOption {
	return func(o *storeOptions) { o.persist = persist }
}

// Store overwrites key with value. With PersistTo and persist enabled the value
// is also written into the target map and to the attached Persister.
func (s *Store) Store(key string, value interface{}, opts ...StoreOption) error {
	o := storeOptions{persist: true}
	for _, opt := range opts {
		opt(&o)
	}

	s.values[key] = value
	logger.Debug("stored variable %s = %v", key, value)

	if o.persistTo == nil || !o.persist {
		return nil
	}
	o.persistTo[key] = value
	if s.persister != nil {
		return s.persister.Persist(key, value)
	}
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (interface{}, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether key has been stored.
func (s *Store) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Clear removes every entry. Persisted copies are untouched.
func (s *Store) Clear() {
	s.values = make(map[string]interface{})
}

// Dump returns a shallow copy of all entries.
func (s *Store) Dump() map[string]interface{} {
	out := make(map[string]interface{}, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.values)
}

// Keys returns the stored names in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
