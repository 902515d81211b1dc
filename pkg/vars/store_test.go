package vars

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStore_LastWriteWins(t *testing.T) {
	s := New()
	if err := s.Store("count", 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Store("count", 5); err != nil {
		t.Fatal(err)
	}

	got, ok := s.Get("count")
	if !ok || got != 5 {
		t.Errorf("Get(count) = %v, %v; want 5, true", got, ok)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStore_PersistTo(t *testing.T) {
	tests := []struct {
		name    string
		opts    []StoreOption
		wantHas bool
	}{
		{"no target", nil, false},
		{"target default persist", []StoreOption{}, true},
		{"target persist disabled", []StoreOption{Persist(false)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			data := map[string]interface{}{}
			opts := tt.opts
			if opts != nil {
				opts = append([]StoreOption{PersistTo(data)}, opts...)
			}
			if err := s.Store("token", "abc", opts...); err != nil {
				t.Fatal(err)
			}
			_, has := data["token"]
			if has != tt.wantHas {
				t.Errorf("data has token = %v, want %v", has, tt.wantHas)
			}
			if !s.Has("token") {
				t.Error("store should always hold the value")
			}
		})
	}
}

type recordingPersister struct {
	got map[string]interface{}
	err error
}

func (r *recordingPersister) Persist(key string, value interface{}) error {
	if r.got == nil {
		r.got = map[string]interface{}{}
	}
	r.got[key] = value
	return r.err
}

func TestStore_ForwardsToPersister(t *testing.T) {
	s := New()
	p := &recordingPersister{}
	s.SetPersister(p)

	if err := s.Store("plain", 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Store("kept", 2, PersistTo(map[string]interface{}{})); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(map[string]interface{}{"kept": 2}, p.got); diff != "" {
		t.Errorf("persisted values mismatch (-want +got):\n%s", diff)
	}

	p.err = errors.New("disk full")
	if err := s.Store("kept", 3, PersistTo(map[string]interface{}{})); err == nil {
		t.Error("expected persister error to surface")
	}
}

func TestStore_DumpIsCopy(t *testing.T) {
	s := New()
	_ = s.Store("a", 1)
	dump := s.Dump()
	dump["a"] = 2

	if v, _ := s.Get("a"); v != 1 {
		t.Errorf("Dump() leaked internal map, a = %v", v)
	}
}

func TestStore_ClearAndKeys(t *testing.T) {
	s := New()
	_ = s.Store("b", 1)
	_ = s.Store("a", 1)

	if diff := cmp.Diff([]string{"a", "b"}, s.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	s.Clear()
	if s.Len() != 0 || s.Has("a") {
		t.Error("Clear() left entries behind")
	}
}

func newTestBolt(t *testing.T) *BoltPersister {
	t.Helper()
	p, err := OpenBolt(filepath.Join(t.TempDir(), "vars.db"), "")
	if err != nil {
		t.Fatalf("OpenBolt() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestBoltPersister_RoundTrip(t *testing.T) {
	p := newTestBolt(t)

	values := map[string]interface{}{
		"name":    "alice",
		"count":   float64(3),
		"active":  true,
		"profile": map[string]interface{}{"id": "42"},
		"tags":    []interface{}{"a", "b"},
	}
	for k, v := range values {
		if err := p.Persist(k, v); err != nil {
			t.Fatalf("Persist(%s) error = %v", k, err)
		}
	}

	got, err := p.Load()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(values, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	v, found, err := p.Get("name")
	if err != nil || !found || v != "alice" {
		t.Errorf("Get(name) = %v, %v, %v", v, found, err)
	}

	if err := p.Delete("name"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := p.Get("name"); found {
		t.Error("Delete() did not remove key")
	}
}

func TestBoltPersister_WithStore(t *testing.T) {
	p := newTestBolt(t)
	s := New()
	s.SetPersister(p)

	data := map[string]interface{}{}
	if err := s.Store("isLoggedIn", true, PersistTo(data)); err != nil {
		t.Fatal(err)
	}

	v, found, err := p.Get("isLoggedIn")
	if err != nil || !found || v != true {
		t.Errorf("persisted isLoggedIn = %v, %v, %v", v, found, err)
	}
}
