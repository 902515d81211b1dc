package vars

import (
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"
)

// DefaultBucket is used when OpenBolt is given an empty bucket name.
const DefaultBucket = "testdata"

// BoltPersister stores persisted variables in a bbolt file so the next run can
// seed its test data from them.
type BoltPersister struct {
	db     *bolt.DB
	bucket []byte
	mu     sync.RWMutex
}

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path, bucket string) (*BoltPersister, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
	}

	return &BoltPersister{db: db, bucket: []byte(bucket)}, nil
}

// Persist implements Persister.
func (p *BoltPersister) Persist(key string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).Put([]byte(key), data)
	})
}

// Get returns a single persisted value.
func (p *BoltPersister) Get(key string) (interface{}, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var (
		out   interface{}
		found bool
	)
	err := p.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(p.bucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &out)
	})
	return out, found, err
}

// Load returns every persisted value, decoded from JSON.
func (p *BoltPersister) Load() (map[string]interface{}, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(map[string]interface{})
	err := p.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).ForEach(func(k, v []byte) error {
			var val interface{}
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("unmarshal key %s: %w", string(k), err)
			}
			result[string(k)] = val
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes key.
func (p *BoltPersister) Delete(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).Delete([]byte(key))
	})
}

// Close closes the database.
func (p *BoltPersister) Close() error {
	return p.db.Close()
}
