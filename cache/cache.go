// Package cache stores raw extraction responses in a pebble database, keyed
// by a digest of the model and transcript.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/sirupsen/logrus"
)

const prefix = "extract:"

type Cache struct {
	db *pebble.DB
}

// Open creates or opens the cache directory.
func Open(dir string, log logrus.FieldLogger) (*Cache, error) {
	db, err := pebble.Open(dir, &pebble.Options{Logger: quietLogger{log}})
	if err != nil {
		return nil, fmt.Errorf("cache open %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// Key derives the cache key for one extraction request.
func Key(model, transcript string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + transcript))
	return prefix + hex.EncodeToString(sum[:])
}

// Get returns a copy of the stored value. ok is false on a miss.
func (c *Cache) Get(key string) (val []byte, ok bool, err error) {
	v, closer, err := c.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	defer closer.Close()
	return append([]byte(nil), v...), true, nil
}

func (c *Cache) Put(key string, val []byte) error {
	if err := c.db.Set([]byte(key), val, pebble.Sync); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

func (c *Cache) Close() error { return c.db.Close() }

// quietLogger demotes pebble's info chatter to debug.
type quietLogger struct{ log logrus.FieldLogger }

func (q quietLogger) Infof(format string, args ...interface{})  { q.log.Debugf(format, args...) }
func (q quietLogger) Errorf(format string, args ...interface{}) { q.log.Errorf(format, args...) }
func (q quietLogger) Fatalf(format string, args ...interface{}) { q.log.Fatalf(format, args...) }
