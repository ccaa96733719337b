package sizestore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	sizesBucket   = []byte("sizes")
	historyBucket = []byte("history")
)

// boltBackend stores sizes as path -> (size, updated) and history as
// big-endian rank -> path.
type boltBackend struct {
	db *bolt.DB
}

func openBolt(path string) (*boltBackend, error) {
	// A timeout keeps a second instance from hanging on the file lock.
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(sizesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(historyBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &boltBackend{db: db}, nil
}

func encodeSize(size, updated int64) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], uint64(size))
	binary.BigEndian.PutUint64(buf[8:], uint64(updated))
	return buf
}

func decodeSize(v []byte) (size, updated int64, ok bool) {
	if len(v) != 16 {
		return 0, 0, false
	}
	return int64(binary.BigEndian.Uint64(v[:8])), int64(binary.BigEndian.Uint64(v[8:])), true
}

func rankKey(rank int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(rank))
	return buf
}

func (b *boltBackend) Size(path string) (size, updated int64, ok bool, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sizesBucket)
		if bucket == nil {
			return nil
		}
		size, updated, ok = decodeSize(bucket.Get([]byte(path)))
		return nil
	})
	return size, updated, ok, err
}

func (b *boltBackend) History() ([]string, error) {
	var paths []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(historyBucket)
		if bucket == nil {
			return nil
		}
		// big-endian keys iterate in rank order
		return bucket.ForEach(func(_, v []byte) error {
			paths = append(paths, string(v))
			return nil
		})
	})
	return paths, err
}

func (b *boltBackend) PutSize(path string, size, updated int64) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sizesBucket).Put([]byte(path), encodeSize(size, updated))
	})
}

func (b *boltBackend) ReplaceHistory(paths []string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(historyBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		bucket, err := tx.CreateBucket(historyBucket)
		if err != nil {
			return err
		}
		for rank, p := range paths {
			if err := bucket.Put(rankKey(rank), []byte(p)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *boltBackend) Prune(cutoff int64) (int, error) {
	removed := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sizesBucket)
		var stale [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			_, updated, ok := decodeSize(v)
			if !ok || updated < cutoff {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

func (b *boltBackend) Close() error {
	return b.db.Close()
}
