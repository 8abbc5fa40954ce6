// Package boltstore persists collections in an embedded bolt database, one bucket per collection.
// Ids are the bucket's sequence numbers in decimal, so records are listed in insertion order.
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/boltdb/bolt"

	"github.com/saddemm/Projet-Badel/store"
)

// Open opens (or creates) the bolt database file at path.
func Open(path string) (*bolt.DB, error) {
	return bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
}

type Store struct {
	DB     *bolt.DB
	bucket []byte
}

func New(db *bolt.DB, collection string) *Store {
	return &Store{DB: db, bucket: []byte(collection)}
}

func (s *Store) collection() string {
	return string(s.bucket)
}

func (s *Store) FindAll(ctx context.Context) ([]*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.Fail("find", s.collection(), err)
	}

	out := make([]*store.Record, 0)
	err := s.DB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := decode(k, v)
			if err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, store.Fail("find", s.collection(), err)
	}
	return out, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*store.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, store.Fail("findById", s.collection(), err)
	}

	key, err := idToBytes(id)
	if err != nil {
		return nil, false, store.Fail("findById", s.collection(), err)
	}

	var rec *store.Record
	err = s.DB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return nil
		}
		v := bucket.Get(key)
		if v == nil {
			return nil
		}
		rec, err = decode(key, v)
		return err
	})
	if err != nil {
		return nil, false, store.Fail("findById", s.collection(), err)
	}
	return rec, rec != nil, nil
}

func (s *Store) Create(ctx context.Context, fields *store.Document) (*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.Fail("create", s.collection(), err)
	}

	rec := &store.Record{Fields: store.StripIdentity(fields.Clone())}
	err := s.DB.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}

		value, err := json.Marshal(rec.Fields)
		if err != nil {
			return err
		}

		rec.ID = strconv.FormatUint(seq, 10)
		return bucket.Put(uintToBytes(seq), value)
	})
	if err != nil {
		return nil, store.Fail("create", s.collection(), err)
	}
	return rec, nil
}

func (s *Store) MergeUpdate(ctx context.Context, existing *store.Record, fields *store.Document) (*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.Fail("update", s.collection(), err)
	}

	key, err := idToBytes(existing.ID)
	if err != nil {
		return nil, store.Fail("update", s.collection(), err)
	}

	var merged *store.Record
	err = s.DB.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return store.ErrNotFound
		}
		v := bucket.Get(key)
		if v == nil {
			return store.ErrNotFound
		}

		current, err := decode(key, v)
		if err != nil {
			return err
		}
		current.Fields.Merge(store.StripIdentity(fields.Clone()))

		value, err := json.Marshal(current.Fields)
		if err != nil {
			return err
		}
		merged = current
		return bucket.Put(key, value)
	})
	if err != nil {
		return nil, store.Fail("update", s.collection(), err)
	}
	return merged, nil
}

func (s *Store) Delete(ctx context.Context, existing *store.Record) error {
	if err := ctx.Err(); err != nil {
		return store.Fail("delete", s.collection(), err)
	}

	key, err := idToBytes(existing.ID)
	if err != nil {
		return store.Fail("delete", s.collection(), err)
	}

	err = s.DB.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil || bucket.Get(key) == nil {
			return store.ErrNotFound
		}
		return bucket.Delete(key)
	})
	return store.Fail("delete", s.collection(), err)
}

// Truncate drops the whole collection.
func (s *Store) Truncate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.DB.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(s.bucket) != nil {
			return tx.DeleteBucket(s.bucket)
		}
		return nil
	})
}

func decode(key, value []byte) (*store.Record, error) {
	doc := store.NewDocument()
	if err := json.Unmarshal(value, doc); err != nil {
		return nil, err
	}
	return &store.Record{
		ID:     strconv.FormatUint(binary.BigEndian.Uint64(key), 10),
		Fields: doc,
	}, nil
}

// idToBytes accepts ids exactly as the store renders them, so "01" never addresses record 1.
func idToBytes(id string) ([]byte, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || strconv.FormatUint(n, 10) != id {
		return nil, fmt.Errorf("malformed id %q", id)
	}
	return uintToBytes(n), nil
}

func uintToBytes(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
