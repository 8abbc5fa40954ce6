// Package redisstore keeps collections in Redis. Every record is a JSON value at
// {prefix}:{collection}:{id}; the list at {prefix}:{collection} holds the ids in insertion order.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/saddemm/Projet-Badel/store"
)

type Store struct {
	rdb        *redis.Client
	prefix     string
	collection string
}

// Options are the connection settings for NewClient.
type Options struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func New(rdb *redis.Client, prefix, collection string) *Store {
	return &Store{rdb: rdb, prefix: prefix, collection: collection}
}

func (s *Store) indexKey() string {
	if s.prefix == "" {
		return s.collection
	}
	return s.prefix + ":" + s.collection
}

func (s *Store) recordKey(id string) string {
	return s.indexKey() + ":" + id
}

func (s *Store) FindAll(ctx context.Context) ([]*store.Record, error) {
	ids, err := s.rdb.LRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, store.Fail("find", s.collection, err)
	}

	out := make([]*store.Record, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, store.Fail("find", s.collection, err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a value: the record is being deleted.
			continue
		}
		rec, err := decode(ids[i], raw)
		if err != nil {
			return nil, store.Fail("find", s.collection, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*store.Record, bool, error) {
	raw, err := s.rdb.Get(ctx, s.recordKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, store.Fail("findById", s.collection, err)
	}

	rec, err := decode(id, raw)
	if err != nil {
		return nil, false, store.Fail("findById", s.collection, err)
	}
	return rec, true, nil
}

func (s *Store) Create(ctx context.Context, fields *store.Document) (*store.Record, error) {
	rec := &store.Record{ID: uuid.NewString(), Fields: store.StripIdentity(fields.Clone())}

	value, err := json.Marshal(rec.Fields)
	if err != nil {
		return nil, store.Fail("create", s.collection, err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(rec.ID), value, 0)
		pipe.RPush(ctx, s.indexKey(), rec.ID)
		return nil
	})
	if err != nil {
		return nil, store.Fail("create", s.collection, err)
	}
	return rec, nil
}

func (s *Store) MergeUpdate(ctx context.Context, existing *store.Record, fields *store.Document) (*store.Record, error) {
	merged := existing.Clone()
	merged.Fields.Merge(store.StripIdentity(fields.Clone()))

	value, err := json.Marshal(merged.Fields)
	if err != nil {
		return nil, store.Fail("update", s.collection, err)
	}

	// SetXX leaves keys that no longer exist alone
	ok, err := s.rdb.SetXX(ctx, s.recordKey(existing.ID), value, redis.KeepTTL).Result()
	if err != nil {
		return nil, store.Fail("update", s.collection, err)
	}
	if !ok {
		return nil, store.Fail("update", s.collection, store.ErrNotFound)
	}
	return merged, nil
}

func (s *Store) Delete(ctx context.Context, existing *store.Record) error {
	var del *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.recordKey(existing.ID))
		pipe.LRem(ctx, s.indexKey(), 0, existing.ID)
		return nil
	})
	if err != nil {
		return store.Fail("delete", s.collection, err)
	}
	if del.Val() == 0 {
		return store.Fail("delete", s.collection, store.ErrNotFound)
	}
	return nil
}

func decode(id, raw string) (*store.Record, error) {
	doc := store.NewDocument()
	if err := json.Unmarshal([]byte(raw), doc); err != nil {
		return nil, err
	}
	return &store.Record{ID: id, Fields: doc}, nil
}
