// Package backend opens the configured store driver and builds one store.Store per resource.
package backend

import (
	"context"
	"fmt"
	"log"

	"github.com/saddemm/Projet-Badel/config"
	"github.com/saddemm/Projet-Badel/store"
	"github.com/saddemm/Projet-Badel/store/boltstore"
	"github.com/saddemm/Projet-Badel/store/memstore"
	"github.com/saddemm/Projet-Badel/store/mongostore"
	"github.com/saddemm/Projet-Badel/store/redisstore"
)

type Backend struct {
	Driver string
	Stores map[string]store.Store

	close func(ctx context.Context) error
}

// Open connects to the configured driver.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	var (
		b   *Backend
		err error
	)

	switch cfg.Store.Driver {
	case config.DriverMongo:
		b, err = openMongo(ctx, cfg)
	case config.DriverBolt:
		b, err = openBolt(cfg)
	case config.DriverRedis:
		b, err = openRedis(ctx, cfg)
	case config.DriverMemory:
		b = build(cfg, func(name string) store.Store { return memstore.New(name) })
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	b.Driver = cfg.Store.Driver
	if err := b.applySchemas(cfg); err != nil {
		_ = b.Close(ctx)
		return nil, err
	}
	return b, nil
}

func build(cfg *config.Config, newStore func(name string) store.Store) *Backend {
	b := &Backend{Stores: make(map[string]store.Store, len(cfg.Resources))}
	for _, r := range cfg.Resources {
		b.Stores[r.Name] = newStore(r.Name)
	}
	return b
}

func openMongo(ctx context.Context, cfg *config.Config) (*Backend, error) {
	mc := cfg.Store.Mongo

	connectCtx := ctx
	if mc.Timeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, mc.Timeout)
		defer cancel()
	}

	client, err := mongostore.Connect(connectCtx, mc.URI)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	log.Printf("Connected to MongoDB database %q", mc.Database)

	db := client.Database(mc.Database)
	b := build(cfg, func(name string) store.Store { return mongostore.New(db, name) })
	b.close = client.Disconnect
	return b, nil
}

func openBolt(cfg *config.Config) (*Backend, error) {
	db, err := boltstore.Open(cfg.Store.Bolt.Path)
	if err != nil {
		return nil, fmt.Errorf("open bolt database %s: %w", cfg.Store.Bolt.Path, err)
	}
	log.Printf("Opened bolt database %s", cfg.Store.Bolt.Path)

	b := build(cfg, func(name string) store.Store { return boltstore.New(db, name) })
	b.close = func(context.Context) error { return db.Close() }
	return b, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (*Backend, error) {
	rc := cfg.Store.Redis

	rdb, err := redisstore.NewClient(ctx, redisstore.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis %s: %w", rc.Addr, err)
	}
	log.Printf("Connected to Redis at %s", rc.Addr)

	b := build(cfg, func(name string) store.Store { return redisstore.New(rdb, rc.Prefix, name) })
	b.close = func(context.Context) error { return rdb.Close() }
	return b, nil
}

func (b *Backend) applySchemas(cfg *config.Config) error {
	for _, r := range cfg.Resources {
		if len(r.Schema) == 0 {
			continue
		}
		schema, err := store.CompileSchema(r.Name, r.Schema)
		if err != nil {
			return fmt.Errorf("resource %s: %w", r.Name, err)
		}
		b.Stores[r.Name] = store.Validating(b.Stores[r.Name], r.Name, schema)
	}
	return nil
}

// Close releases the driver's connections.
func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}
