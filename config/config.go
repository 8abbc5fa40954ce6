// Package config loads the server configuration from a YAML file, with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverBolt   = "bolt"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Config struct {
	Listen           string     `yaml:"listen"`
	GinMode          string     `yaml:"gin_mode"`
	Log              Log        `yaml:"log"`
	ClientDir        string     `yaml:"client_dir"`
	Store            Store      `yaml:"store"`
	Resources        []Resource `yaml:"resources"`
	ValidationStatus int        `yaml:"validation_status"`
}

type Log struct {
	// Pipeline logs every stage of every request pipeline.
	Pipeline bool `yaml:"pipeline"`
	// Requests enables gin's access log.
	Requests bool `yaml:"requests"`
}

type Store struct {
	Driver string `yaml:"driver"`
	Mongo  Mongo  `yaml:"mongo"`
	Bolt   Bolt   `yaml:"bolt"`
	Redis  Redis  `yaml:"redis"`
}

type Mongo struct {
	URI      string        `yaml:"uri"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Bolt struct {
	Path string `yaml:"path"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Resource is a collection exposed under /api/{name}.
type Resource struct {
	Name string `yaml:"name"`
	// Schema is an optional JSON schema that created and updated records must satisfy.
	Schema map[string]any `yaml:"schema,omitempty"`
}

// Default returns the configuration of a development server.
func Default() *Config {
	return &Config{
		Listen:  ":9000",
		GinMode: "debug",
		Log: Log{
			Pipeline: false,
			Requests: true,
		},
		Store: Store{
			Driver: DriverMongo,
			Mongo: Mongo{
				URI:      "mongodb://localhost:27017",
				Database: "projetbadel-dev",
				Timeout:  10 * time.Second,
			},
			Bolt: Bolt{Path: "badel.db"},
			Redis: Redis{
				Addr:   "localhost:6379",
				Prefix: "badel",
			},
		},
		Resources: []Resource{
			{Name: "announces"},
			{Name: "wishlists"},
			{Name: "scrappes"},
		},
		ValidationStatus: 500,
	}
}

// Load reads the file at path over the defaults and applies environment overrides.
// An empty path loads the defaults only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if port, ok := lookup("PORT"); ok && port != "" {
		c.Listen = ":" + port
	}
	if v, ok := lookup("BADEL_LISTEN"); ok && v != "" {
		c.Listen = v
	}
	if v, ok := lookup("BADEL_STORE_DRIVER"); ok && v != "" {
		c.Store.Driver = v
	}
	if v, ok := lookup("BADEL_MONGO_URI"); ok && v != "" {
		c.Store.Mongo.URI = v
	}
	if v, ok := lookup("BADEL_REDIS_ADDR"); ok && v != "" {
		c.Store.Redis.Addr = v
	}
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.Mongo.URI == "" || c.Store.Mongo.Database == "" {
			errs = append(errs, errors.New("store.mongo: uri and database are required"))
		}
	case DriverBolt:
		if c.Store.Bolt.Path == "" {
			errs = append(errs, errors.New("store.bolt: path is required"))
		}
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis: addr is required"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("gin_mode: unknown mode %q", c.GinMode))
	}

	if len(c.Resources) == 0 {
		errs = append(errs, errors.New("resources: at least one resource is required"))
	}
	seen := make(map[string]bool, len(c.Resources))
	for i, r := range c.Resources {
		switch {
		case r.Name == "":
			errs = append(errs, fmt.Errorf("resources[%d]: name is required", i))
		case seen[r.Name]:
			errs = append(errs, fmt.Errorf("resources[%d]: duplicate resource %q", i, r.Name))
		}
		seen[r.Name] = true
	}

	if c.ValidationStatus < 400 || c.ValidationStatus > 599 {
		errs = append(errs, fmt.Errorf("validation_status: %d is not an error status", c.ValidationStatus))
	}

	return errors.Join(errs...)
}

// Resource returns the resource named name.
func (c *Config) Resource(name string) (Resource, bool) {
	for _, r := range c.Resources {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}
