// Package server assembles the gin engine serving every configured resource under /api.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/saddemm/Projet-Badel/config"
	"github.com/saddemm/Projet-Badel/crud"
	"github.com/saddemm/Projet-Badel/rp"
	"github.com/saddemm/Projet-Badel/store"
)

const APIPrefix = "/api"

// NewEngine builds the engine. Every resource in cfg must have a store in stores.
func NewEngine(cfg *config.Config, stores map[string]store.Store) (*gin.Engine, error) {
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Log.Requests {
		r.Use(gin.Logger())
	}

	var lgr rp.Logger = rp.NopLogger{}
	if cfg.Log.Pipeline {
		lgr = rp.DefaultLogger{}
	}

	api := r.Group(APIPrefix)
	for _, res := range cfg.Resources {
		s, ok := stores[res.Name]
		if !ok {
			return nil, errors.New("no store for resource " + res.Name)
		}
		crud.New(res.Name, s,
			crud.WithLogger(lgr),
			crud.WithValidationStatus(cfg.ValidationStatus),
		).Register(api)
	}

	if cfg.ClientDir != "" {
		r.NoRoute(clientFallback(cfg.ClientDir))
	}

	return r, nil
}

// clientFallback serves the single page client: existing files as is, anything else as index.html.
// Unknown /api paths still get a 404.
func clientFallback(dir string) gin.HandlerFunc {
	index := filepath.Join(dir, "index.html")

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, APIPrefix+"/") || c.Request.URL.Path == APIPrefix {
			c.Status(http.StatusNotFound)
			return
		}

		file := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
		if fi, err := os.Stat(file); err == nil && !fi.IsDir() {
			c.File(file)
			return
		}
		c.File(index)
	}
}

// Run serves engine on cfg.Listen until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, engine http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", cfg.Listen)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Print("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
