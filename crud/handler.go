// Package crud serves the five standard REST operations of a resource over a store.Store:
//
//	GET     /{resource}        ->  index
//	POST    /{resource}        ->  create
//	GET     /{resource}/:id    ->  show
//	PUT     /{resource}/:id    ->  update
//	DELETE  /{resource}/:id    ->  destroy
//
// Update and destroy always look the record up before anything else, so an unknown id is
// reported as 404 whatever the body, and never reaches the store's mutation.
package crud

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	. "github.com/saddemm/Projet-Badel/rp"
	"github.com/saddemm/Projet-Badel/store"
)

type Handler struct {
	resource         string
	store            store.Store
	logger           Logger
	validationStatus int

	index   *Chain
	show    *Chain
	create  *Chain
	update  *Chain
	destroy *Chain
}

type Option func(*Handler)

// WithLogger sets the pipeline logger. Handlers log nothing by default.
func WithLogger(lgr Logger) Option {
	return func(h *Handler) { h.logger = lgr }
}

// WithValidationStatus sets the status returned for schema rejections. It defaults to 500,
// which reports them like any other store failure.
func WithValidationStatus(code int) Option {
	return func(h *Handler) { h.validationStatus = code }
}

// New builds the handler of resource over s.
func New(resource string, s store.Store, opts ...Option) *Handler {
	h := &Handler{
		resource:         resource,
		store:            s,
		logger:           NopLogger{},
		validationStatus: http.StatusInternalServerError,
	}
	for _, opt := range opts {
		opt(h)
	}

	name := cases.Title(language.English).String(resource)
	e := classify(h.validationStatus)

	h.index = First(
		FindAll(name, s, e)).Then(
		Respond(http.StatusOK))

	h.show = First(
		URLParam("id")).Then(
		Lookup(name, s, e)).Then(
		Respond(http.StatusOK))

	h.create = First(
		BindFields()).Then(
		StripIdentity()).Then(
		Create(name, s, e)).Then(
		Respond(http.StatusCreated))

	h.update = InSequence(
		First(
			URLParam("id")).Then(
			Lookup(name, s, e)).Then(
			CtxSet(ctxRecord)),
		First(
			BindFields()).Then(
			StripIdentity()).Then(
			CtxSet(ctxBody)),
		First(
			CtxGet(ctxRecord)).Then(
			MergeUpdate(name, s, ctxBody, e)).Then(
			Respond(http.StatusOK)),
	)

	h.destroy = First(
		URLParam("id")).Then(
		Lookup(name, s, e)).Then(
		Delete(name, s, e)).Then(
		NoContent())

	return h
}

func (h *Handler) Resource() string {
	return h.resource
}

// Routes lists the five routes, relative to the router they are registered on.
func (h *Handler) Routes() []*Route {
	collection := "/" + h.resource
	member := collection + "/:id"

	return []*Route{
		{Method: http.MethodGet, RelativePath: collection, Pipe: h.index, Logger: h.logger},
		{Method: http.MethodPost, RelativePath: collection, Pipe: h.create, Logger: h.logger},
		{Method: http.MethodGet, RelativePath: member, Pipe: h.show, Logger: h.logger},
		{Method: http.MethodPut, RelativePath: member, Pipe: h.update, Logger: h.logger},
		{Method: http.MethodDelete, RelativePath: member, Pipe: h.destroy, Logger: h.logger},
	}
}

// Register mounts the routes on router.
func (h *Handler) Register(router gin.IRouter) {
	for _, r := range h.Routes() {
		AddRoute(router, r)
	}
}

func (h *Handler) Index() gin.HandlerFunc { return MakeGinHandlerFunc(h.index, h.logger) }
func (h *Handler) Show() gin.HandlerFunc { return MakeGinHandlerFunc(h.show, h.logger) }
func (h *Handler) Create() gin.HandlerFunc { return MakeGinHandlerFunc(h.create, h.logger) }
func (h *Handler) Update() gin.HandlerFunc { return MakeGinHandlerFunc(h.update, h.logger) }
func (h *Handler) Destroy() gin.HandlerFunc { return MakeGinHandlerFunc(h.destroy, h.logger) }
