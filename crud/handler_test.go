package crud

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saddemm/Projet-Badel/store"
	"github.com/saddemm/Projet-Badel/store/boltstore"
	"github.com/saddemm/Projet-Badel/store/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(h *Handler) *gin.Engine {
	r := gin.New()
	h.Register(r.Group("/api"))
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// backend describes a store implementation the handler is run against, with the id its first
// record gets and an id that is well formed but never assigned.
type backend struct {
	name      string
	open      func(t *testing.T, collection string) store.Store
	firstID   string
	unknownID string
}

var backends = []backend{
	{
		name: "memstore",
		open: func(t *testing.T, collection string) store.Store {
			return memstore.New(collection, memstore.WithIDs(memstore.Sequential("w")))
		},
		firstID:   "w1",
		unknownID: "w42",
	},
	{
		name: "boltstore",
		open: func(t *testing.T, collection string) store.Store {
			db, err := boltstore.Open(filepath.Join(t.TempDir(), "badel.db"))
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })
			return boltstore.New(db, collection)
		},
		firstID:   "1",
		unknownID: "42",
	},
}

func TestWishlistScenario(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			r := newRouter(New("wishlists", b.open(t, "wishlists")))
			member := "/api/wishlists/" + b.firstID

			w := do(r, http.MethodPost, "/api/wishlists", `{"title":"Book"}`)
			require.Equal(t, http.StatusCreated, w.Code)
			assert.Equal(t, `{"id":"`+b.firstID+`","title":"Book"}`, w.Body.String())

			w = do(r, http.MethodGet, "/api/wishlists/0"+b.firstID, "")
			assert.NotEqual(t, http.StatusOK, w.Code, "only the exact id addresses the record")

			w = do(r, http.MethodPut, member, `{"id":"ignored","title":"Book v2"}`)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, `{"id":"`+b.firstID+`","title":"Book v2"}`, w.Body.String())

			w = do(r, http.MethodDelete, member, "")
			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Empty(t, w.Body.String())

			w = do(r, http.MethodGet, member, "")
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Empty(t, w.Body.String())
		})
	}
}

func TestIndex(t *testing.T) {
	r := newRouter(New("announces", memstore.New("announces", memstore.WithIDs(memstore.Sequential("a")))))

	w := do(r, http.MethodGet, "/api/announces", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `[]`, w.Body.String(), "an empty collection is not a 404")

	do(r, http.MethodPost, "/api/announces", `{"title":"Bike","price":120}`)
	do(r, http.MethodPost, "/api/announces", `{"title":"Desk"}`)

	w = do(r, http.MethodGet, "/api/announces", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `[{"id":"a1","title":"Bike","price":120},{"id":"a2","title":"Desk"}]`, w.Body.String())
}

func TestCreateThenShow(t *testing.T) {
	r := newRouter(New("announces", memstore.New("announces")))

	w := do(r, http.MethodPost, "/api/announces", `{"title":"Bike","tags":["sport"],"seller":{"name":"Ana"},"_id":"forged"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created store.Record
	require.NoError(t, created.UnmarshalJSON(w.Body.Bytes()))
	require.NotEmpty(t, created.ID)
	assert.NotEqual(t, "forged", created.ID)

	w = do(r, http.MethodGet, "/api/announces/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+created.ID+`","title":"Bike","tags":["sport"],"seller":{"name":"Ana"}}`, w.Body.String())
}

func TestUpdateMergesFields(t *testing.T) {
	r := newRouter(New("wishlists", memstore.New("wishlists", memstore.WithIDs(memstore.Sequential("w")))))
	do(r, http.MethodPost, "/api/wishlists", `{"title":"Book","price":10,"owner":"ana"}`)

	w := do(r, http.MethodPut, "/api/wishlists/w1", `{"_id":"w9","price":12,"note":"gift"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"id":"w1","title":"Book","price":12,"owner":"ana","note":"gift"}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/wishlists/w1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"id":"w1","title":"Book","price":12,"owner":"ana","note":"gift"}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/wishlists/w9", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "the identifier in the body is never applied")
}

func TestUnknownIDIsNotFound(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			r := newRouter(New("wishlists", b.open(t, "wishlists")))

			for _, tc := range []struct{ method, body string }{
				{http.MethodGet, ""},
				{http.MethodPut, `{"title":"x"}`},
				{http.MethodPut, ""},
				{http.MethodPut, `{"title":`},
				{http.MethodPut, `[1,2]`},
				{http.MethodDelete, ""},
			} {
				w := do(r, tc.method, "/api/wishlists/"+b.unknownID, tc.body)
				assert.Equal(t, http.StatusNotFound, w.Code, tc.method+" "+tc.body)
				assert.Empty(t, w.Body.String(), tc.method+" "+tc.body)
			}
		})
	}
}

func TestUpdateWithEmptyBody(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			r := newRouter(New("wishlists", b.open(t, "wishlists")))
			do(r, http.MethodPost, "/api/wishlists", `{"title":"Book","price":10}`)

			w := do(r, http.MethodPut, "/api/wishlists/"+b.firstID, "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, `{"id":"`+b.firstID+`","title":"Book","price":10}`, w.Body.String())

			w = do(r, http.MethodGet, "/api/wishlists/"+b.firstID, "")
			assert.Equal(t, `{"id":"`+b.firstID+`","title":"Book","price":10}`, w.Body.String())
		})
	}
}

func TestInvalidBody(t *testing.T) {
	s := memstore.New("wishlists")
	r := newRouter(New("wishlists", s))

	rec, err := s.Create(context.Background(), store.NewDocument(store.Field{Key: "title", Value: "Book"}))
	require.NoError(t, err)

	for _, body := range []string{`[1,2]`, `{"title":`, `"Book"`} {
		w := do(r, http.MethodPost, "/api/wishlists", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), "Invalid request", body)

		w = do(r, http.MethodPut, "/api/wishlists/"+rec.ID, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

// recorder wraps a store, counting mutations and failing the operations listed in fail.
type recorder struct {
	store.Store
	fail      map[string]error
	mutations int
}

func (r *recorder) FindAll(ctx context.Context) ([]*store.Record, error) {
	if err := r.fail["find"]; err != nil {
		return nil, err
	}
	return r.Store.FindAll(ctx)
}

func (r *recorder) FindByID(ctx context.Context, id string) (*store.Record, bool, error) {
	if err := r.fail["findById"]; err != nil {
		return nil, false, err
	}
	return r.Store.FindByID(ctx, id)
}

func (r *recorder) Create(ctx context.Context, fields *store.Document) (*store.Record, error) {
	if err := r.fail["create"]; err != nil {
		return nil, err
	}
	return r.Store.Create(ctx, fields)
}

func (r *recorder) MergeUpdate(ctx context.Context, existing *store.Record, fields *store.Document) (*store.Record, error) {
	r.mutations++
	if err := r.fail["update"]; err != nil {
		return nil, err
	}
	return r.Store.MergeUpdate(ctx, existing, fields)
}

func (r *recorder) Delete(ctx context.Context, existing *store.Record) error {
	r.mutations++
	if err := r.fail["delete"]; err != nil {
		return err
	}
	return r.Store.Delete(ctx, existing)
}

func TestLookupBeforeMutate(t *testing.T) {
	s := &recorder{Store: memstore.New("wishlists")}
	r := newRouter(New("wishlists", s))

	do(r, http.MethodPut, "/api/wishlists/ghost", `{"title":"x"}`)
	do(r, http.MethodDelete, "/api/wishlists/ghost", "")

	assert.Zero(t, s.mutations, "absent records are never mutated")
}

func TestStoreFailures(t *testing.T) {
	down := &store.StoreError{Op: "find", Collection: "wishlists", Err: errors.New("connection refused")}

	for _, op := range []string{"find", "findById", "create", "update", "delete"} {
		t.Run(op, func(t *testing.T) {
			base := memstore.New("wishlists", memstore.WithIDs(memstore.Sequential("w")))
			_, err := base.Create(context.Background(), store.NewDocument(store.Field{Key: "title", Value: "Book"}))
			require.NoError(t, err)

			r := newRouter(New("wishlists", &recorder{Store: base, fail: map[string]error{op: down}}))

			var codes []int
			for _, req := range []struct{ method, path, body string }{
				{http.MethodGet, "/api/wishlists", ""},
				{http.MethodGet, "/api/wishlists/w1", ""},
				{http.MethodPost, "/api/wishlists", `{"title":"Pen"}`},
				{http.MethodPut, "/api/wishlists/w1", `{"title":"Book v2"}`},
				{http.MethodDelete, "/api/wishlists/w1", ""},
			} {
				w := do(r, req.method, req.path, req.body)
				codes = append(codes, w.Code)
				if w.Code == http.StatusInternalServerError {
					assert.JSONEq(t, `{"error":"find wishlists: connection refused"}`, w.Body.String())
				}
			}

			expected := map[string][]int{
				"find":     {500, 200, 201, 200, 204},
				"findById": {200, 500, 201, 500, 500},
				"create":   {200, 200, 500, 200, 204},
				"update":   {200, 200, 201, 500, 204},
				"delete":   {200, 200, 201, 200, 500},
			}
			assert.Equal(t, expected[op], codes)
		})
	}
}

func TestValidationStatus(t *testing.T) {
	schema, err := store.CompileSchema("wishlists", map[string]any{
		"type":     "object",
		"required": []any{"title"},
	})
	require.NoError(t, err)

	s := store.Validating(memstore.New("wishlists"), "wishlists", schema)

	w := do(newRouter(New("wishlists", s)), http.MethodPost, "/api/wishlists", `{"price":3}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "wishlists validation failed")

	w = do(newRouter(New("wishlists", s, WithValidationStatus(http.StatusBadRequest))), http.MethodPost, "/api/wishlists", `{"price":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMutationOfVanishedRecordIsAServerError(t *testing.T) {
	e := classify(http.StatusInternalServerError)

	se := e(store.Fail("update", "wishlists", store.ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, se.Code)

	se = e(store.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Nil(t, se.Obj)
}

func TestRoutes(t *testing.T) {
	h := New("scrappes", memstore.New("scrappes"))
	assert.Equal(t, "scrappes", h.Resource())

	var got []string
	for _, r := range h.Routes() {
		got = append(got, r.Method+" "+r.RelativePath)
	}
	assert.Equal(t, []string{
		"GET /scrappes",
		"POST /scrappes",
		"GET /scrappes/:id",
		"PUT /scrappes/:id",
		"DELETE /scrappes/:id",
	}, got)
}

func TestHandlerFuncs(t *testing.T) {
	h := New("wishlists", memstore.New("wishlists", memstore.WithIDs(memstore.Sequential("w"))))

	r := gin.New()
	r.GET("/list", h.Index())
	r.POST("/new", h.Create())
	r.GET("/get/:id", h.Show())
	r.PUT("/set/:id", h.Update())
	r.DELETE("/del/:id", h.Destroy())

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/new", `{"title":"Book"}`).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/list", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/get/w1", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/set/w1", `{"title":"Book v2"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/del/w1", "").Code)
}
