package crud

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saddemm/Projet-Badel/rp"
	"github.com/saddemm/Projet-Badel/store"
)

// Context keys of the update pipeline.
const (
	ctxRecord = "record"
	ctxBody   = "req.body"
)

// FindAll outputs every record of the collection.
func FindAll(name string, s store.Store, e func(error) *rp.StageError) *rp.Stage {
	return &rp.Stage{

		Name: rp.FuncStr(name+".FindAll") + " =>",

		F: func(in any, c *gin.Context, lgr rp.Logger) (any, error) {
			return s.FindAll(c.Request.Context())
		},

		E: e,
	}
}

// Lookup takes an id and outputs the matching record. An unknown id fails with store.ErrNotFound.
func Lookup(name string, s store.Store, e func(error) *rp.StageError) *rp.Stage {
	return &rp.Stage{

		Name: rp.InOut(name + ".FindByID"),

		F: func(in any, c *gin.Context, lgr rp.Logger) (any, error) {
			id, ok := in.(string)
			if !ok {
				return nil, fmt.Errorf("lookup: unexpected input %T", in)
			}

			rec, found, err := s.FindByID(c.Request.Context(), id)
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, store.ErrNotFound
			}
			return rec, nil
		},

		E: e,
	}
}

// Create takes the fields of a new record and outputs the created record.
func Create(name string, s store.Store, e func(error) *rp.StageError) *rp.Stage {
	return &rp.Stage{

		Name: rp.InOut(name + ".Create"),

		F: func(in any, c *gin.Context, lgr rp.Logger) (any, error) {
			return s.Create(c.Request.Context(), in.(*store.Document))
		},

		E: e,
	}
}

// MergeUpdate takes an existing record and overlays the fields stored in the context at ctxKey.
func MergeUpdate(name string, s store.Store, ctxKey string, e func(error) *rp.StageError) *rp.Stage {
	return &rp.Stage{

		Name: rp.InOut(rp.FuncStr(name+".MergeUpdate", ctxKey)),

		F: func(in any, c *gin.Context, lgr rp.Logger) (any, error) {
			fields, ok := c.Get(ctxKey)
			if !ok {
				return nil, rp.ErrNotInContext
			}
			return s.MergeUpdate(c.Request.Context(), in.(*store.Record), fields.(*store.Document))
		},

		E: e,
	}
}

// Delete takes an existing record and removes it.
func Delete(name string, s store.Store, e func(error) *rp.StageError) *rp.Stage {
	return &rp.Stage{

		Name: "  => " + name + ".Delete",

		F: func(in any, c *gin.Context, lgr rp.Logger) (any, error) {
			return nil, s.Delete(c.Request.Context(), in.(*store.Record))
		},

		E: e,
	}
}

// BindFields decodes the request body as a JSON object. An empty body is an empty document.
func BindFields() *rp.Stage {
	return rp.BindJSON(func() any { return store.NewDocument() })
}

// StripIdentity drops client supplied identifiers from its input document.
func StripIdentity() *rp.Stage {
	return &rp.Stage{

		Name: rp.InOut("StripIdentity"),

		F: func(in any, c *gin.Context, lgr rp.Logger) (any, error) {
			return store.StripIdentity(in.(*store.Document)), nil
		},
	}
}

// Respond wraps its input into a response with the given status code.
func Respond(code int) *rp.Stage {
	return rp.S(fmt.Sprintf("  => Respond(%d)", code), func(in any, c *gin.Context, lgr rp.Logger) (any, error) {
		if recs, ok := in.([]*store.Record); ok && recs == nil {
			in = []*store.Record{}
		}
		return &rp.Response{Code: code, Obj: in}, nil
	})
}

// NoContent ends a pipeline with an empty 204 response.
func NoContent() *rp.Stage {
	return rp.S("  => Respond(204)", func(in any, c *gin.Context, lgr rp.Logger) (any, error) {
		return &rp.Response{Code: http.StatusNoContent}, nil
	})
}

// classify maps a store failure to the response of a failing stage.
//   - absence of the addressed record: 404 with an empty body
//   - schema rejection: validationStatus with the error message
//   - anything else: 500 with the error message
func classify(validationStatus int) func(error) *rp.StageError {
	return func(err error) *rp.StageError {
		var se *store.StoreError
		var ve *store.ValidationError

		switch {
		case errors.As(err, &se):
			return &rp.StageError{Code: rp.ISR, Obj: rp.H{"error": se.Error()}}
		case errors.As(err, &ve):
			return &rp.StageError{Code: validationStatus, Obj: rp.H{"error": ve.Error()}}
		case errors.Is(err, store.ErrNotFound):
			return &rp.StageError{Code: rp.NF}
		default:
			return &rp.StageError{Code: rp.ISR, Obj: rp.H{"error": err.Error()}}
		}
	}
}
