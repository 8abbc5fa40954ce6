package rp

import (
	"errors"

	"github.com/gin-gonic/gin"
)

var ErrNotInContext = errors.New("key not found in context")

// CtxGet outputs the context value stored at key, ignoring its input.
func CtxGet(key string) *Stage {
	return &Stage{

		Name: `["` + key + `"] =>`,

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			val, ok := c.Get(key)
			if !ok {
				return nil, ErrNotInContext
			}
			return val, nil
		},

		E: func(err error) *StageError {
			return &StageError{
				Code: ISR,
				Obj:  H{"error": "Key not found: " + key},
			}
		},
	}
}

// CtxSet stores its input in the context at key and passes it through.
func CtxSet(key string) *Stage {
	return &Stage{

		Name: `  => ["` + key + `"]`,

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			c.Set(key, in)
			return in, nil
		},
	}
}
