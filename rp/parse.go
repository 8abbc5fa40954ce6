package rp

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

// BindJSON decodes the request body into a value produced by newObj.
// newObj is called once per request so that concurrent requests never share the target.
// An empty body leaves the value as newObj returned it.
func BindJSON(newObj func() any) *Stage {
	return &Stage{

		Name: "Req.Body =>",

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			obj := newObj()
			if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			return obj, nil
		},

		E: func(err error) *StageError {
			return &StageError{
				Code: BR,
				Obj:  H{"error": "Invalid request: " + err.Error()},
			}
		},
	}
}

func URLParam(key string) *Stage {
	return &Stage{

		Name: `Req.URL("` + key + `") =>`,

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			return c.Param(key), nil
		},
	}
}
