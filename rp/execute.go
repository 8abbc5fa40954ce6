package rp

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Response is the output of the last stage of a pipeline.
type Response struct {
	Code int // HTTP status code
	Obj  any // JSON response data, nil for an empty body
}

// StageError is the response produced by a failing stage.
type StageError struct {
	Code int // HTTP status code
	Obj  any // JSON response data, nil for an empty body
}

// Execute runs the stages of ch in order, feeding each stage's output into the next one.
// It stops at the first failing stage and returns its StageError.
func Execute(ch *Chain, c *gin.Context, lgr Logger) (any, *StageError) {
	if lgr == nil {
		lgr = NopLogger{}
	}

	lgr.LogMessage("Starting execution chain...")

	var d any // Data passed between successive stages
	for s := ch.First; s != nil; s = s.n {

		lgr.LogStageStart(s.Name, d)
		t := time.Now()

		var e *StageError
		d, e = s.Execute(d, c, lgr)

		lgr.LogStageComplete(e == nil, time.Since(t), s.Name, d)
		if e != nil {
			lgr.LogStageError(e)
			return nil, e
		}
	}

	return d, nil
}

// Execute executes the stage by calling the F function followed by the E function if there's an error.
// A stage without an E function fails with a bare 500.
func (s *Stage) Execute(in any, c *gin.Context, lgr Logger) (any, *StageError) {
	out, err := s.F(in, c, lgr)
	if err == nil {
		return out, nil
	}
	if s.E == nil {
		return nil, &StageError{Code: ISR, Obj: H{"error": err.Error()}}
	}
	return nil, s.E(err)
}

// Write sends code and obj as the network response. A nil obj writes the status line only.
func Write(c *gin.Context, code int, obj any) {
	if obj == nil {
		c.Status(code)
		return
	}
	c.JSON(code, obj)
}

// MakeGinHandlerFunc runs ch for every request and writes its outcome.
func MakeGinHandlerFunc(ch *Chain, lgr Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, e := Execute(ch, c, lgr)
		if e != nil {
			Write(c, e.Code, e.Obj)
			return
		}

		res, ok := o.(*Response)
		if !ok {
			Write(c, ISR, H{"error": "pipeline did not produce a response"})
			return
		}
		Write(c, res.Code, res.Obj)
	}
}
