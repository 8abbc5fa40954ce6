// Package rp implements request pipelines: chains of stages that turn a gin request into a
// single HTTP response. rp stands for "request pipeline".
package rp

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// H is a shortcut for JSON response objects.
type H map[string]any

var (
	BR  = http.StatusBadRequest
	NF  = http.StatusNotFound
	ISR = http.StatusInternalServerError
)

// Stage is a step in a request pipeline. Stages are connected together as a linked list by n.
// When a pipeline is run, it executes each Stage's F function. The input to F is the output of the last Stage
// plus the request's context. The output of F is, in turn, passed into the next Stage.
// When F returns an error, it is passed in to the E function, which generates the HTTP status code and JSON
// response data that should be returned in the network response. No later stage runs after an error.
// The last Stage of a pipeline should return a *Response as the output of F.
type Stage struct {
	Name string                                                // Name of the stage, for logging
	F    func(in any, c *gin.Context, lgr Logger) (any, error) // Function to execute
	E    func(err error) *StageError                           // Network error to return for F's error
	n    *Stage                                                // Next stage
}

// S creates a generic stage that executes the given function.
// E's default code is http.StatusInternalServerError.
func S(name string, f func(any, *gin.Context, Logger) (any, error)) *Stage {
	return &Stage{
		Name: name,
		F:    f,
		E: func(err error) *StageError {
			return &StageError{
				Code: ISR,
				Obj:  H{"error": err.Error()},
			}
		},
	}
}

type Chain struct {
	First *Stage
	Last  *Stage
}

// Pipelines should be defined by sending the first Stage in to the First function and then each following
// Stage into the Then function. The pipeline definition should read like:
//
//	pipeline := First(
//	    stage0).Then(
//	    stage1).Then(
//	    stage2) ...
func First(s *Stage) *Chain {
	return &Chain{
		First: s,
		Last:  s,
	}
}

func (ch *Chain) Then(n *Stage) *Chain {
	ch.Last.n = n
	ch.Last = n
	return ch
}

// InSequence concatenates the given chains, in order, into a single chain.
// The chains are linked in place and must not be reused elsewhere.
func InSequence(chains ...*Chain) *Chain {
	if len(chains) == 0 {
		return nil
	}

	ch := &Chain{First: chains[0].First, Last: chains[0].Last}
	for _, next := range chains[1:] {
		ch.Last.n = next.First
		ch.Last = next.Last
	}
	return ch
}
