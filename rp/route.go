package rp

import "github.com/gin-gonic/gin"

type Route struct {
	Method       string
	RelativePath string
	Pipe         *Chain
	Logger       Logger
}

// AddRoute registers the route's pipeline on router.
func AddRoute(router gin.IRouter, route *Route) {
	router.Handle(route.Method, route.RelativePath, route.Handler())
}

func (r *Route) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.Run(c)
	}
}

// Run runs the route's Pipe and sets the network response based on the run results.
func (r *Route) Run(c *gin.Context) {
	MakeGinHandlerFunc(r.Pipe, r.Logger)(c)
}
