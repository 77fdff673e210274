// Package router assembles versioned route groups on a gin engine.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar registers its routes under a parent group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under /api/<version>. Middleware given with
// WithMiddleware runs for the versioned API only, not /health or /metrics.
type Router struct {
	engine     *gin.Engine
	version    string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

type RouterOption func(*Router)

func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.version = version }
}

func WithMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) { r.middleware = append(r.middleware, mw...) }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/"+r.version, r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// Route is one endpoint, used to list what a group exposes
type Route struct {
	Method string
	Path   string
}

// DomainGroup is a route tree built up front and mounted later, so the
// same tree can be listed with Routes and registered on an engine.
type DomainGroup struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
	children   []*DomainGroup
}

type route struct {
	Route
	handlers []gin.HandlerFunc
}

func NewDomainGroup(prefix string, mw ...gin.HandlerFunc) *DomainGroup {
	return &DomainGroup{prefix: prefix, middleware: mw}
}

// Use adds middleware to this group and everything below it
func (dg *DomainGroup) Use(mw ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, mw...)
	return dg
}

func (dg *DomainGroup) GET(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, relativePath, handlers)
}

func (dg *DomainGroup) POST(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, relativePath, handlers)
}

func (dg *DomainGroup) PUT(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPut, relativePath, handlers)
}

func (dg *DomainGroup) handle(method, relativePath string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, route{Route: Route{Method: method, Path: relativePath}, handlers: handlers})
	return dg
}

// Group adds a child mounted below this group's prefix
func (dg *DomainGroup) Group(prefix string, mw ...gin.HandlerFunc) *DomainGroup {
	child := NewDomainGroup(prefix, mw...)
	dg.children = append(dg.children, child)
	return child
}

func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, rt := range dg.routes {
		group.Handle(rt.Method, rt.Path, rt.handlers...)
	}
	for _, child := range dg.children {
		child.RegisterRoutes(group)
	}
}

// Routes lists every endpoint of the tree relative to its parent, in
// registration order with a group's own routes before its children's.
func (dg *DomainGroup) Routes() []Route {
	var out []Route
	for _, rt := range dg.routes {
		out = append(out, Route{Method: rt.Method, Path: path.Join(dg.prefix, rt.Path)})
	}
	for _, child := range dg.children {
		for _, rt := range child.Routes() {
			out = append(out, Route{Method: rt.Method, Path: path.Join(dg.prefix, rt.Path)})
		}
	}
	return out
}
