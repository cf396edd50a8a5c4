package router

import (
	"sort"
	"strings"

	"github.com/valyala/fasthttp"
)

// Router dispatches on a tree of path segments. A segment written as
// {name} captures one non-empty path element into ctx.UserValue(name).
// Static segments win over params at the same depth.
type Router struct {
	root     *node
	notFound fasthttp.RequestHandler
}

type node struct {
	static   map[string]*node
	param    *node
	name     string
	handlers map[string]fasthttp.RequestHandler
}

func newNode() *node {
	return &node{static: map[string]*node{}}
}

// New returns an empty router.
func New() *Router {
	return &Router{root: newNode()}
}

func (r *Router) GET(path string, h fasthttp.RequestHandler)  { r.Handle(fasthttp.MethodGet, path, h) }
func (r *Router) POST(path string, h fasthttp.RequestHandler) { r.Handle(fasthttp.MethodPost, path, h) }
func (r *Router) PUT(path string, h fasthttp.RequestHandler)  { r.Handle(fasthttp.MethodPut, path, h) }
func (r *Router) DELETE(path string, h fasthttp.RequestHandler) {
	r.Handle(fasthttp.MethodDelete, path, h)
}

// NotFound replaces the default JSON 404.
func (r *Router) NotFound(h fasthttp.RequestHandler) {
	r.notFound = h
}

// Handle registers h for method on pattern. Registering a second param
// name at the same depth panics.
func (r *Router) Handle(method, pattern string, h fasthttp.RequestHandler) {
	n := r.root
	for _, part := range split(pattern) {
		if len(part) > 2 && part[0] == '{' && part[len(part)-1] == '}' {
			name := part[1 : len(part)-1]
			if n.param == nil {
				n.param = newNode()
				n.param.name = name
			} else if n.param.name != name {
				panic("router: conflicting param {" + name + "} in " + pattern)
			}
			n = n.param
			continue
		}
		child, ok := n.static[part]
		if !ok {
			child = newNode()
			n.static[part] = child
		}
		n = child
	}
	if n.handlers == nil {
		n.handlers = map[string]fasthttp.RequestHandler{}
	}
	n.handlers[method] = h
}

// Handler is the fasthttp entry point.
func (r *Router) Handler(ctx *fasthttp.RequestCtx) {
	params := map[string]string{}
	n := r.lookup(r.root, split(string(ctx.Path())), params)
	if n == nil {
		r.miss(ctx)
		return
	}
	if h, ok := n.handlers[string(ctx.Method())]; ok {
		for k, v := range params {
			ctx.SetUserValue(k, v)
		}
		h(ctx)
		return
	}
	methods := make([]string, 0, len(n.handlers))
	for m := range n.handlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	ctx.Response.Header.Set("Allow", strings.Join(methods, ", "))
	WriteJSONError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) miss(ctx *fasthttp.RequestCtx) {
	if r.notFound != nil {
		r.notFound(ctx)
		return
	}
	WriteJSONError(ctx, fasthttp.StatusNotFound, "not found")
}

// lookup walks parts depth first, backtracking from a static branch into
// the param branch when the static one dead ends.
func (r *Router) lookup(n *node, parts []string, params map[string]string) *node {
	if len(parts) == 0 {
		if len(n.handlers) == 0 {
			return nil
		}
		return n
	}
	head, rest := parts[0], parts[1:]
	if child, ok := n.static[head]; ok {
		if found := r.lookup(child, rest, params); found != nil {
			return found
		}
	}
	if n.param != nil && head != "" {
		if found := r.lookup(n.param, rest, params); found != nil {
			params[n.param.name] = head
			return found
		}
	}
	return nil
}

func split(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
