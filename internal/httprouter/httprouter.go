// Package httprouter implements the bespoke request router: an
// ordered list of (compiled regex, method-table) entries, first full
// match wins, each pattern anchored at end. An optional decorative URI
// marker is inserted ahead of every pattern so clients may interpose
// an arbitrary prefix before it. Named capture groups are forwarded to
// handlers via the request context.
package httprouter

import (
	"context"
	"net/http"
	"regexp"
	"sync"
)

type contextKey string

const capturesKey contextKey = "httprouter.captures"

// Captures returns the named capture groups matched for r's route, or
// an empty map if r was not served through a Router (or matched no
// named groups).
func Captures(r *http.Request) map[string]string {
	if v, ok := r.Context().Value(capturesKey).(map[string]string); ok {
		return v
	}
	return map[string]string{}
}

type route struct {
	pattern    *regexp.Regexp
	anyHandler http.Handler      // set when registered via HandleAny
	methods    map[string]http.Handler // set (non-nil) when registered via HandleMethods
}

// Router dispatches (method, path) pairs to registered handlers.
type Router struct {
	mu     sync.RWMutex
	marker string
	routes []route
}

// New returns an empty Router. marker, when non-empty, is inserted as
// `(.*?)/<marker>` ahead of every subsequently registered pattern.
func New(marker string) *Router {
	return &Router{marker: marker}
}

// HandleAny registers pattern (without its trailing `$`, which is
// added automatically) against handler for any HTTP method.
func (rt *Router) HandleAny(pattern string, handler http.Handler) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.routes = append(rt.routes, route{pattern: rt.compile(pattern), anyHandler: handler})
}

// HandleMethods registers pattern against a per-method table; a
// request whose method is not in methods, on an otherwise-matching
// path, is answered with 405 by ServeHTTP.
func (rt *Router) HandleMethods(pattern string, methods map[string]http.Handler) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.routes = append(rt.routes, route{pattern: rt.compile(pattern), methods: methods})
}

func (rt *Router) compile(pattern string) *regexp.Regexp {
	full := pattern + "$"
	if rt.marker != "" {
		full = "(?:.*?)/" + regexp.QuoteMeta(rt.marker) + full
	}
	return regexp.MustCompile("^" + full)
}

// ServeHTTP dispatches req to the first route whose pattern matches
// req.URL.Path. A path that matches no route's pattern is a 404; a
// path that matches a route whose method table excludes req.Method
// (and no route further down the list accepts it) is a 405.
func (rt *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rt.mu.RLock()
	routes := rt.routes
	rt.mu.RUnlock()

	pathMatched := false
	for _, rte := range routes {
		match := rte.pattern.FindStringSubmatch(req.URL.Path)
		if match == nil {
			continue
		}
		pathMatched = true

		handler := rte.anyHandler
		if rte.methods != nil {
			h, ok := rte.methods[req.Method]
			if !ok {
				continue
			}
			handler = h
		}
		if handler == nil {
			continue
		}

		captures := namedCaptures(rte.pattern, match)
		ctx := context.WithValue(req.Context(), capturesKey, captures)
		handler.ServeHTTP(w, req.WithContext(ctx))
		return
	}

	if pathMatched {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	http.NotFound(w, req)
}

func namedCaptures(pattern *regexp.Regexp, match []string) map[string]string {
	out := map[string]string{}
	for i, name := range pattern.SubexpNames() {
		if i == 0 || name == "" || i >= len(match) {
			continue
		}
		out[name] = match[i]
	}
	return out
}
