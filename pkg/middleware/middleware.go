// Package middleware provides an ordered HTTP middleware stack and the
// request middleware used by the API module.
package middleware

import "net/http"

// Stack holds an ordered list of middleware applied outermost-first.
type Stack struct {
	chain []func(http.Handler) http.Handler
}

// Use appends middleware to the stack.
func (s *Stack) Use(mw func(http.Handler) http.Handler) {
	s.chain = append(s.chain, mw)
}

// Apply wraps handler with the stack; the first registered middleware is
// the outermost wrapper.
func (s *Stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.chain) - 1; i >= 0; i-- {
		handler = s.chain[i](handler)
	}
	return handler
}
