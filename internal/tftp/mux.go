// Package tftp implements the TFTP engine from spec §4.1: a read-only,
// rooted file server with RFC 2347/2348 option negotiation (handled by the
// underlying pin/tftp/v3 library), WRQ rejection, and a regex router that
// splits requests between the flat TFTP root and the per-node Pi tree.
package tftp

import (
	"fmt"
	"io"
	"regexp"
	"sync"

	"github.com/go-logr/logr"
)

// Handler serves one TFTP read request.
type Handler interface {
	ServeTFTP(filename string, rf io.ReaderFrom) error
}

// HandlerFunc adapts a plain function to a Handler.
type HandlerFunc func(filename string, rf io.ReaderFrom) error

// ServeTFTP calls f.
func (f HandlerFunc) ServeTFTP(filename string, rf io.ReaderFrom) error {
	return f(filename, rf)
}

type patternHandler struct {
	pattern *regexp.Regexp
	handler Handler
}

// ServeMux routes a TFTP read request to the first handler whose pattern
// matches the requested filename, falling back to a default handler.
type ServeMux struct {
	mu             sync.RWMutex
	patterns       []patternHandler
	defaultHandler Handler
	log            logr.Logger
}

// NewServeMux returns an empty ServeMux logging through log.
func NewServeMux(log logr.Logger) *ServeMux {
	return &ServeMux{log: log}
}

// Handle registers handler for requests whose filename matches pattern.
// Handle panics if pattern does not compile.
func (mux *ServeMux) Handle(pattern string, handler Handler) {
	mux.mu.Lock()
	defer mux.mu.Unlock()

	re, err := regexp.Compile(pattern)
	if err != nil {
		panic("tftp: invalid pattern " + pattern + ": " + err.Error())
	}
	mux.patterns = append(mux.patterns, patternHandler{pattern: re, handler: handler})
}

// HandleFunc is the functional form of Handle.
func (mux *ServeMux) HandleFunc(pattern string, handler func(string, io.ReaderFrom) error) {
	mux.Handle(pattern, HandlerFunc(handler))
}

// SetDefaultHandler installs the handler used when no pattern matches.
func (mux *ServeMux) SetDefaultHandler(handler Handler) {
	mux.mu.Lock()
	defer mux.mu.Unlock()
	mux.defaultHandler = handler
}

func (mux *ServeMux) findHandler(filename string) Handler {
	mux.mu.RLock()
	defer mux.mu.RUnlock()

	for _, ph := range mux.patterns {
		if ph.pattern.MatchString(filename) {
			return ph.handler
		}
	}
	return nil
}

// ServeTFTP implements Handler by dispatching to the matching pattern, or
// the default handler, or ErrNotFound.
func (mux *ServeMux) ServeTFTP(filename string, rf io.ReaderFrom) error {
	if h := mux.findHandler(filename); h != nil {
		return h.ServeTFTP(filename, rf)
	}
	if mux.defaultHandler != nil {
		return mux.defaultHandler.ServeTFTP(filename, rf)
	}
	mux.log.V(1).Info("no tftp handler matched", "filename", filename)
	return ErrNotFound
}
