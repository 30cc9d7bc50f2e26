// Package router is the HTTP layer shared by the REST and GraphQL endpoints:
// an httprouter tree, a JSON envelope and the middleware chain.
package router

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/watarui/wauth/internal/pkg/config"
	"github.com/watarui/wauth/internal/pkg/instrument"
	"github.com/watarui/wauth/internal/pkg/jwt"
	"github.com/watarui/wauth/internal/pkg/uid"
)

// Handler returns a value to JSON encode into the success envelope, or an
// error for the error envelope.
type Handler func(r *Request) (any, error)

// Config holds what NewRouter wires into the middleware chain.
type Config struct {
	Config config.Config
	// UUID generates correlation IDs for requests that carry none.
	UUID uid.StringID
	// JWT verifies bearer tokens. Nil disables authentication.
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
}

// publicRoutes skip authentication.
var publicRoutes = map[string]map[string]struct{}{
	http.MethodGet: {"/": {}, "/health": {}},
}

// Router serves registered endpoints through recover, correlation id,
// observability, maintenance and authentication, in that order.
type Router struct {
	hr  *httprouter.Router
	mws []Middleware
}

func NewRouter(cfg Config) *Router {
	if cfg.Instrument == nil {
		cfg.Instrument = instrument.NewNoop()
	}

	r := &Router{
		hr: &httprouter.Router{
			RedirectTrailingSlash:  true,
			RedirectFixedPath:      true,
			HandleMethodNotAllowed: true,
			HandleOPTIONS:          true,
			SaveMatchedRoutePath:   true,
			NotFound:               statusHandler("endpoint not found", http.StatusNotFound),
			MethodNotAllowed:       statusHandler("method not allowed", http.StatusMethodNotAllowed),
		},
		mws: []Middleware{
			middlewareRecoverer,
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
			middlewareAuthentication(cfg.JWT, publicRoutes),
		},
	}

	r.hr.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, map[string]string{"message": "Welcome to wauth API"}, http.StatusOK)
	})

	return r
}

func statusHandler(msg string, code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, errorResponse{Message: msg}, code)
	})
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.Handle(http.MethodGet, path, h, mws...)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.Handle(http.MethodPost, path, h, mws...)
}

func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.Handle(http.MethodDelete, path, h, mws...)
}

// Handle registers h behind the router middleware plus mws.
func (r *Router) Handle(method, path string, h Handler, mws ...Middleware) {
	r.HandleRaw(method, path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err == nil {
			encodeOK(req.Context(), w, resp)
			return
		}
		if setter, ok := w.(interface{ SetError(error) }); ok {
			setter.SetError(err)
		}
		encodeError(req.Context(), w, err)
	}), mws...)
}

// HandleRaw registers an http.Handler that writes its own response, such as
// the GraphQL endpoint with its own envelope.
func (r *Router) HandleRaw(method, path string, h http.Handler, mws ...Middleware) {
	chain := append(append([]Middleware(nil), r.mws...), mws...)
	r.hr.Handler(method, path, Chain(h, chain...))
}

func (r *Router) GETRaw(path string, h http.Handler, mws ...Middleware) {
	r.HandleRaw(http.MethodGet, path, h, mws...)
}

func (r *Router) POSTRaw(path string, h http.Handler, mws ...Middleware) {
	r.HandleRaw(http.MethodPost, path, h, mws...)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}
