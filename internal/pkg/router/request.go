package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/watarui/wauth/internal/pkg/goerror"
)

// maxBodyBytes bounds request bodies; site names and secrets are short.
const maxBodyBytes = 16 << 10

// Request is what a Handler receives.
type Request struct {
	*http.Request
}

// GetParam returns a route parameter such as site_name.
func (r *Request) GetParam(name string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(name)
}

// GetQueryInt parses an optional integer query value; absent means 0.
func (r *Request) GetQueryInt(name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, goerror.NewInvalidFormat("Invalid query " + name)
	}
	return n, nil
}

// DecodeBody reads exactly one JSON document into dst. Unknown fields,
// trailing data and bodies over maxBodyBytes are format errors.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if dec.Decode(dst) != nil || !errors.Is(dec.Decode(&struct{}{}), io.EOF) {
		return goerror.NewInvalidFormat()
	}
	return nil
}
