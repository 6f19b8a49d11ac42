package mid

import (
	"context"
	"net/http"
	"strings"

	"github.com/pocledger/pocledger/foundation/web"
)

// Methods and headers the node API accepts from a browser.
var (
	corsMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", ")
	corsHeaders = strings.Join([]string{"Accept", "Content-Type", "Content-Length"}, ", ")
)

// Cors allows browsers served from origin to call the API. Preflight requests
// are answered here with no content and never reach the route handler.
func Cors(origin string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			hdr := w.Header()
			hdr.Set("Access-Control-Allow-Origin", origin)
			hdr.Add("Vary", "Origin")

			if r.Method != http.MethodOptions {
				return handler(ctx, w, r)
			}

			hdr.Set("Access-Control-Allow-Methods", corsMethods)
			hdr.Set("Access-Control-Allow-Headers", corsHeaders)
			hdr.Set("Access-Control-Max-Age", "600")

			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		return h
	}

	return m
}
