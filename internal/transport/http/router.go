package httptransport

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type RouterOptions struct {
	AdminAPIKey string
	// Health reports backing store reachability. Nil means always healthy.
	Health func(ctx context.Context) error
	// Stream serves the websocket event feed. Nil disables /ws.
	Stream http.HandlerFunc
	// MCP serves the tool endpoint for agents. Nil disables /mcp.
	MCP http.Handler
}

func NewRouter(tbl TableAPI, opts RouterOptions) *chi.Mux {
	th := NewTableHandlers(tbl)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", healthHandler(opts.Health))
	if opts.Stream != nil {
		r.With(APILogMiddleware()).Get("/ws", opts.Stream)
	}
	if opts.MCP != nil {
		r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
		})
		for _, m := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
			r.With(APILogMiddleware()).Method(m, "/mcp", opts.MCP)
		}
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Route("/table", func(r chi.Router) {
			r.Get("/players", th.Players())
			r.Get("/round", th.Round())
			r.Post("/sit", th.Sit())
			r.Post("/leave", th.Leave())
			r.Post("/buy_in", th.BuyIn())
			r.Post("/cash_out", th.CashOut())
			r.Post("/deal", th.Deal())
		})

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(opts.AdminAPIKey))
			r.Route("/debug", func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Get("/vars", expvar.Handler().ServeHTTP)
			})
		})
	})
	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				log.Warn().Err(err).Msg("health check failed")
				WriteHTTPError(w, http.StatusServiceUnavailable, "unhealthy")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
