package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// CallbackPath is the route VK delivers Callback API events to.
const CallbackPath = "/callback"

type RouterConfig struct {
	Callback      http.Handler
	Metrics       http.Handler
	Limiter       *RateLimiter
	SigningSecret string
	Logger        *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(Metrics)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Hello, world!"))
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	if cfg.Callback != nil {
		r.Group(func(r chi.Router) {
			if cfg.Limiter != nil {
				r.Use(cfg.Limiter.Middleware)
			}
			r.Use(VerifySignature(cfg.SigningSecret, cfg.Logger))
			r.Method(http.MethodPost, CallbackPath, cfg.Callback)
		})
	}

	return r
}
