package httpapi

import (
	"context"
	"net/http"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Options configures the router.
type Options struct {
	Logger         *zap.Logger
	BasePath       string
	RequestTimeout time.Duration
	MaxUploadBytes int64
	Cookies        CookieOptions
	// Metrics is mounted at MetricsPath when non-nil.
	Metrics     http.Handler
	MetricsPath string
}

// NewRouter wires the account routes under opts.BasePath plus /healthz and
// the metrics endpoint.
func NewRouter(engine *goSession.Engine, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 16 << 20
	}

	root := chi.NewRouter()
	root.Use(
		chimw.RequestID,
		chimw.RealIP,
		clientMeta,
		accessLog(opts.Logger),
		chimw.Recoverer,
	)
	if opts.RequestTimeout > 0 {
		root.Use(chimw.Timeout(opts.RequestTimeout))
	}

	h := &Handlers{
		engine:    engine,
		logger:    opts.Logger,
		cookies:   opts.Cookies,
		maxUpload: opts.MaxUploadBytes,
	}

	root.Get("/healthz", h.Health)
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		root.Method(http.MethodGet, path, opts.Metrics)
	}

	base := opts.BasePath
	if base == "" {
		base = "/"
	}
	root.Route(base, func(r chi.Router) {
		registerRoutes(r, h, engine)
	})
	return root
}

func registerRoutes(r chi.Router, h *Handlers, engine *goSession.Engine) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh-token", h.RefreshToken)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Guard(engine))
		r.Post("/logout", h.Logout)
		r.Post("/change-password", h.ChangePassword)
		r.Get("/current-user", h.CurrentUser)
		r.Patch("/update-account", h.UpdateAccount)
		r.Patch("/avatar", h.UpdateAvatar)
		r.Patch("/cover-image", h.UpdateCover)
	})
}

// clientMeta copies the request id, client IP, and user agent onto the
// context so engine logs and audit events carry them.
func clientMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := goSession.WithClientIP(r.Context(), r.RemoteAddr)
		ctx = goSession.WithUserAgent(ctx, r.UserAgent())
		if id := chimw.GetReqID(r.Context()); id != "" {
			ctx = goSession.WithRequestID(ctx, id)
			w.Header().Set(chimw.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accessLog(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			l.Info("http",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("dur", time.Since(start)),
				zap.Int("bytes", ww.BytesWritten()),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := h.engine.Health(ctx)
	code := http.StatusOK
	if !status.SessionStoreAvailable {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, envelope{
		StatusCode: code,
		Data:       status,
		Message:    http.StatusText(code),
		Success:    code == http.StatusOK,
	})
}
