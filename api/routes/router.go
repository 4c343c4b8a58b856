package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shelfwise/library-backend/api/controllers"
	"github.com/shelfwise/library-backend/api/middleware"
	"github.com/shelfwise/library-backend/api/responses"
	"github.com/shelfwise/library-backend/internal/auth"
	"github.com/shelfwise/library-backend/internal/books"
	"github.com/shelfwise/library-backend/internal/borrows"
	"github.com/shelfwise/library-backend/internal/profile"
	"github.com/shelfwise/library-backend/internal/summary"
	"github.com/shelfwise/library-backend/pkg/auth/session"
	"github.com/shelfwise/library-backend/pkg/config"
	pkgerrors "github.com/shelfwise/library-backend/pkg/errors"
	"github.com/shelfwise/library-backend/pkg/logger"
	"github.com/shelfwise/library-backend/pkg/metrics"
	pkgredis "github.com/shelfwise/library-backend/pkg/redis"
)

// Deps bundles what the router needs. Nil stores disable the middleware
// that depends on them.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger
	Sessions    session.AccessSessionChecker
	RateLimits  middleware.RateLimitStore
	Idempotency pkgredis.IdempotencyStore

	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Auth    auth.Service
	Books   books.Service
	Borrows borrows.Service
	Profile profile.Service
	Summary summary.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": d.DBPinger,
			"redis":    d.RedisPinger,
		}))
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	authenticated := middleware.Auth(cfg.JWT, d.Sessions, logg)
	adminOnly := middleware.RequireAdmin(logg)
	// applied per route so the full route pattern is known when it runs
	idempotent := middleware.Idempotency(d.Idempotency, cfg.Idempotency.BorrowTTL, logg)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(signupPolicy, d.RateLimits, logg)).Post("/signup", controllers.AuthSignup(d.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, d.RateLimits, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/logout", controllers.AuthLogout(d.Auth, logg))
				r.Get("/myprofile", controllers.MyProfile(d.Profile, logg))
				r.With(adminOnly).Get("/{userId}/profile", controllers.UserProfile(d.Profile, logg))
			})
		})

		// the catalog is readable without a session
		r.Route("/books", func(r chi.Router) {
			r.Get("/", controllers.BookList(d.Books, logg))
			r.Get("/{bookId}", controllers.BookGet(d.Books, logg))
			r.Group(func(r chi.Router) {
				r.Use(authenticated, adminOnly)
				r.With(idempotent).Post("/add", controllers.BookCreate(d.Books, logg))
				r.Put("/{bookId}", controllers.BookUpdate(d.Books, logg))
				r.Delete("/{bookId}", controllers.BookDelete(d.Books, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.With(idempotent).Post("/borrow", controllers.Borrow(d.Borrows, logg))
			r.Put("/return/{recordId}", controllers.Return(d.Borrows, logg))
			r.Get("/myhistory", controllers.MyHistory(d.Borrows, logg))

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/borrowed", controllers.BorrowedList(d.Borrows, logg))
				r.Get("/borrowed/history/{userId}", controllers.BorrowedHistory(d.Borrows, logg))
				r.Get("/borrowed/book/{bookId}", controllers.BorrowedByBook(d.Borrows, logg))
				r.Get("/borrowed/due", controllers.BorrowedDue(d.Borrows, logg))
				r.Get("/borrowed/{recordId}", controllers.BorrowedGet(d.Borrows, logg))
				r.Patch("/borrowed/{recordId}", controllers.BorrowedPatch(d.Borrows, logg))
				r.Get("/overdue", controllers.OverdueList(d.Borrows, logg))
				r.Get("/overdue/search", controllers.OverdueSearch(d.Borrows, logg))
				r.Get("/summary", controllers.Summary(d.Summary, logg))
			})
		})
	})

	return r
}
