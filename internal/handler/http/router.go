package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/config"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// NewRouter wires the HTTP surface. idempotency wraps the mutating routes;
// pass middleware.Idempotency(nil, 0) to disable it.
func NewRouter(
	cfg config.AppConfig,
	JWTService jwt.Service,
	idempotency func(http.Handler) http.Handler,
	attendanceHandler AttendanceHandler,
	regularizationHandler RegularizationHandler,
	leaveHandler LeaveHandler,
) *chi.Mux {
	r := chi.NewRouter()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-attendance-leave"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", middleware.IdempotencyKeyHeader},
		ExposedHeaders:   []string{"Link", middleware.ReplayedHeader},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  level,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	if cfg.RequestTimeout > 0 {
		r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))
	}

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(idempotency)

			r.Route("/attendance", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireEmployee)
					r.With(middleware.RequirePermission(user.PermissionAttendanceCreate)).Post("/clock-in", attendanceHandler.ClockIn)
					r.With(middleware.RequirePermission(user.PermissionAttendanceCreate)).Post("/clock-out", attendanceHandler.ClockOut)
					r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).Get("/my", attendanceHandler.GetMyAttendance)
				})

				r.Route("/regularizations", func(r chi.Router) {
					r.With(middleware.RequireEmployee, middleware.RequirePermission(user.PermissionAttendanceCreate)).Post("/", regularizationHandler.Submit)
					r.With(middleware.RequireEmployee, middleware.RequirePermission(user.PermissionAttendanceViewOwn)).Get("/my", regularizationHandler.ListMine)

					// Reviewer only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionAttendanceApprove))
						r.Get("/pending", regularizationHandler.ListPending)
						r.Put("/{id}", regularizationHandler.Review)
					})
				})

				r.Get("/{id}", attendanceHandler.Get)
			})

			r.Route("/leaves", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireEmployee)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionLeaveCreate))
						r.Post("/", leaveHandler.Submit)
						r.Put("/{id}/withdraw", leaveHandler.Withdraw)
						r.Delete("/{id}", leaveHandler.Delete)
					})

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionLeaveViewOwn))
						r.Get("/my-requests", leaveHandler.GetMyRequests)
						r.Get("/my-balance", leaveHandler.GetMyBalance)
					})
				})

				r.Get("/{id}", leaveHandler.GetRequest)

				// Reviewer only
				r.With(middleware.RequirePermission(user.PermissionLeaveApprove)).Put("/{id}", leaveHandler.Review)
			})
		})
	})
	return r
}
