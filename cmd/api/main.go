package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/config"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/audit"
	appHTTP "github.com/cmlabs-hris/hris-attendance-leave/internal/handler/http"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/cache"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/repository/postgresql"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/repository/sqlite"
	attendanceService "github.com/cmlabs-hris/hris-attendance-leave/internal/service/attendance"
	auditService "github.com/cmlabs-hris/hris-attendance-leave/internal/service/audit"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/service/leave"
	regularizationService "github.com/cmlabs-hris/hris-attendance-leave/internal/service/regularization"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	// Audit trail
	var auditRepo audit.LogRepository
	switch cfg.Audit.Sink {
	case "postgres":
		auditRepo = postgresql.NewAuditLogRepository(db)
	case "sqlite":
		store, err := sqlite.Open(cfg.Audit.SQLitePath)
		if err != nil {
			log.Fatal("Failed to open sqlite audit store: ", err)
		}
		defer store.Close()
		auditRepo = store
	default:
		log.Fatal("Unsupported audit sink: ", cfg.Audit.Sink)
	}
	auditSink := auditService.NewAsyncSink(auditRepo, cfg.Audit.BufferSize)

	// Idempotency keys are optional
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = cache.OpenRedis(cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to redis: ", err)
		}
		defer rdb.Close()
	} else {
		slog.Warn("REDIS_ADDR not set, Idempotency-Key headers are ignored")
	}

	txManager := postgresql.NewTxManager(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	regularizationRepo := postgresql.NewRegularizationRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	leaveBalanceRepo := postgresql.NewLeaveBalanceRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	branchRepo := postgresql.NewBranchRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	attendanceSvc := attendanceService.NewAttendanceService(
		txManager,
		attendanceRepo,
		employeeRepo,
		shiftRepo,
		branchRepo,
		auditSink,
		attendanceService.Config{
			DefaultBreakHours:    cfg.Attendance.DefaultBreakHours,
			DefaultStandardHours: cfg.Attendance.DefaultStandardHours,
			RequireCoordinates:   cfg.Attendance.RequireCoordinates,
			EnforceGeofence:      cfg.Attendance.EnforceGeofence,
			StaleAfter:           cfg.Attendance.StaleAfter,
		},
	)
	regularizationSvc := regularizationService.NewRegularizationService(
		txManager,
		regularizationRepo,
		attendanceRepo,
		attendanceSvc,
		auditSink,
	)
	leaveSvc := leave.NewLeaveService(
		txManager,
		leaveRequestRepo,
		leave.NewLedger(leaveBalanceRepo),
		calendar.New(holidayRepo),
		auditSink,
	)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	regularizationHandler := appHTTP.NewRegularizationHandler(regularizationSvc)
	leaveHandler := appHTTP.NewLeaveHandler(leaveSvc)

	router := appHTTP.NewRouter(
		cfg.App,
		JWTService,
		middleware.Idempotency(rdb, cfg.Redis.IdempotencyTTL),
		attendanceHandler,
		regularizationHandler,
		leaveHandler,
	)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceSvc, cfg.Attendance.StaleAfter).RegisterJobs(scheduler, cfg.Attendance.SweepInterval)
	scheduler.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server running", "addr", "http://localhost"+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "error", err)
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		slog.Error("Scheduler shutdown error", "error", err)
	}
	// after the server and jobs so every recorded entry is flushed
	auditSink.Close()
}
