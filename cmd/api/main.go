package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/trust-erp-api/api/swagger"
	"github.com/noah-isme/trust-erp-api/internal/handler"
	"github.com/noah-isme/trust-erp-api/internal/middleware"
	"github.com/noah-isme/trust-erp-api/internal/repository"
	"github.com/noah-isme/trust-erp-api/internal/service"
	"github.com/noah-isme/trust-erp-api/internal/validation"
	"github.com/noah-isme/trust-erp-api/pkg/cache"
	"github.com/noah-isme/trust-erp-api/pkg/config"
	"github.com/noah-isme/trust-erp-api/pkg/database"
	"github.com/noah-isme/trust-erp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/trust-erp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/trust-erp-api/pkg/middleware/requestid"
)

// @title Trust ERP API
// @version 1.0.0
// @description Role-based administration for schools run by the trust
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.JWT.Secret == "" {
		logr.Fatal("JWT_SECRET must be set")
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database, "trust-erp-api")
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	var (
		revocations *cache.RevocationStore
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		revocations, redisClient, err = cache.DialRevocationStore(ctx, cfg.Redis, cfg.JWT.Expiration+time.Hour)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close()
	} else {
		logr.Warn("redis disabled; revoked sessions stay valid until they expire")
	}

	var metrics *service.MetricsService
	if cfg.Features.Metrics {
		metrics = service.NewMetricsService()
	}

	users := repository.NewUserRepository(db)
	students := repository.NewStudentRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	classes := repository.NewClassRepository(db)
	subjects := repository.NewSubjectRepository(db)
	assignments := repository.NewTeacherAssignmentRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	marks := repository.NewMarkRepository(db)
	fees := repository.NewFeeRepository(db)
	disbursements := repository.NewDisbursementRepository(db)
	evaluations := repository.NewEvaluationRepository(db)
	surveys := repository.NewSurveyRepository(db)
	audit := repository.NewAuditRepository(db)

	mutations := service.NewMutationService(db, audit, validation.New(), logr,
		service.WithMutationTimeouts(cfg.Mutations.Timeout, cfg.Mutations.BulkTimeout),
		service.WithMutationMetrics(metrics),
	)
	scope := service.NewScopeService(assignments, users, students)
	sessions := service.NewSessionService(users, revocations, logr, service.SessionConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	})

	passwordLength := cfg.Mutations.TempPasswordLength
	userSvc := service.NewUserService(users, students, enrollments, scope, mutations, revocations, logr, passwordLength)
	academicSvc := service.NewAcademicService(classes, subjects, assignments, users, mutations)
	studentSvc := service.NewStudentService(users, students, enrollments, classes, scope, mutations, passwordLength)
	attendanceSvc := service.NewAttendanceService(attendance, students, classes, scope, mutations)
	gradeSvc := service.NewGradeService(marks, students, classes, subjects, students, enrollments, scope, mutations)
	feeSvc := service.NewFeeService(fees, students, students, classes, mutations)
	scholarshipSvc := service.NewScholarshipService(disbursements, enrollments, scope, mutations)
	evaluationSvc := service.NewEvaluationService(evaluations, users, mutations)
	surveySvc := service.NewSurveyService(surveys, students, assignments, mutations)
	auditSvc := service.NewAuditService(audit)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	var scrape http.Handler
	if metrics != nil {
		scrape = metrics.Handler()
	}
	ops := handler.NewOpsHandler(scrape, checks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Features.Swagger && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), middleware.JWT(sessions), handler.Handlers{
		Users:        handler.NewUserHandler(userSvc),
		Academics:    handler.NewAcademicHandler(academicSvc),
		Students:     handler.NewStudentHandler(studentSvc),
		Attendance:   handler.NewAttendanceHandler(attendanceSvc),
		Grades:       handler.NewGradeHandler(gradeSvc),
		Fees:         handler.NewFeeHandler(feeSvc),
		Scholarships: handler.NewScholarshipHandler(scholarshipSvc),
		Surveys:      handler.NewSurveyHandler(evaluationSvc, surveySvc),
		Audit:        handler.NewAuditHandler(auditSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
