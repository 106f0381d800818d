package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"video-consult/config"
	"video-consult/constant"
	"video-consult/handler"
	"video-consult/middleware"
	"video-consult/pkg/daily"
	"video-consult/pkg/rabbitmq"
	"video-consult/repository"
	"video-consult/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := repository.Open(cfg.DB)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to open database")
	}
	repo := repository.NewRepo(db)

	rooms, err := daily.NewClient(daily.Config{
		APIKey:   cfg.Daily.APIKey,
		BaseURL:  cfg.Daily.APIBaseURL,
		TokenTTL: cfg.Daily.TokenTTL,
		RoomTTL:  cfg.Daily.RoomTTL,
		Timeout:  cfg.Daily.Timeout,
	})
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to configure daily client")
	}

	var ratings service.RatingSink = service.UnavailableRatingSink{}
	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
	} else {
		publisher := rabbitmq.NewPublisher(conn, cfg.Queue, rabbitmq.RatingExchange)
		defer publisher.Close()
		ratings = service.NewRatingPublisher(publisher)
	}

	sessionService := service.NewService(repo, rooms, ratings, service.Options{
		BaseURL:           cfg.App.BaseURL,
		DefaultDepartment: cfg.Consult.DefaultDepartment,
		RoomPrefix:        cfg.Daily.RoomPrefix,
		JoinKeyTTL:        cfg.Consult.JoinKeyTTL,
		Window: service.WindowConfig{
			Lead:            cfg.Consult.WindowLead,
			Grace:           cfg.Consult.WindowGrace,
			DefaultDuration: cfg.Consult.DefaultDuration,
		},
	})

	if conn != nil {
		deps := handler.ServiceDependencies{SessionService: sessionService}
		bookingConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, rabbitmq.AppointmentBooked, cfg.Server.Workers, handler.AppointmentBookedHandler)
		go func() {
			err := bookingConsumer.Consume(ctx, deps)
			if err != nil && !errors.Is(err, context.Canceled) {
				zerolog.Ctx(ctx).Error().Err(err).Msg("Appointment booking consumer error")
			}
		}()
	}

	r := NewRouter(*zerolog.Ctx(ctx), cfg.Auth.JWTSecret, sessionService)

	srv := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Str("addr", srv.Addr).Msg("start http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func NewRouter(logger zerolog.Logger, jwtSecret string, svc service.Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(logger), middleware.Identity(jwtSecret))
	addHealth(r)
	handler.NewHTTPHandler(svc).Register(r)

	return r
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
