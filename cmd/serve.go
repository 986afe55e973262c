package cmd

import (
	"context"
	"database/sql"
	"net"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vibast-solutions/authsvc/app/controller"
	"github.com/vibast-solutions/authsvc/app/middleware"
	"github.com/vibast-solutions/authsvc/app/password"
	"github.com/vibast-solutions/authsvc/app/service"
	"github.com/vibast-solutions/authsvc/app/store"
	"github.com/vibast-solutions/authsvc/app/token"
	"github.com/vibast-solutions/authsvc/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server for the authentication service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogging(cfg)

	userStore, closeStore := buildStore(cfg)
	defer closeStore()

	issuer, err := token.NewIssuer(token.Options{
		AccessSecret:    cfg.JWT.AccessSecret,
		RefreshSecret:   cfg.JWT.RefreshSecret,
		AccessTTL:       cfg.JWT.AccessTokenTTL,
		RefreshTTL:      cfg.JWT.RefreshTokenTTL,
		VerificationTTL: cfg.JWT.VerificationTokenTTL,
		ResetTTL:        cfg.JWT.ResetTokenTTL,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to construct token issuer")
	}

	hasher := password.NewHasher(cfg.Password.BcryptCost)
	mailer := service.NewMailer(cfg.SMTP)
	authService := service.New(userStore, hasher, issuer, mailer, cfg)

	startHTTPServer(cfg, authService, issuer, userStore)
}

func configureLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

func buildStore(cfg *config.Config) (store.UserStore, func()) {
	switch cfg.Database.Driver {
	case "mysql":
		// DSN must include parseTime=true so DATETIME columns scan into time.Time.
		db, err := sql.Open("mysql", cfg.Database.MySQLDSN)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to open database")
		}
		if err := db.Ping(); err != nil {
			logrus.WithError(err).Fatal("Failed to ping database")
		}
		return store.NewMySQLStore(db), func() { _ = db.Close() }
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(options.Client().ApplyURI(cfg.Database.MongoURI))
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to mongo")
		}
		if err := client.Ping(ctx, nil); err != nil {
			logrus.WithError(err).Fatal("Failed to ping mongo")
		}

		mongoStore := store.NewMongoStore(client, cfg.Database.MongoDatabase)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			logrus.WithError(err).Fatal("Failed to create mongo indexes")
		}
		return mongoStore, func() { _ = client.Disconnect(context.Background()) }
	case "memory":
		logrus.Warn("Using in-memory store; data will not survive a restart")
		return store.NewMemoryStore(), func() {}
	default:
		logrus.WithField("driver", cfg.Database.Driver).Fatal("Unsupported database driver")
		return nil, nil
	}
}

func startHTTPServer(cfg *config.Config, authService *service.AuthService, issuer *token.Issuer, userStore store.UserStore) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{cfg.HTTP.CORSOrigin},
	}))

	if cfg.RateLimit.Enabled() {
		opts, err := redis.ParseURL(cfg.RateLimit.RedisURL)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to parse rate limit redis URL")
		}
		limiter := middleware.NewRateLimiter(redis.NewClient(opts), "authsvc:rl", cfg.RateLimit.Max, cfg.RateLimit.Window)
		e.Use(limiter.Middleware())
	}

	authController := controller.NewAuthController(authService)
	userController := controller.NewUserController(authService)
	authMiddleware := middleware.NewAuthMiddleware(issuer, userStore)

	e.GET("/health", userController.Health)

	auth := e.Group("/auth")
	auth.POST("/register", authController.Register)
	auth.POST("/login", authController.Login)
	auth.POST("/refresh", authController.Refresh)
	auth.POST("/forgot-password", authController.ForgotPassword)
	auth.POST("/reset-password", authController.ResetPassword)
	auth.POST("/verify-email", authController.VerifyEmail)
	auth.POST("/resend-verification", authController.ResendVerification)

	authProtected := auth.Group("")
	authProtected.Use(authMiddleware.RequireAuth)
	authProtected.POST("/logout", authController.Logout)
	authProtected.POST("/logout-all", authController.LogoutAll)
	authProtected.POST("/change-password", authController.ChangePassword)
	authProtected.GET("/profile", userController.GetProfile)
	authProtected.PUT("/profile", userController.UpdateProfile)

	httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}
