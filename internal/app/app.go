package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"foodshare-go/internal/auth"
	"foodshare-go/internal/config"
	"foodshare-go/internal/db"
	bookingsdomain "foodshare-go/internal/domain/bookings"
	dishesdomain "foodshare-go/internal/domain/dishes"
	messagingdomain "foodshare-go/internal/domain/messaging"
	notificationsdomain "foodshare-go/internal/domain/notifications"
	userdomain "foodshare-go/internal/domain/user"
	"foodshare-go/internal/email"
	"foodshare-go/internal/realtime"
	"foodshare-go/internal/repository/inmemory"
	bookingsrepo "foodshare-go/internal/repository/postgres/bookings"
	dishesrepo "foodshare-go/internal/repository/postgres/dishes"
	messagingrepo "foodshare-go/internal/repository/postgres/messaging"
	notificationsrepo "foodshare-go/internal/repository/postgres/notifications"
	userrepo "foodshare-go/internal/repository/postgres/user"
	"foodshare-go/internal/storage"
	"foodshare-go/internal/tasks"
	"foodshare-go/internal/transport/httpserver"
	"foodshare-go/internal/transport/httpserver/handler"
	bookingshandler "foodshare-go/internal/transport/httpserver/handler/bookings"
	commonhandler "foodshare-go/internal/transport/httpserver/handler/common"
	disheshandler "foodshare-go/internal/transport/httpserver/handler/dishes"
	identityhandler "foodshare-go/internal/transport/httpserver/handler/identity"
	messaginghandler "foodshare-go/internal/transport/httpserver/handler/messaging"
	notificationshandler "foodshare-go/internal/transport/httpserver/handler/notifications"
	uploadshandler "foodshare-go/internal/transport/httpserver/handler/uploads"
	authmw "foodshare-go/internal/transport/httpserver/middleware"
	"foodshare-go/pkg/logger"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	log        logger.Logger
	httpServer *http.Server
	db         *gorm.DB
	redis      *redis.Client
	taskClient *tasks.Client
	taskServer *asynq.Server
	taskMux    *asynq.ServeMux
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, db: dbConn}

	if cfg.DB.AutoMigrate {
		log.Info("app: applying migrations")
		if err := db.Migrate(dbConn, log); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var publisher notificationsdomain.Publisher
	var mailer userdomain.VerificationMailer
	sender := email.NewSender(cfg.Mail, log)

	if cfg.Redis.Enabled() {
		log.Info("app: initializing redis")
		rdb, err := db.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.redis = rdb
		publisher = realtime.NewRedisPublisher(rdb)

		a.taskClient = tasks.NewClient(rdb, log)
		a.taskServer = tasks.NewServer(rdb, cfg.Mail.WorkerConcurrency, log)
		a.taskMux = tasks.NewServeMux(tasks.NewProcessor(sender, cfg.Mail.FromAddress, log))
		mailer = a.taskClient
	} else {
		log.Warn("app: redis not configured, sending mail inline and skipping realtime publish")
		mailer = email.NewDirectMailer(sender, cfg.Mail.FromAddress)
	}

	log.Info("app: initializing storage")
	uploads, err := storage.NewS3Storage(ctx, cfg.Storage)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	var presigner uploadshandler.Presigner
	if uploads != nil {
		presigner = uploads
	} else {
		log.Warn("app: S3 bucket not configured, dish image uploads disabled")
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	notificationService := notificationsdomain.NewService(notificationsrepo.NewPostgres(dbConn), publisher, log)
	userService := userdomain.NewService(
		userrepo.NewPostgres(dbConn),
		auth.Hasher{},
		tokens,
		mailer,
		userdomain.Options{
			VerificationTTL:      cfg.Auth.VerificationTTL,
			RequireVerifiedEmail: cfg.Auth.RequireVerifiedEmail,
			SessionCacheTTL:      cfg.Auth.SessionCacheTTL,
		},
		log,
	).WithCache(inmemory.NewUserCache())
	bookingService := bookingsdomain.NewService(bookingsrepo.NewPostgres(dbConn), notificationService, log)
	dishService := dishesdomain.NewService(dishesrepo.NewPostgres(dbConn), notificationService, cfg.Catalog.PageSize, log)
	messagingService := messagingdomain.NewService(messagingrepo.NewPostgres(dbConn), notificationService, log)

	log.Info("app: initializing router")
	handlers := &handler.Handlers{
		Common: commonhandler.New(log),
		Identity: identityhandler.New(userService, identityhandler.CookieOptions{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
		}, log),
		Dishes:        disheshandler.New(dishService, log),
		Bookings:      bookingshandler.New(bookingService, log),
		Messaging:     messaginghandler.New(messagingService, log),
		Notifications: notificationshandler.New(notificationService, log),
		Uploads:       uploadshandler.New(presigner, log),
	}
	sessionAuth := authmw.NewSessionAuth(tokens, userService, cfg.Auth.CookieName, log)
	router := httpserver.NewRouter(cfg, handlers, sessionAuth)

	log.Info("app: initializing http server")
	a.httpServer = httpserver.New(cfg, router)

	return a, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

// StartWorkers runs the mail queue consumer in-process when Redis is configured.
func (a *App) StartWorkers() error {
	if a.taskServer == nil {
		return nil
	}
	a.log.Info("tasks: starting worker", "concurrency", a.cfg.Mail.WorkerConcurrency)
	return a.taskServer.Start(a.taskMux)
}

func (a *App) Close() error {
	var errs []error
	if a.taskServer != nil {
		a.taskServer.Shutdown()
	}
	if a.taskClient != nil {
		if err := a.taskClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			errs = append(errs, err)
		} else if err := sqlDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
