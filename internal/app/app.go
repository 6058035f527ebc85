package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"palsanalytix/internal/cache"
	"palsanalytix/internal/config"
	"palsanalytix/internal/db"
	"palsanalytix/internal/handlers"
	"palsanalytix/internal/logger"
	"palsanalytix/internal/migrations"
	"palsanalytix/internal/repository"
	"palsanalytix/internal/routes"
	"palsanalytix/internal/services"
)

func InitApp(cfg *config.Config) (*mux.Router, error) {
	if err := runMigrations(cfg); err != nil {
		return nil, err
	}

	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}

	// Репозитории
	userRepo := repository.NewUserRepository(conn)
	subRepo := repository.NewSubscriptionRepository(conn)
	questionRepo := repository.NewQuestionRepository(conn)
	assignmentRepo := repository.NewAssignmentRepository(conn)
	testRepo := repository.NewTestRepository(conn)

	// Pending-регистрации: Redis, если настроен, иначе память процесса.
	var pendingStore cache.PendingStore
	if cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		pendingStore = redisStore
	} else {
		logger.Log.Warn("Redis не настроен, pending-регистрации живут в памяти процесса")
		pendingStore = cache.NewMemoryStore()
	}

	// Хранилище картинок: без бакета загрузка просто отключена.
	var storageService *services.StorageService
	if cfg.S3Bucket != "" {
		storageService, err = services.NewStorageService(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Log.Warn("S3 не настроен, загрузка картинок отключена")
	}

	tokenTTL, err := time.ParseDuration(cfg.AccessTokenTTL)
	if err != nil {
		tokenTTL = 24 * time.Hour
	}

	// Сервисы
	authService := services.NewAuthService(userRepo)
	emailService := services.NewEmailService(cfg)
	smsService := services.NewSMSService(cfg.SMSGatewayURL, cfg.SMSGatewayKey, cfg.SMSSenderID)
	signupService := services.NewSignupService(
		pendingStore,
		userRepo,
		questionRepo,
		assignmentRepo,
		smsService,
		emailService,
		time.Duration(cfg.OTPTTL())*time.Minute,
		cfg.JWTSecret,
		tokenTTL,
	)
	subscriptionService := services.NewSubscriptionService(subRepo, userRepo)
	razorpayService := services.NewRazorpayService(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	paymentService := services.NewPaymentService(razorpayService, subscriptionService, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret)
	questionService := services.NewQuestionService(questionRepo, assignmentRepo, storageService)
	testService := services.NewTestService(testRepo)
	assignerService := services.NewAssignerService(userRepo, questionRepo, assignmentRepo)

	// Хендлеры
	authHandler := handlers.NewAuthHandler(authService, signupService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, subscriptionService)
	webhookHandler := handlers.NewWebhookHandler(paymentService)
	questionHandler := handlers.NewQuestionHandler(questionService)
	testHandler := handlers.NewTestHandler(testService)
	assignHandler := handlers.NewAssignHandler(assignerService)

	_ = subRepo.ExpireSubscriptions(context.Background())

	// Фоновые задачи
	StartSubscriptionCleaner(subRepo)
	services.StartDailyAssigner(assignerService, cfg.AssignHourInt())

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, authHandler, paymentHandler, webhookHandler, questionHandler, testHandler, assignHandler)

	return router, nil
}

// runMigrations накатывает миграции через database/sql-обёртку pgx.
func runMigrations(cfg *config.Config) error {
	sqlDB, err := sql.Open("pgx", cfg.GetDSN())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := migrations.Run(sqlDB, cfg.MigrationsPath); err != nil {
		return err
	}
	logger.Log.Info("Миграции применены", zap.String("path", cfg.MigrationsPath))
	return nil
}

// StartSubscriptionCleaner раз в час помечает просроченные записи истории.
func StartSubscriptionCleaner(repo *repository.SubscriptionRepository) {
	t := time.NewTicker(1 * time.Hour)
	go func() {
		for range t.C {
			_ = repo.ExpireSubscriptions(context.Background())
		}
	}()
}
