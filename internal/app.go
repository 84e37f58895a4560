package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cron_adapter "search-service/internal/adapters/cron"
	logger_adapter "search-service/internal/adapters/logger"
	postgres_adapter "search-service/internal/adapters/postgres"
	rabbitmq_adapter "search-service/internal/adapters/rabbitmq"
	redis_adapter "search-service/internal/adapters/redis"
	"search-service/internal/adapters/rest"
	"search-service/internal/configs"
	"search-service/internal/constants"
	"search-service/internal/core/port"
	"search-service/internal/core/usecase"
	fluentlogger "search-service/pkg/fluent_logger"
	"search-service/pkg/postgres"
	"search-service/pkg/rabbitmq/rabbitmq_common"
	"search-service/pkg/rabbitmq/rabbitmq_consumer"
	"search-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

type App struct {
	config    *configs.AppConfig
	dbPool    *pgxpool.Pool
	apiServer *rest.Server

	redisClient          *goredis.Client
	notificationProducer *rabbitmq_producer.Publisher
	tickConsumer         port.EventListenerPort
	cronTrigger          port.EventListenerPort

	fluentClient *fluent.Fluent
	logger       port.LoggerPort
}

func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false, // текстовый формат
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	// Добавляем Fluent Bit логгер, если он включен в конфигурации
	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	// --- 2. БАЗОВЫЙ ЛОГГЕР ПРИЛОЖЕНИЯ С КОНТЕКСТОМ ---
	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// --- 3. НИЗКОУРОВНЕВЫЕ ЗАВИСИМОСТИ ---
	dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: appConfig.Database.URL})
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", err, nil)
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

	recordRepo, err := postgres_adapter.NewRecordRepository(dbPool)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to create record repository: %w", err)
	}
	savedSearchRepo, err := postgres_adapter.NewSavedSearchRepository(dbPool)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to create saved search repository: %w", err)
	}

	redisClient, err := redis_adapter.NewRedisClient(context.Background(), appConfig.Redis.URL)
	if err != nil {
		appLogger.Error("Failed to connect to Redis", err, nil)
		dbPool.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	appLogger.Info("Successfully connected to Redis!", nil)

	tickLock, err := redis_adapter.NewTickLock(redisClient)
	if err != nil {
		dbPool.Close()
		redisClient.Close()
		return nil, fmt.Errorf("failed to create tick lock: %w", err)
	}

	// --- 4. RABBITMQ ---
	var notificationProducer *rabbitmq_producer.Publisher
	var connManager *rabbitmq_common.ConnectionManager
	var notificationDelivery port.NotificationDeliveryPort

	if appConfig.RabbitMQ.Enabled {
		pkgLogger := rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq"}))

		connManager, err = rabbitmq_common.GetManager(appConfig.RabbitMQ.URL, pkgLogger)
		if err != nil {
			appLogger.Error("Failed to create RabbitMQ connection manager", err, nil)
			dbPool.Close()
			redisClient.Close()
			return nil, fmt.Errorf("failed to create rabbitmq connection manager: %w", err)
		}

		notificationProducer, err = rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
			Config:                   rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
			ExchangeName:             constants.NotificationsExchange,
			ExchangeType:             "topic",
			DurableExchange:          true,
			DeclareExchangeIfMissing: true,
			Logger:                   pkgLogger,
		}, connManager)
		if err != nil {
			appLogger.Error("Failed to create notification producer", err, nil)
			dbPool.Close()
			redisClient.Close()
			return nil, fmt.Errorf("failed to create notification producer: %w", err)
		}

		notificationDelivery, err = rabbitmq_adapter.NewNotificationEnqueueAdapter(notificationProducer)
		if err != nil {
			dbPool.Close()
			redisClient.Close()
			return nil, fmt.Errorf("failed to create notification enqueue adapter: %w", err)
		}
	} else {
		// Без брокера уведомления никуда не передать: тик будет считать
		// такие поиски неуспешными и оставлять их due.
		appLogger.Warn("RabbitMQ is disabled, notification delivery is unavailable", nil)
		notificationDelivery = &noopDelivery{}
	}

	appLogger.Info("All persistence and messaging adapters initialized.", nil)

	// --- 5. USE CASES ---
	searchRecordsUseCase := usecase.NewSearchRecordsUseCase(recordRepo)
	saveSearchUseCase := usecase.NewSaveSearchUseCase(savedSearchRepo)
	getSavedSearchUseCase := usecase.NewGetSavedSearchUseCase(savedSearchRepo)
	listSavedSearchesUseCase := usecase.NewListSavedSearchesUseCase(savedSearchRepo)
	updateSavedSearchUseCase := usecase.NewUpdateSavedSearchUseCase(savedSearchRepo)
	deleteSavedSearchUseCase := usecase.NewDeleteSavedSearchUseCase(savedSearchRepo)
	executeSavedSearchUseCase := usecase.NewExecuteSavedSearchUseCase(savedSearchRepo, recordRepo)
	runTickUseCase := usecase.NewRunNotificationTickUseCase(
		savedSearchRepo, recordRepo, notificationDelivery, tickLock,
		appConfig.Scheduler.Concurrency, appConfig.Scheduler.SearchTimeout,
	)

	// --- 6. ВХОДЯЩИЕ АДАПТЕРЫ ---
	var tickConsumer port.EventListenerPort
	if appConfig.RabbitMQ.Enabled {
		consumerCfg := rabbitmq_consumer.ConsumerConfig{
			Config:                 rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
			QueueName:              constants.QueueSchedulerTicks,
			DeclareQueue:           true,
			DurableQueue:           true,
			ExchangeNameForBind:    constants.SchedulerExchange,
			DeclareExchangeForBind: true,
			ExchangeTypeForBind:    "topic",
			DurableExchangeForBind: true,
			RoutingKeyForBind:      constants.RoutingKeySchedulerTick,
			PrefetchCount:          1,
			ConsumerTag:            appConfig.AppName + "-tick-consumer",

			EnableRetryMechanism: true,
			RetryExchange:        constants.QueueSchedulerTicks + "_retry_exchange",
			RetryQueue:           constants.QueueSchedulerTicks + "_wait_queue",
			RetryTTL:             30000,
			FinalDLXExchange:     constants.FinalDLXExchange,
			FinalDLQ:             constants.FinalDLQ,
			FinalDLQRoutingKey:   constants.FinalDLQRoutingKey,
			MaxRetries:           3,
		}

		tickConsumer, err = rabbitmq_adapter.NewTickConsumerAdapter(consumerCfg, runTickUseCase, baseLogger, connManager)
		if err != nil {
			appLogger.Error("Failed to create tick consumer", err, nil)
			dbPool.Close()
			redisClient.Close()
			return nil, fmt.Errorf("failed to create tick consumer: %w", err)
		}
	}

	var cronTrigger port.EventListenerPort
	if appConfig.Scheduler.CronEnabled {
		cronTrigger, err = cron_adapter.NewTickTrigger(appConfig.Scheduler.CronSpec, runTickUseCase, baseLogger)
		if err != nil {
			dbPool.Close()
			redisClient.Close()
			return nil, fmt.Errorf("failed to create cron tick trigger: %w", err)
		}
	}

	// --- 7. REST API ---
	searchHandler := rest.NewSearchHandler(searchRecordsUseCase)
	savedSearchHandler := rest.NewSavedSearchHandler(
		saveSearchUseCase, getSavedSearchUseCase, listSavedSearchesUseCase,
		updateSavedSearchUseCase, deleteSavedSearchUseCase, executeSavedSearchUseCase,
	)
	schedulerHandler := rest.NewSchedulerHandler(runTickUseCase)
	apiServer := rest.NewServer(appConfig.Rest.PORT, searchHandler, savedSearchHandler, schedulerHandler, baseLogger)
	appLogger.Info("REST API server configured.", nil)

	application := &App{
		config:    appConfig,
		dbPool:    dbPool,
		apiServer: apiServer,

		redisClient:          redisClient,
		notificationProducer: notificationProducer,
		tickConsumer:         tickConsumer,
		cronTrigger:          cronTrigger,

		fluentClient: fluentClient,
		logger:       appLogger,
	}

	return application, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	// Единый контекст приложения для graceful shutdown
	appCtx, cancelApp := context.WithCancel(context.Background())

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		if a.apiServer != nil {
			if err := a.apiServer.Stop(context.Background()); err != nil {
				a.logger.Error("Error during API server shutdown", err, nil)
			}
		}

		if a.tickConsumer != nil {
			if err := a.tickConsumer.Close(); err != nil {
				a.logger.Error("Error during tick consumer shutdown", err, nil)
			}
		}

		if a.cronTrigger != nil {
			if err := a.cronTrigger.Close(); err != nil {
				a.logger.Error("Error during cron trigger shutdown", err, nil)
			}
		}

		if a.notificationProducer != nil {
			if err := a.notificationProducer.Close(); err != nil {
				a.logger.Error("Error closing notification producer", err, nil)
			}
		}

		if a.redisClient != nil {
			if err := a.redisClient.Close(); err != nil {
				a.logger.Error("Error closing redis client", err, nil)
			}
		}

		if a.dbPool != nil {
			a.dbPool.Close()
			a.logger.Info("PostgreSQL pool closed.", nil)
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				// Логируем в stdout, так как fluent может быть уже недоступен
				fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.PORT})
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	if a.tickConsumer != nil {
		go func() {
			a.logger.Info("Starting scheduler tick consumer...", nil)
			if err := a.tickConsumer.Start(appCtx); err != nil {
				serverErrors <- fmt.Errorf("tick consumer failed: %w", err)
			}
		}()
	}

	if a.cronTrigger != nil {
		if err := a.cronTrigger.Start(appCtx); err != nil {
			cancelApp()
			return fmt.Errorf("failed to start cron trigger: %w", err)
		}
	}

	// Ожидание сигнала на завершение или ошибки от одного из компонентов
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down...", nil)
	case err := <-serverErrors:
		a.logger.Error("Server failed to start, shutting down", err, nil)
	}

	cancelApp()

	return nil
}

// noopDelivery - заглушка доставки на случай выключенного брокера.
// Всегда возвращает ошибку, чтобы тик не помечал поиски отправленными.
type noopDelivery struct{}

func (d *noopDelivery) Deliver(ctx context.Context, n port.Notification) error {
	return fmt.Errorf("notification delivery is disabled: rabbitmq is not configured")
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// Возвращаем безопасное значение по умолчанию и логируем предупреждение
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
