package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docqa/internal/ai"
	appsvc "docqa/internal/app"
	"docqa/internal/cache"
	"docqa/internal/config"
	"docqa/internal/docstore"
	"docqa/internal/pipeline"
	mysqlClient "docqa/internal/platform/mysql"
	rabbitmqClient "docqa/internal/platform/rabbitmq"
	redisClient "docqa/internal/platform/redis"
	"docqa/internal/repository"
	"docqa/internal/worker"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	MySQL    *gorm.DB
	Redis    *redis.Client
	MQConn   *amqp.Connection
	QAWorker *worker.QARecordPersistWorker

	Auth      *appsvc.AuthService
	Documents *appsvc.DocumentService

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}
	if err := a.connect(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	userRepo := repository.NewUserRepository(a.MySQL)
	sessionRepo := repository.NewSessionRepository(a.MySQL)
	documentRepo := repository.NewDocumentRepository(a.MySQL)
	qaRepo := repository.NewQARecordRepository(a.MySQL)

	a.QAWorker = worker.NewQARecordPersistWorker(a.MQConn, qaRepo, cfg.RabbitMQ.QARecordQueue, logger)
	if err := a.QAWorker.Start(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("start qa record worker failed: %w", err)
	}

	vectorCache := cache.NewRedisVectorCache(a.Redis, time.Duration(cfg.Redis.VectorTTLSeconds)*time.Second)
	pipe := NewPipeline(cfg, vectorCache, logger)

	a.Auth = appsvc.NewAuthService(
		userRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)
	a.Documents = appsvc.NewDocumentService(
		sessionRepo,
		documentRepo,
		qaRepo,
		rabbitmqClient.NewQARecordPublisher(a.MQConn, cfg.RabbitMQ.QARecordQueue),
		docstore.New(pipe, docstore.WithIndexTimeout(time.Duration(cfg.Pipeline.IndexTimeoutSeconds)*time.Second)),
		pipe,
		logger,
	)
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	var err error
	a.MySQL, err = mysqlClient.New(ctx, a.Config.MySQLDSN())
	if err != nil {
		return err
	}
	if err := mysqlClient.Migrate(ctx, a.MySQL); err != nil {
		return err
	}

	a.Redis, err = redisClient.New(ctx, a.Config.Redis)
	if err != nil {
		return err
	}

	a.MQConn, err = rabbitmqClient.New(ctx, a.Config.RabbitMQ.URL, a.Config.RabbitMQ.QARecordQueue)
	return err
}

// NewPipeline wires the model client and the pipeline options from cfg.
// vectorCache may be nil.
func NewPipeline(cfg *config.Config, vectorCache pipeline.VectorCache, logger *slog.Logger) *pipeline.Pipeline {
	client := ai.NewClient(ai.Config{
		BaseURL:            cfg.LLM.BaseURL,
		APIKey:             cfg.LLM.APIKey,
		EmbeddingModel:     cfg.LLM.EmbeddingModel,
		ChatModel:          cfg.LLM.Model,
		EmbeddingBatchSize: cfg.LLM.EmbeddingBatchSize,
		AnswerMaxTokens:    cfg.LLM.AnswerMaxTokens,
		Timeout:            time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		MaxRetryElapsed:    time.Duration(cfg.LLM.MaxRetrySeconds) * time.Second,
	})

	opts := pipeline.Options{
		MinChunkLen:      cfg.Pipeline.MinChunkLen,
		SummaryWidth:     cfg.Pipeline.SummaryWidth,
		SummaryMinTokens: cfg.Pipeline.SummaryMinTokens,
		SummaryMaxTokens: cfg.Pipeline.SummaryMaxTokens,
		MinAnswerScore:   cfg.Pipeline.MinAnswerScore,
		DedupeSummaries:  cfg.Pipeline.DedupeSummaries,
		CacheNamespace:   client.EmbeddingModel(),
		Cache:            vectorCache,
		Logger:           logger,
	}
	return pipeline.New(client, client, client, opts)
}

// Checks returns the dependency probes reported by the health endpoint.
func (a *App) Checks() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"mysql": func(ctx context.Context) error {
			sqlDB, err := a.MySQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		},
		"rabbitmq": func(context.Context) error {
			if a.MQConn == nil || a.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		},
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.QAWorker != nil {
		a.QAWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		if err := mysqlClient.Close(a.MySQL); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
