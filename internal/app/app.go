package app

import (
	"context"
	"errors"
	"fmt"
	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamvkosarev/ai-interior-designer/config"
	"github.com/iamvkosarev/ai-interior-designer/internal/logging"
	in_memory "github.com/iamvkosarev/ai-interior-designer/internal/storage/in-memory"
	key_value "github.com/iamvkosarev/ai-interior-designer/internal/storage/key-value"
	"github.com/iamvkosarev/ai-interior-designer/internal/usecase"
	"github.com/iamvkosarev/ai-interior-designer/internal/web"
	"github.com/iamvkosarev/ai-interior-designer/pkg/local"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"
	"log/slog"
	"os"
)

type storages struct {
	sessions      usecase.SessionStorage
	telegramChats usecase.TelegramChatStorage
	close         func() error
}

func Run(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	slog.SetDefault(logger)
	language := local.ParseLanguage(cfg.Assistant.Language)

	store, err := newStorages(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			logger.Warn("failed to close storage", "error", err)
		}
	}()
	logger.Info("storage ready", "backend", cfg.Storage.Backend)

	geminiUsecase, err := usecase.NewGeminiUsecase(ctx, cfg.Gemini, cfg.Assistant, logger)
	if err != nil {
		return err
	}

	assistant, err := newAssistant(cfg, geminiUsecase, logger)
	if err != nil {
		return err
	}
	logger.Info("assistant ready", "provider", cfg.Assistant.Provider)

	sessionUsecase := usecase.NewSessionUsecase(
		usecase.SessionUsecaseDeps{
			SessionStorage: store.sessions,
			Images:         geminiUsecase,
			Assistant:      assistant,
			Logger:         logger,
		}, language,
	)
	defer sessionUsecase.Wait()

	server, err := web.NewServer(cfg.HTTP, sessionUsecase, language, logger)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	var telegramUsecase *usecase.TelegramUsecase
	if cfg.Telegram.Enabled {
		telegramUsecase, err = newTelegramUsecase(cfg, language, store, sessionUsecase, logger)
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      = conc.NewWaitGroup()
		errs    = make(chan error, 2)
		serveFn = func(name string, fn func(context.Context) error) {
			wg.Go(
				func() {
					if err := fn(ctx); err != nil {
						errs <- fmt.Errorf("%s: %w", name, err)
						cancel()
					}
				},
			)
		}
	)
	serveFn("web", server.ListenAndServe)
	if telegramUsecase != nil {
		serveFn("telegram", telegramUsecase.Run)
	}
	wg.Wait()
	close(errs)

	var runErr error
	for err := range errs {
		runErr = errors.Join(runErr, err)
	}
	logger.Info("waiting for background edits")
	return runErr
}

func newStorages(ctx context.Context, cfg *config.Config) (storages, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendRedis:
		rdb := redis.NewClient(
			&redis.Options{
				Addr:     cfg.Redis.Endpoint,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			},
		)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return storages{}, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return storages{
			sessions:      key_value.NewSessionStorage(rdb, cfg.Redis.SessionTTL),
			telegramChats: key_value.NewTelegramChatStorage(rdb, cfg.Redis.SessionTTL),
			close:         rdb.Close,
		}, nil
	default:
		return storages{
			sessions:      in_memory.NewSessionStorage(),
			telegramChats: in_memory.NewTelegramChatStorage(),
			close:         func() error { return nil },
		}, nil
	}
}

func newAssistant(cfg *config.Config, gemini *usecase.GeminiUsecase, logger *slog.Logger) (usecase.Assistant, error) {
	switch cfg.Assistant.Provider {
	case config.AssistantProviderOpenAI:
		openAIUsecase, err := usecase.NewOpenAIUsecase(cfg.OpenAI, cfg.Assistant, logger)
		if err != nil {
			return nil, err
		}
		return openAIUsecase, nil
	default:
		return gemini, nil
	}
}

func newTelegramUsecase(
	cfg *config.Config,
	language local.Language,
	store storages,
	sessionUsecase *usecase.SessionUsecase,
	logger *slog.Logger,
) (*usecase.TelegramUsecase, error) {
	bot, err := api.NewBotAPI(cfg.Telegram.TelegramAPIToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create new bot: %w", err)
	}
	logger.Info("authorized on telegram", "account", bot.Self.UserName)

	telegramChatUsecase := usecase.NewTelegramChatUsecase(
		usecase.TelegramChatUsecaseDeps{
			TelegramChatStorage: store.telegramChats,
			Sessions:            sessionUsecase,
		},
	)

	telegramUsecase, err := usecase.NewTelegramUsecase(
		cfg.Telegram, language, cfg.HTTP.MaxUploadBytes, usecase.TelegramUsecaseDeps{
			Chats:    telegramChatUsecase,
			Sessions: sessionUsecase,
			Bot:      bot,
			Logger:   logger,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram usecase: %w", err)
	}
	return telegramUsecase, nil
}
