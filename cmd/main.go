package main

import (
	"briefly/internal/bot"
	"briefly/internal/config"
	"briefly/internal/database"
	"briefly/internal/httpapi"
	"briefly/internal/scheduler"
	"briefly/internal/summarizer"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	s := initGeminiSummarizer(ctx, cfg, log)

	db, err := initDatabase(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}

	var (
		handlerJournal httpapi.Journal
		botJournal     bot.Journal
	)
	if db != nil {
		defer func() {
			if err = db.Close(); err != nil {
				log.ErrorContext(ctx, "Failed to close db",
					"error", err,
					"dbPath", cfg.DBPath)
			}
		}()

		handlerJournal = db
		botJournal = db

		sched := scheduler.New(ctx, db, cfg.JournalRetention, log)
		if err = sched.Start(); err != nil {
			log.ErrorContext(ctx, "Failed to start scheduler",
				"error", err,
				"spec", scheduler.PruneJournalSpec)

			return
		}
		defer sched.Stop()
		log.InfoContext(ctx, "Scheduler is started",
			"spec", scheduler.PruneJournalSpec,
			"retention", cfg.JournalRetention.String(),
			"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	if cfg.TelegramToken != "" {
		botInst, botErr := bot.New(cfg.TelegramToken, s, botJournal, cfg.AllowedUsers, log)
		if botErr != nil {
			log.ErrorContext(ctx, "Failed to initialize bot",
				"error", botErr,
				"allowedUsersCount", len(cfg.AllowedUsers))

			return
		}

		wg.Go(func() {
			botInst.Start(ctx)
		})
		log.InfoContext(ctx, "Bot is started",
			"allowedUsersCount", len(cfg.AllowedUsers))
	}

	handler := httpapi.NewSummaryHandler(s, handlerJournal, cfg.MaxBodyBytes, log)
	srv := httpapi.NewServer(cfg.Addr, handler, log)

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- srv.ListenAndServe()
	}()
	log.InfoContext(ctx, "HTTP server is started",
		"addr", cfg.Addr,
		"path", httpapi.SummarizePath)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case serveErr := <-serveErrCh:
		if !errors.Is(serveErr, http.ErrServerClosed) {
			log.ErrorContext(ctx, "HTTP server failed",
				"error", serveErr,
				"addr", cfg.Addr)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(shutdownCtx, "Failed to shut down HTTP server",
			"error", err,
			"timeout", shutdownTimeout.String())
	}

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())
}

func initDatabase(ctx context.Context, cfg config.Config, log *slog.Logger) (*database.Database, error) {
	if cfg.DBPath == "" {
		log.InfoContext(ctx, "DB_PATH is empty so request journal is disabled",
			"envVar", "DB_PATH")

		return nil, nil //nolint:nilnil // Journal is optional.
	}

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		return nil, err
	}

	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	return db, nil
}

func initGeminiSummarizer(ctx context.Context, cfg config.Config, log *slog.Logger) summarizer.Summarizer {
	if cfg.GeminiAPIKey == "" {
		log.WarnContext(ctx, "GEMINI_API_KEY is missing so summary requests will be rejected",
			"envVar", "GEMINI_API_KEY")

		return nil
	}

	s, err := summarizer.NewGeminiSummarizer(
		cfg.GeminiAPIKey,
		cfg.GeminiBaseURL,
		cfg.GeminiModel,
		cfg.GeminiTimeout,
		log,
	)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create Gemini summarizer so summary requests will be rejected",
			"error", err,
			"baseURL", cfg.GeminiBaseURL,
			"model", cfg.GeminiModel)

		return nil
	}

	log.InfoContext(ctx, "Gemini summarizer is initialized",
		"provider", "gemini",
		"model", cfg.GeminiModel)

	return s
}
