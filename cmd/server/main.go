package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sevlyar/go-daemon"

	"chat-wrapped/internal/adapters/parser"
	"chat-wrapped/internal/adapters/report"
	"chat-wrapped/internal/cache"
	"chat-wrapped/internal/core/services"
	"chat-wrapped/internal/generator/router"
	"chat-wrapped/internal/log"
	"chat-wrapped/internal/metrics"
	"chat-wrapped/internal/pkg/config"
	"chat-wrapped/internal/ports"
	"chat-wrapped/internal/server"
	"chat-wrapped/internal/server/usecase"
)

func main() {
	configPath := flag.String("config", "config.yml", "путь к файлу конфигурации")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run(configPath string) error {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Логгер с маскировкой ключей API
	logger := log.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	// 3. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Запуск в фоне, если это включено в конфигурации
	if cfg.Server.Daemon.Enabled {
		dctx := &daemon.Context{
			PidFileName: cfg.Server.Daemon.PIDFile,
			PidFilePerm: 0o644,
			LogFileName: cfg.Server.Daemon.LogFile,
			LogFilePerm: 0o640,
			WorkDir:     cfg.Server.Daemon.WorkDir,
			Umask:       0o027,
		}
		child, err := dctx.Reborn()
		if err != nil {
			return fmt.Errorf("failed to daemonize: %w", err)
		}
		if child != nil {
			slog.Info("Server started in background", "pid", child.Pid, "pid_file", cfg.Server.Daemon.PIDFile)
			return nil
		}
		defer func() {
			if err := dctx.Release(); err != nil {
				slog.Warn("failed to release pid file", "error", err)
			}
		}()
	}

	// 5. Генеративная модель. Без ключей сервис работает только со статистикой.
	var personaSvc ports.PersonaService
	var genRouter *router.Router
	if endpoints := cfg.GetGeneratorEndpoints(); len(endpoints) > 0 {
		genRouter, err = router.NewRouter(
			router.WithLogger(logger.With("component", "generator")),
			router.WithEndpoints(endpoints),
			router.WithHealthCheckInterval(cfg.Generator.HealthCheckInterval),
		)
		if err != nil {
			return fmt.Errorf("failed to create generator router: %w", err)
		}
		defer genRouter.Stop()

		personaSvc = services.NewPersonaService(genRouter,
			services.WithOperationTimeout(cfg.Persona.OperationTimeout),
			services.WithMaxAttempts(cfg.Persona.MaxAttempts),
			services.WithRetryPause(cfg.Persona.RetryPause),
			services.WithLogger(logger.With("component", "persona")),
		)
		slog.Info("Persona generation enabled", "endpoints", len(endpoints))
	} else {
		slog.Warn("No generator endpoints configured, persona generation disabled")
	}

	// 6. Анализатор
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("invalid analyzer timezone: %w", err)
	}
	analyzerOpts := []services.AnalyzerOption{services.WithLocation(loc)}
	if seed := cfg.Analyzer.SampleSeed; seed != 0 {
		analyzerOpts = append(analyzerOpts, services.WithRandom(rand.New(rand.NewPCG(seed, seed))))
	}
	analyzer := services.NewAnalyzer(parser.NewExportParser(), analyzerOpts...)

	// 7. Инициализация зависимостей
	m := metrics.New()
	taskStore := server.NewTaskStore()
	cacheStore := cache.NewCacheStore()
	processor := usecase.NewProcessChatUseCase(cfg, analyzer, personaSvc, cacheStore, m)

	srv, err := server.New(cfg, processor, report.NewManualParser(), taskStore, cacheStore, m)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// 8. Запуск сервера и graceful shutdown
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		slog.Info("Starting server", "addr", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		slog.Info("Signal received, shutting down...")
	case <-serverDone:
		return errors.New("http server stopped unexpectedly")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	<-serverDone
	slog.Info("Application exited gracefully")
	return nil
}
