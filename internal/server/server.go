package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"chat-wrapped/internal/adapters/report"
	"chat-wrapped/internal/cache"
	"chat-wrapped/internal/core/services"
	"chat-wrapped/internal/domain"
	"chat-wrapped/internal/metrics"
	"chat-wrapped/internal/pkg/config"
	"chat-wrapped/internal/ports"
	"chat-wrapped/internal/server/usecase"
)

const maxReportSize = 1 << 20

// ChatProcessor определяет интерфейс для варианта использования, который строит отчеты.
type ChatProcessor interface {
	ProcessChat(ctx context.Context, filePath string) (*domain.WrappedReport, error)
	ProcessText(ctx context.Context, text string) (*domain.WrappedReport, error)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer   *http.Server
	cfg          *config.Config
	taskStore    *TaskStore
	cacheStore   *cache.CacheStore
	processor    ChatProcessor
	reportParser ports.ReportParser
	metrics      *metrics.Metrics
	limiter      *IPRateLimiter
	now          func() time.Time
	maxUpload    int64
	taskTTL      time.Duration

	// baseCtx отменяется при Shutdown и останавливает фоновые задачи и тикеры.
	baseCtx context.Context
	cancel  context.CancelFunc
}

// New создает новый экземпляр Server
func New(
	cfg *config.Config,
	processor ChatProcessor,
	reportParser ports.ReportParser,
	taskStore *TaskStore,
	cacheStore *cache.CacheStore,
	m *metrics.Metrics,
) (*Server, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if reportParser == nil {
		reportParser = report.NewManualParser()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:          cfg,
		taskStore:    taskStore,
		cacheStore:   cacheStore,
		processor:    processor,
		reportParser: reportParser,
		metrics:      m,
		now:          time.Now,
		maxUpload:    int64(config.DefaultMaxUploadSizeMB) << 20,
		taskTTL:      config.DefaultTaskTTL,
		baseCtx:      ctx,
		cancel:       cancel,
	}

	if cfg.Server.MaxUploadSizeMB > 0 {
		s.maxUpload = cfg.Server.MaxUploadSizeMB << 20
	}
	if cfg.Processing.TaskTTL > 0 {
		s.taskTTL = cfg.Processing.TaskTTL
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		s.limiter = NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cleanupInterval(cfg))
	}

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      otelhttp.NewHandler(s.routes(), "chat-wrapped"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	s.taskStore.StartCleanupTicker(ctx, cleanupInterval(cfg))
	s.cacheStore.StartCleanupTicker(ctx, cleanupInterval(cfg))

	return s, nil
}

func cleanupInterval(cfg *config.Config) time.Duration {
	if cfg.Processing.CleanupInterval > 0 {
		return cfg.Processing.CleanupInterval
	}
	return config.DefaultCleanupInterval
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware(s.metrics))
		}

		r.Post("/process", s.handleProcess)
		r.Post("/process-by-hash", s.handleProcessByHash)
		r.Get("/tasks/{taskID}", s.handleTaskStatus)
		r.Get("/tasks/{taskID}/result", s.handleTaskResult)
		r.Get("/prompt/manual", s.handleManualPrompt)
		r.Post("/reports/parse", s.handleParseReport)
	})

	return r
}

// handleProcess принимает файл выгрузки (поле file) или вставленный текст (поле text).
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	if err := r.ParseMultipartForm(s.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Файл слишком большой", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Не удалось разобрать форму", http.StatusBadRequest)
		return
	}

	taskID := uuid.NewString()

	file, _, err := r.FormFile("file")
	if err == nil {
		defer file.Close()

		tempFilePath := filepath.Join(os.TempDir(), fmt.Sprintf("chat_%s.json", taskID))
		if err := saveUpload(tempFilePath, file); err != nil {
			slog.Error("Не удалось сохранить загруженный файл", "error", err, "task_id", taskID)
			http.Error(w, "Не удалось сохранить загруженный файл", http.StatusInternalServerError)
			return
		}

		s.startTask(taskID, func(ctx context.Context) (*domain.WrappedReport, error) {
			defer os.Remove(tempFilePath)
			return s.processor.ProcessChat(ctx, tempFilePath)
		})
		writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
		return
	}

	text := r.FormValue("text")
	if strings.TrimSpace(text) == "" {
		http.Error(w, "Требуется файл или текст", http.StatusBadRequest)
		return
	}

	s.startTask(taskID, func(ctx context.Context) (*domain.WrappedReport, error) {
		return s.processor.ProcessText(ctx, text)
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func saveUpload(path string, src io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("не удалось создать временный файл: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(path)
		return fmt.Errorf("не удалось записать временный файл: %w", err)
	}
	return nil
}

// startTask регистрирует задачу и выполняет работу в отдельной горутине.
func (s *Server) startTask(taskID string, work func(ctx context.Context) (*domain.WrappedReport, error)) {
	s.taskStore.CreateTask(taskID, s.taskTTL)

	go func() {
		s.metrics.TaskStarted()
		defer s.metrics.TaskFinished()

		_ = s.taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

		taskCtx := s.baseCtx
		if s.cfg.Processing.TaskTimeout > 0 {
			var cancel context.CancelFunc
			taskCtx, cancel = context.WithTimeout(s.baseCtx, s.cfg.Processing.TaskTimeout)
			defer cancel()
		}

		result, err := work(taskCtx)
		if err != nil {
			level := slog.LevelError
			if errors.Is(err, usecase.ErrInsufficientData) {
				level = slog.LevelInfo
			}
			slog.Log(taskCtx, level, "Задача завершилась ошибкой", "task_id", taskID, "error", err)
			_ = s.taskStore.UpdateTaskError(taskID, err.Error())
			return
		}

		_ = s.taskStore.UpdateTaskResult(taskID, result)
		slog.Info("Задача выполнена", "task_id", taskID, "total_messages", result.Stats.TotalMessages)
	}()
}

func (s *Server) handleProcessByHash(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Не удалось декодировать тело запроса", http.StatusBadRequest)
		return
	}
	if req.Hash == "" {
		http.Error(w, "Требуется хеш", http.StatusBadRequest)
		return
	}

	taskID := uuid.NewString()
	s.startTask(taskID, func(ctx context.Context) (*domain.WrappedReport, error) {
		if cachedItem, found := s.cacheStore.Get(req.Hash); found {
			s.metrics.CacheLookup(true)
			slog.Info("Попадание в кеш для хеша", "hash", req.Hash, "task_id", taskID)
			return cachedItem.Report, nil
		}
		s.metrics.CacheLookup(false)
		slog.Info("Промах кеша для хеша", "hash", req.Hash, "task_id", taskID)
		return nil, errors.New("файл не найден в кеше для данного хеша")
	})

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskStore.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"task_id":       task.ID,
		"status":        task.Status,
		"error_message": task.ErrorMessage,
	})
}

func (s *Server) handleTaskResult(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskStore.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return
	}

	if task.Status != TaskStatusCompleted {
		http.Error(w, "Задача не завершена", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, task.Result)
}

func (s *Server) handleManualPrompt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, services.ManualAnalysisPrompt(s.now().Year()))
}

// handleParseReport разбирает отчет, который пользователь получил от ассистента по ручному запросу.
func (s *Server) handleParseReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReportSize))
	if err != nil {
		http.Error(w, "Не удалось прочитать тело запроса", http.StatusBadRequest)
		return
	}

	parsed, err := s.reportParser.Parse(string(body))
	if err != nil {
		if errors.Is(err, report.ErrUnreadableReport) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "Не удалось разобрать отчет", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, parsed)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Не удалось записать ответ", "error", err)
	}
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера и останавливает фоновые задачи
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Завершение работы HTTP-сервера")
	defer s.cancel()
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.HTTPServer.Shutdown(ctx)
}
