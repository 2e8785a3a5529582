package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chat-wrapped/internal/domain"
	"chat-wrapped/internal/ports"
)

// errIncompletePersona возвращается, если модель вернула персону без архетипа.
var errIncompletePersona = errors.New("generated persona has no archetype")

// PersonaConfig хранит конфигурацию для PersonaService.
type PersonaConfig struct {
	// OperationTimeout — таймаут одного обращения к модели.
	OperationTimeout time.Duration
	// MaxAttempts — число попыток до перехода на запасную персону.
	MaxAttempts int
	// RetryPause — пауза между попытками.
	RetryPause time.Duration
}

// PersonaOption — функциональная опция для настройки PersonaService.
type PersonaOption func(*PersonaService)

// WithOperationTimeout устанавливает таймаут для одного обращения к модели.
func WithOperationTimeout(d time.Duration) PersonaOption {
	return func(s *PersonaService) {
		if d > 0 {
			s.config.OperationTimeout = d
		}
	}
}

// WithMaxAttempts устанавливает число попыток генерации.
func WithMaxAttempts(n int) PersonaOption {
	return func(s *PersonaService) {
		if n > 0 {
			s.config.MaxAttempts = n
		}
	}
}

// WithRetryPause устанавливает паузу между попытками.
func WithRetryPause(d time.Duration) PersonaOption {
	return func(s *PersonaService) {
		s.config.RetryPause = d
	}
}

// WithClock подменяет источник текущего времени (год в запросе).
func WithClock(now func() time.Time) PersonaOption {
	return func(s *PersonaService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger устанавливает логгер для сервиса.
func WithLogger(l *slog.Logger) PersonaOption {
	return func(s *PersonaService) {
		if l != nil {
			s.log = l
		}
	}
}

// PersonaService получает персону от генеративной модели через роутер клиентов.
// Если все попытки неудачны, возвращается запасная персона, а не ошибка.
// Сервис не хранит состояние и безопасен для одновременного использования.
type PersonaService struct {
	router ports.Router
	config PersonaConfig
	now    func() time.Time
	log    *slog.Logger
}

// NewPersonaService создает новый PersonaService с конфигурацией по умолчанию,
// которая может быть переопределена опциями.
func NewPersonaService(r ports.Router, opts ...PersonaOption) *PersonaService {
	s := &PersonaService{
		router: r,
		config: PersonaConfig{
			OperationTimeout: 90 * time.Second,
			MaxAttempts:      2,
			RetryPause:       2 * time.Second,
		},
		now: time.Now,
		log: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Generate строит запрос по статистике и выборке и возвращает персону.
// Ошибка возвращается только при отмене контекста.
func (s *PersonaService) Generate(ctx context.Context, stats domain.ChatStats, sampleText string) (*domain.Persona, error) {
	prompt := BuildAnalysisPrompt(stats, sampleText, s.now().Year())
	cfg := s.config

	s.log.InfoContext(ctx, "Starting persona generation",
		"total_messages", stats.TotalMessages,
		"sample_len", len(sampleText),
		"max_attempts", cfg.MaxAttempts,
	)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("генерация персоны отменена: %w", err)
		}

		persona, err := s.executeOperation(ctx, &cfg, prompt)
		if err == nil {
			s.log.InfoContext(ctx, "Persona generated", "attempt", attempt, "archetype", persona.Archetype)
			return persona, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("генерация персоны отменена: %w", ctx.Err())
		}

		s.log.WarnContext(ctx, "Persona generation attempt failed", "attempt", attempt, "error", err)

		if attempt < cfg.MaxAttempts && cfg.RetryPause > 0 {
			select {
			case <-time.After(cfg.RetryPause):
			case <-ctx.Done():
				return nil, fmt.Errorf("генерация персоны отменена: %w", ctx.Err())
			}
		}
	}

	s.log.WarnContext(ctx, "All persona generation attempts failed, using fallback persona", "error", lastErr)
	return domain.FallbackPersona(), nil
}

func (s *PersonaService) executeOperation(ctx context.Context, cfg *PersonaConfig, prompt string) (*domain.Persona, error) {
	client, err := s.router.GetClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить клиент: %w", err)
	}

	s.log.DebugContext(ctx, "Obtained client successfully", "client_id", client.ID())

	opCtx, cancel := context.WithTimeout(ctx, cfg.OperationTimeout)
	defer cancel()

	persona, err := client.Generate(opCtx, SystemInstruction, prompt)
	if err != nil {
		return nil, fmt.Errorf("операция генерации завершилась с ошибкой: %w", err)
	}
	if persona == nil || persona.Archetype == "" {
		return nil, errIncompletePersona
	}
	return persona, nil
}

var _ ports.PersonaService = (*PersonaService)(nil)
