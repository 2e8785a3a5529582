package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chat-wrapped/internal/adapters/source"
	"chat-wrapped/internal/cache"
	"chat-wrapped/internal/domain"
	"chat-wrapped/internal/metrics"
	"chat-wrapped/internal/pkg/config"
	"chat-wrapped/internal/ports"
)

// ErrInsufficientData возвращается, если во входных данных слишком мало сообщений и слов.
var ErrInsufficientData = errors.New("not enough chat data found, paste a longer conversation")

const tracerName = "chat-wrapped/usecase"

// ProcessChatUseCase инкапсулирует бизнес-логику построения отчета по выгрузке переписки.
type ProcessChatUseCase struct {
	cfg        *config.Config
	analyzer   ports.ChatAnalyzer
	persona    ports.PersonaService
	cacheStore *cache.CacheStore
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// NewProcessChatUseCase создает новый экземпляр ProcessChatUseCase.
// persona может быть nil: тогда отчет содержит только статистику.
func NewProcessChatUseCase(
	cfg *config.Config,
	analyzer ports.ChatAnalyzer,
	persona ports.PersonaService,
	cacheStore *cache.CacheStore,
	m *metrics.Metrics,
) *ProcessChatUseCase {
	return &ProcessChatUseCase{
		cfg:        cfg,
		analyzer:   analyzer,
		persona:    persona,
		cacheStore: cacheStore,
		metrics:    m,
		tracer:     otel.Tracer(tracerName),
	}
}

// ProcessChat строит отчет по файлу выгрузки.
func (uc *ProcessChatUseCase) ProcessChat(ctx context.Context, filePath string) (*domain.WrappedReport, error) {
	ds := source.NewFileSource(filePath, uc.cfg.Server.MaxUploadSizeMB<<20)
	data, err := ds.Fetch()
	if err != nil {
		return nil, fmt.Errorf("не удалось извлечь данные из %s: %w", filePath, err)
	}
	return uc.process(ctx, data)
}

// ProcessText строит отчет по вставленному тексту.
func (uc *ProcessChatUseCase) ProcessText(ctx context.Context, text string) (*domain.WrappedReport, error) {
	data, err := source.NewTextSource(text).Fetch()
	if err != nil {
		return nil, fmt.Errorf("не удалось получить текст: %w", err)
	}
	return uc.process(ctx, data)
}

func (uc *ProcessChatUseCase) process(ctx context.Context, data []byte) (*domain.WrappedReport, error) {
	ctx, span := uc.tracer.Start(ctx, "ProcessChat")
	defer span.End()

	hash := cache.CalculateHash(data)
	span.SetAttributes(attribute.String("input.hash", hash), attribute.Int("input.bytes", len(data)))

	if cachedItem, found := uc.cacheStore.Get(hash); found {
		uc.metrics.CacheLookup(true)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		slog.Info("Попадание в кеш", "hash", hash)
		return cachedItem.Report, nil
	}
	uc.metrics.CacheLookup(false)

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := uc.analyze(ctx, data)
	stats := result.Stats
	slog.Info("Анализ завершен",
		"hash", hash,
		"total_messages", stats.TotalMessages,
		"word_count", stats.WordCount,
		"sample_length", len(result.SampleText),
	)

	if stats.IsInsufficient() {
		span.SetStatus(codes.Error, ErrInsufficientData.Error())
		return nil, ErrInsufficientData
	}

	report := &domain.WrappedReport{Stats: stats}

	if uc.persona == nil {
		uc.metrics.PersonaResult("skipped")
		slog.Info("Генератор не настроен, персона не создается")
	} else {
		persona, err := uc.generatePersona(ctx, stats, result.SampleText)
		if err != nil {
			uc.metrics.PersonaResult("error")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("не удалось сгенерировать персону: %w", err)
		}
		uc.metrics.PersonaResult("generated")
		report.Persona = persona
	}

	ttl := uc.cfg.Processing.CacheTTL
	uc.cacheStore.Put(hash, report, ttl)
	slog.Info("Результат кеширован", "hash", hash, "ttl", ttl.String())

	return report, nil
}

func (uc *ProcessChatUseCase) analyze(ctx context.Context, data []byte) domain.AnalysisResult {
	_, span := uc.tracer.Start(ctx, "Analyze")
	defer span.End()

	result := uc.analyzer.Analyze(string(data))
	uc.metrics.ObserveAnalysis(result.Stats.TotalMessages, result.Stats.IsInsufficient())
	span.SetAttributes(
		attribute.Int("stats.total_messages", result.Stats.TotalMessages),
		attribute.Int("stats.word_count", result.Stats.WordCount),
	)
	return result
}

func (uc *ProcessChatUseCase) generatePersona(ctx context.Context, stats domain.ChatStats, sample string) (*domain.Persona, error) {
	ctx, span := uc.tracer.Start(ctx, "GeneratePersona")
	defer span.End()

	persona, err := uc.persona.Generate(ctx, stats, sample)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("persona.archetype", persona.Archetype))
	return persona, nil
}
