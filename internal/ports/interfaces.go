package ports

import (
	"context"

	"chat-wrapped/internal/domain"
)

// DataSource определяет интерфейс для получения исходных данных чата.
type DataSource interface {
	// Fetch загружает данные из источника и возвращает их в виде байтового среза.
	Fetch() ([]byte, error)
}

// Parser определяет интерфейс для разбора структурированного экспорта.
type Parser interface {
	// Parse преобразует сырые данные в список разговоров.
	// Возвращает ошибку, если данные не являются массивом разговоров.
	Parse(data []byte) ([]domain.ExportConversation, error)
}

// ChatAnalyzer определяет интерфейс анализатора переписки.
type ChatAnalyzer interface {
	// Analyze никогда не возвращает ошибку: любой ввод деградирует до анализируемого результата.
	Analyze(raw string) domain.AnalysisResult
}

// PersonaService определяет интерфейс генерации нарративной персоны
// по статистике и выборке текста.
type PersonaService interface {
	Generate(ctx context.Context, stats domain.ChatStats, sampleText string) (*domain.Persona, error)
}

// ReportParser определяет интерфейс разбора отчета, написанного моделью вручную.
type ReportParser interface {
	Parse(text string) (*domain.WrappedReport, error)
}

// Exporter определяет интерфейс для вывода результата.
type Exporter interface {
	// Export принимает итоговый отчет и выводит его.
	Export(report *domain.WrappedReport) error
}
