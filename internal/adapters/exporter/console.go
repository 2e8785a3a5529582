package exporter

import (
	"fmt"
	"io"
	"os"

	"chat-wrapped/internal/domain"
	"chat-wrapped/internal/ports"
)

// ConsoleExporter реализует интерфейс Exporter для вывода сводки в консоль.
type ConsoleExporter struct {
	out    io.Writer
	layout Layout
}

// NewConsoleExporter создает новый экземпляр ConsoleExporter.
// Если out равен nil, вывод идет в os.Stdout.
func NewConsoleExporter(out io.Writer, layout Layout) ports.Exporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleExporter{out: out, layout: layout}
}

// Export выводит сводку отчета.
func (e *ConsoleExporter) Export(report *domain.WrappedReport) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if _, err := io.WriteString(e.out, RenderSummary(report, e.layout)); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
