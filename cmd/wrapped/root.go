package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"chat-wrapped/internal/adapters/exporter"
	"chat-wrapped/internal/core/services"
	"chat-wrapped/internal/domain"
	"chat-wrapped/internal/generator/router"
	"chat-wrapped/internal/log"
	"chat-wrapped/internal/pkg/config"
	"chat-wrapped/internal/pkg/term"
	"chat-wrapped/internal/ports"
)

// deps собирает внешние зависимости команд, чтобы их можно было подменить в тестах.
type deps struct {
	terminal   *term.Terminal
	newPersona func(cfg *config.Config) (ports.PersonaService, func(), error)
	now        func() time.Time
}

func defaultDeps() deps {
	return deps{
		terminal:   term.NewTerminal(),
		newPersona: newPersonaService,
		now:        time.Now,
	}
}

// interactive сообщает, можно ли спрашивать пользователя через терминал.
func (d deps) interactive() bool {
	return d.terminal != nil && d.terminal.IsInteractive()
}

// outputOptions управляет выводом отчета.
type outputOptions struct {
	jsonOut  bool
	xlsxPath string
}

func (o *outputOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.jsonOut, "json", false, "print the report as JSON")
	cmd.Flags().StringVar(&o.xlsxPath, "xlsx", "", "also save the report as an Excel workbook")
}

func (o outputOptions) write(out io.Writer, report *domain.WrappedReport) error {
	if o.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	} else if err := exporter.NewConsoleExporter(out, exporter.DefaultLayout()).Export(report); err != nil {
		return err
	}

	if o.xlsxPath != "" {
		if err := exporter.NewExcelExporter(o.xlsxPath).Export(report); err != nil {
			return err
		}
		slog.Info("workbook saved", "path", o.xlsxPath)
	}
	return nil
}

func newRootCmd(d deps) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "wrapped",
		Short: "Year-in-review for your AI chat history",
		Long: `Wrapped reads a ChatGPT export (conversations.json) or a pasted transcript
and prints message counts, top keywords, active hours and an optional persona.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(log.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newAnalyzeCmd(d), newPromptCmd(d), newImportReportCmd(d))
	return root
}

// newPersonaService поднимает роутер моделей по конфигурации.
// Возвращаемая функция останавливает health-check роутера.
func newPersonaService(cfg *config.Config) (ports.PersonaService, func(), error) {
	r, err := router.NewRouter(
		router.WithLogger(slog.Default().With("component", "generator")),
		router.WithEndpoints(cfg.GetGeneratorEndpoints()),
		router.WithHealthCheckInterval(cfg.Generator.HealthCheckInterval),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create generator router: %w", err)
	}

	svc := services.NewPersonaService(r,
		services.WithOperationTimeout(cfg.Persona.OperationTimeout),
		services.WithMaxAttempts(cfg.Persona.MaxAttempts),
		services.WithRetryPause(cfg.Persona.RetryPause),
		services.WithLogger(slog.Default().With("component", "persona")),
	)
	return svc, r.Stop, nil
}
