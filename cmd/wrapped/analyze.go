package main

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"chat-wrapped/internal/adapters/parser"
	"chat-wrapped/internal/adapters/source"
	"chat-wrapped/internal/cache"
	"chat-wrapped/internal/core/services"
	"chat-wrapped/internal/pkg/config"
	"chat-wrapped/internal/ports"
	"chat-wrapped/internal/server/usecase"
)

var errNoAPIKey = errors.New("persona needs an API key: pass --api-key or set GEMINI_API_KEY")

type analyzeOptions struct {
	configPath string
	persona    bool
	apiKey     string
	timezone   string
	seed       uint64
	output     outputOptions
}

func newAnalyzeCmd(d deps) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze [conversations.json | -]",
		Short: "Analyze a chat export or transcript",
		Long: `Analyze reads a ChatGPT export file, a transcript from stdin ("-"),
or, when run in a terminal without arguments, a pasted transcript.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, d, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "config.yml", "path to the server config file")
	cmd.Flags().BoolVar(&opts.persona, "persona", false, "generate a persona with the generative model")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "Gemini API key for --persona")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "", "timezone for the active hours histogram")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "fix the text sample for reproducible personas")
	opts.output.bind(cmd)

	return cmd
}

func runAnalyze(cmd *cobra.Command, d deps, opts analyzeOptions, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.timezone != "" {
		cfg.Analyzer.Timezone = opts.timezone
	}
	if opts.seed != 0 {
		cfg.Analyzer.SampleSeed = opts.seed
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	analyzerOpts := []services.AnalyzerOption{services.WithLocation(loc)}
	if seed := cfg.Analyzer.SampleSeed; seed != 0 {
		analyzerOpts = append(analyzerOpts, services.WithRandom(rand.New(rand.NewPCG(seed, seed))))
	}
	analyzer := services.NewAnalyzer(parser.NewExportParser(), analyzerOpts...)

	text, err := readInput(cmd, d, args, cfg.Server.MaxUploadSizeMB<<20)
	if err != nil {
		return err
	}

	var persona ports.PersonaService
	if opts.persona {
		if err := resolveAPIKey(cmd, d, cfg, opts.apiKey); err != nil {
			return err
		}
		svc, stop, err := d.newPersona(cfg)
		if err != nil {
			return err
		}
		defer stop()
		persona = svc
	}

	uc := usecase.NewProcessChatUseCase(cfg, analyzer, persona, cache.NewCacheStore(), nil)
	report, err := uc.ProcessText(ctx, text)
	if err != nil {
		return err
	}

	return opts.output.write(cmd.OutOrStdout(), report)
}

// readInput выбирает источник: файл, stdin или вставка в терминале.
func readInput(cmd *cobra.Command, d deps, args []string, maxBytes int64) (string, error) {
	var ds ports.DataSource
	switch {
	case len(args) == 1 && args[0] != "-":
		ds = source.NewFileSource(args[0], maxBytes)
	case len(args) == 0 && d.interactive():
		return d.terminal.ReadTranscript(cmd.Context())
	default:
		ds = source.NewReaderSource(cmd.InOrStdin(), maxBytes)
	}

	data, err := ds.Fetch()
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

// resolveAPIKey подставляет ключ из флага, конфигурации или терминала.
func resolveAPIKey(cmd *cobra.Command, d deps, cfg *config.Config, flagKey string) error {
	if flagKey != "" {
		cfg.Generator.Endpoints = nil
		cfg.Generator.APIKey = flagKey
		return nil
	}
	if len(cfg.GetGeneratorEndpoints()) > 0 {
		return nil
	}
	if !d.interactive() {
		return errNoAPIKey
	}

	key, err := d.terminal.APIKey(cmd.Context())
	if err != nil {
		return fmt.Errorf("%w: %v", errNoAPIKey, err)
	}
	cfg.Generator.APIKey = key
	return nil
}
