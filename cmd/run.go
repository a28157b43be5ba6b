package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ovsienko/jobsieve/internal/ai"
	"github.com/ovsienko/jobsieve/internal/ai/gemini"
	"github.com/ovsienko/jobsieve/internal/ai/ollama"
	"github.com/ovsienko/jobsieve/internal/boards"
	"github.com/ovsienko/jobsieve/internal/content"
	"github.com/ovsienko/jobsieve/internal/jobs"
	"github.com/ovsienko/jobsieve/internal/ledger"
	"github.com/ovsienko/jobsieve/internal/logger"
	"github.com/ovsienko/jobsieve/internal/pipeline"
	"github.com/ovsienko/jobsieve/internal/report"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes            = "Yes"
	PromptNo             = "No"
	PromptPostingsToFile = "Dump postings to file"

	providerOllama = "ollama"
	providerGemini = "gemini"

	defaultOutputFile = "jobs.xlsx"
	defaultRPS        = 1
	defaultBurst      = 2
)

var prompt = promptui.Select{
	Label: "Evaluate these postings?",
	Items: []string{PromptYes, PromptNo, PromptPostingsToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the jobsieve main command",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before evaluating collected postings")
	runCmd.Flags().StringP("output", "o", "", "report file. Overrides the config value.")

	viper.BindPFlag("output.file", runCmd.Flags().Lookup("output"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the jobsieve", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	if len(config.Boards) == 0 {
		logger.Fatal("at least one board is required under the boards key")
	}

	resume, err := loadTextSource("resume", config.Resume)
	if err != nil {
		logger.Fatal("loading the resume", zap.Error(err))
	}

	criteria, err := loadTextSource("criteria", config.Criteria)
	if err != nil {
		logger.Fatal("loading the criteria", zap.Error(err))
	}

	seen, err := openLedger(config)
	if err != nil {
		logger.Fatal("opening the ledger", zap.Error(err))
	}
	defer seen.Close()

	targets, err := buildTargets(config, logger)
	if err != nil {
		logger.Fatal("preparing boards", zap.Error(err))
	}

	evaluator, err := newEvaluator(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("preparing the evaluator", zap.Error(err))
	}

	pipe := pipeline.New(targets, seen, evaluator, resume, criteria, logger)

	postings, skipped := pipe.Collect(ctx)

	logger.Info("collection finished", zap.Int("count", postings.Len()))

	if postings.Len() > 0 && cmd.Flag("auto-approve").Value.String() == "false" {
		if proceed := confirm(postings, logger); !proceed {
			return
		}
	}

	res, evalErr := pipe.Evaluate(ctx, postings, skipped)

	output := defaultOutputFile
	if config.Output != nil && strings.TrimSpace(config.Output.File) != "" {
		output = strings.TrimSpace(config.Output.File)
	}

	// The report keeps whatever was evaluated even when the run aborts.
	if err := report.Write(res, output); err != nil {
		if evalErr == nil {
			logger.Fatal("writing the report", zap.Error(err))
		}
		logger.Error("writing the report", zap.Error(err))
	} else {
		logger.Info("report written", zap.String("file", output), zap.Int("rows", len(res.Rows)))
	}

	res.LogSummary(logger)

	if evalErr != nil {
		logger.Fatal("evaluation aborted", zap.Error(evalErr))
	}
}

// confirm asks what to do with the collected postings. Returns false when the
// user declined the evaluation.
func confirm(postings *jobs.Postings, logger *zap.Logger) bool {
	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		switch action {
		case PromptYes:
			return true
		case PromptNo:
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return false
		case PromptPostingsToFile:
			filename, err := postings.DumpToTmpFile()
			if err != nil {
				logger.Fatal("dumping postings to file", zap.Error(err))
			}
			logger.Info("dumping postings to file", zap.String("filename", filename))
		}
	}
}

func loadTextSource(name string, src *TextSource) (string, error) {
	if src == nil {
		return "", fmt.Errorf("%s is required: set %s.text or %s.file in the configuration file", name, name, name)
	}

	return content.Load(content.Source{
		Name: name,
		Text: src.Text,
		File: src.File,
	})
}

func openLedger(config *Config) (ledger.Ledger, error) {
	if config.Ledger == nil || strings.TrimSpace(config.Ledger.Path) == "" {
		return ledger.NewMemory(), nil
	}

	return ledger.OpenSQLite(strings.TrimSpace(config.Ledger.Path))
}

func buildTargets(config *Config, logger *zap.Logger) ([]pipeline.Target, error) {
	rps := float64(defaultRPS)
	burst := defaultBurst
	if config.Scrape != nil {
		if config.Scrape.RequestsPerSecond > 0 {
			rps = config.Scrape.RequestsPerSecond
		}
		if config.Scrape.Burst > 0 {
			burst = config.Scrape.Burst
		}
	}

	client := boards.NewClient(logger, rps, burst)
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}

	targets := make([]pipeline.Target, 0, len(config.Boards))
	for _, b := range config.Boards {
		source, err := boards.New(b.Board, client)
		if err != nil {
			return nil, err
		}

		targets = append(targets, pipeline.Target{
			Source: source,
			Query: boards.Query{
				Keywords: b.Keywords,
				Location: b.Location,
				Limit:    b.Limit,
				Offset:   b.Offset,
				Slug:     b.Slug,
			},
		})
	}

	return targets, nil
}

func newEvaluator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Evaluator, error) {
	provider := providerOllama
	maxLogLength := 0
	if cfg != nil {
		if p := strings.TrimSpace(strings.ToLower(cfg.Provider)); p != "" {
			provider = p
		}
		maxLogLength = cfg.MaxLogLength
	}

	var generator ai.Generator
	var err error

	switch provider {
	case providerOllama:
		if cfg == nil || cfg.Ollama == nil || strings.TrimSpace(cfg.Ollama.Endpoint) == "" {
			return nil, errors.New("ai.ollama.endpoint is required")
		}

		generator, err = ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model, cfg.Ollama.Timeout)
		if err != nil {
			return nil, err
		}
	case providerGemini:
		if cfg == nil || cfg.Gemini == nil {
			return nil, errors.New("ai.gemini section is required for the gemini provider")
		}

		key, err := content.Load(content.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("loading gemini api key: %w", err)
		}

		generator, err = gemini.NewGenerator(ctx, key, cfg.Gemini.Model)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", provider)
	}

	log := logger.With(
		zap.String("provider", provider),
		zap.String("model", generator.Model()),
	)

	return ai.NewAssistant(generator, log, maxLogLength), nil
}
