package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobsieve"
)

type Config struct {
	Resume    *TextSource    `mapstructure:"resume"`
	Criteria  *TextSource    `mapstructure:"criteria"`
	Boards    []*BoardConfig `mapstructure:"boards"`
	AI        *AIConfig      `mapstructure:"ai"`
	Ledger    *LedgerConfig  `mapstructure:"ledger"`
	Output    *OutputConfig  `mapstructure:"output"`
	Scrape    *ScrapeConfig  `mapstructure:"scrape"`
	UserAgent string         `mapstructure:"user-agent"`
}

// TextSource points to a piece of text given either inline or as a file.
// The file wins when both are set.
type TextSource struct {
	Text string `mapstructure:"text"`
	File string `mapstructure:"file"`
}

type BoardConfig struct {
	Board    string `mapstructure:"board"`
	Keywords string `mapstructure:"keywords"`
	Location string `mapstructure:"location"`
	Limit    int    `mapstructure:"limit"`
	Offset   int    `mapstructure:"offset"`
	Slug     string `mapstructure:"slug"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Ollama       *OllamaConfig `mapstructure:"ollama"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
}

type OllamaConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type LedgerConfig struct {
	Path string `mapstructure:"path"`
}

type OutputConfig struct {
	File string `mapstructure:"file"`
}

type ScrapeConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests-per-second"`
	Burst             int     `mapstructure:"burst"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobsieve is a simple cli for collecting job postings and scoring them against your resume with a local llm",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobsieve.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
