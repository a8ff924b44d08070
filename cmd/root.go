package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	app = "interviewer"
)

type Config struct {
	SeedsFile string           `mapstructure:"seeds-file"`
	Knowledge *KnowledgeConfig `mapstructure:"knowledge"`
	Model     *ModelConfig     `mapstructure:"model"`
	Server    *ServerConfig    `mapstructure:"server"`
}

type KnowledgeConfig struct {
	IndexPath string        `mapstructure:"index-path"`
	TopK      int           `mapstructure:"top-k"`
	CacheSize int           `mapstructure:"cache-size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ModelConfig struct {
	Provider     string        `mapstructure:"provider"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
	Ollama       *OllamaConfig `mapstructure:"ollama"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type OllamaConfig struct {
	Host  string `mapstructure:"host"`
	Model string `mapstructure:"model"`
}

type ServerConfig struct {
	Listen         string   `mapstructure:"listen"`
	AllowedOrigins []string `mapstructure:"allowed-origins"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interviewer runs adaptive mock interviews grounded in lecture material",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("model.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("seeds-file", "INTERVIEWER_SEEDS_FILE"); err != nil {
		log.Fatalf("binding INTERVIEWER_SEEDS_FILE environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interviewer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("seeds-file", "s", "", "file with initial interview questions")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("seeds-file", rootCmd.PersistentFlags().Lookup("seeds-file"))
}

func setDefaults() {
	viper.SetDefault("seeds-file", "initialising_questions.json")
	viper.SetDefault("knowledge.index-path", "knowledge.bleve")
	viper.SetDefault("knowledge.top-k", 3)
	viper.SetDefault("knowledge.cache-size", 256)
	viper.SetDefault("knowledge.timeout", 10*time.Second)
	viper.SetDefault("model.provider", "gemini")
	viper.SetDefault("model.timeout", 60*time.Second)
	viper.SetDefault("model.max-log-length", 200)
	viper.SetDefault("server.listen", ":5000")
	viper.SetDefault("server.allowed-origins", []string{"*"})
}

func initConfig() {
	// Only commands that build an engine or an index need the config.
	if serveCmd.CalledAs() == "" && practiceCmd.CalledAs() == "" && ingestCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// A missing default config is fine, everything has defaults or env bindings.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Knowledge == nil {
		config.Knowledge = &KnowledgeConfig{}
	}
	if config.Model == nil {
		config.Model = &ModelConfig{}
	}
	if config.Model.Gemini == nil {
		config.Model.Gemini = &GeminiConfig{}
	}
	if config.Model.Ollama == nil {
		config.Model.Ollama = &OllamaConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	return config, nil
}

// logConfig dumps the effective config at debug level with secrets removed.
func logConfig(config *Config, logger *zap.Logger) {
	redacted := *config
	if config.Model != nil && config.Model.Gemini != nil {
		model := *config.Model
		gem := *config.Model.Gemini
		if gem.APIKey != "" {
			gem.APIKey = "<redacted>"
		}
		model.Gemini = &gem
		redacted.Model = &model
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))
}
