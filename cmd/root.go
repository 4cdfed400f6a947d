package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "ats-matcher"
	envPrefix = "ATS"
)

const (
	sourceREST     = "rest"
	sourcePostgres = "postgres"
)

type Config struct {
	Source   string          `mapstructure:"source"`
	Platform *PlatformConfig `mapstructure:"platform"`
	Database *DatabaseConfig `mapstructure:"database"`
	Redis    *RedisConfig    `mapstructure:"redis"`
	Filters  *FiltersConfig  `mapstructure:"filters"`
	AI       *AIConfig       `mapstructure:"ai"`
	Server   *ServerConfig   `mapstructure:"server"`
}

// SecretConfig lists the places a secret may be read from, see secrets.Source.
type SecretConfig struct {
	File    string `mapstructure:"file"`
	Env     string `mapstructure:"env"`
	Keyring string `mapstructure:"keyring"`
	Value   string `mapstructure:"value"`
}

type PlatformConfig struct {
	URL        string        `mapstructure:"url"`
	ServiceKey *SecretConfig `mapstructure:"service-key"`
	UserAgent  string        `mapstructure:"user-agent"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	URL *SecretConfig `mapstructure:"url"`
}

type RedisConfig struct {
	URL        string   `mapstructure:"url"`
	Channel    string   `mapstructure:"channel"`
	Schedule   string   `mapstructure:"schedule"`
	Candidates []string `mapstructure:"candidates"`
}

type FiltersConfig struct {
	MinimumScore     int      `mapstructure:"minimum-score"`
	ExcludeCompanies []string `mapstructure:"exclude-companies"`
	ExcludeFile      string   `mapstructure:"exclude-file"`
	IncludeApplied   bool     `mapstructure:"include-applied"`
}

type AIConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Provider          string        `mapstructure:"provider"`
	MinimumScore      int           `mapstructure:"minimum-score"`
	Concurrency       int           `mapstructure:"concurrency"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute"`
	Function          string        `mapstructure:"function"`
	Gemini            *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       *SecretConfig `mapstructure:"api-key"`
	Model        string        `mapstructure:"model"`
	MaxRetries   int           `mapstructure:"max-retries"`
	MaxLogLength int           `mapstructure:"max-log-length"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ats-matcher scores candidate skills against job requirements and ranks recommendations",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig()
		},
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ats-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

// setDefaults registers every key that can be overridden from the environment,
// e.g. ATS_PLATFORM_URL or ATS_AI_GEMINI_MODEL.
func setDefaults(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("source", sourceREST)
	v.SetDefault("platform.url", "")
	v.SetDefault("platform.service-key.env", "ATS_PLATFORM_SERVICE_KEY")
	v.SetDefault("platform.service-key.keyring", "platform-service-key")
	v.SetDefault("platform.timeout", 10*time.Second)
	v.SetDefault("database.url.env", "ATS_DATABASE_URL")
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.channel", "platform.changes")
	v.SetDefault("redis.schedule", "@every 15m")
	v.SetDefault("filters.minimum-score", 0)
	v.SetDefault("filters.exclude-file", "")
	v.SetDefault("filters.include-applied", false)
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.minimum-score", 0)
	v.SetDefault("ai.gemini.api-key.env", "GEMINI_API_KEY")
	v.SetDefault("ai.gemini.api-key.keyring", "gemini-api-key")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown-timeout", 10*time.Second)
}

// initConfig reads the config file. Without --config a missing
// ats-matcher.yaml is fine: defaults and environment are used.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	return nil
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}

	if config.Platform == nil {
		config.Platform = &PlatformConfig{}
	}
	if config.Platform.ServiceKey == nil {
		config.Platform.ServiceKey = &SecretConfig{}
	}
	if config.Database == nil {
		config.Database = &DatabaseConfig{}
	}
	if config.Database.URL == nil {
		config.Database.URL = &SecretConfig{}
	}
	if config.Redis == nil {
		config.Redis = &RedisConfig{}
	}
	if config.Filters == nil {
		config.Filters = &FiltersConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.AI.Gemini.APIKey == nil {
		config.AI.Gemini.APIKey = &SecretConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	config.Source = strings.ToLower(strings.TrimSpace(config.Source))
	switch config.Source {
	case "", sourceREST:
		config.Source = sourceREST
	case sourcePostgres:
	default:
		return nil, fmt.Errorf("unsupported source %q (use %q or %q)", config.Source, sourceREST, sourcePostgres)
	}

	return config, nil
}
