package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentdock/ats-matcher/internal/ai"
	"github.com/talentdock/ats-matcher/internal/ai/gemini"
	"github.com/talentdock/ats-matcher/internal/db"
	"github.com/talentdock/ats-matcher/internal/logger"
	"github.com/talentdock/ats-matcher/internal/platform"
	"github.com/talentdock/ats-matcher/internal/recommend"
	"github.com/talentdock/ats-matcher/internal/secrets"
)

// env holds what the data commands share.
type env struct {
	config  *Config
	logger  *zap.Logger
	source  recommend.Source
	client  *platform.Client
	cleanup func()
}

func (e *env) Close() {
	if e.cleanup != nil {
		e.cleanup()
	}
	_ = e.logger.Sync()
}

func newLogger() *zap.Logger {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return logger
}

// setup loads the config and connects to the configured data source.
func setup(ctx context.Context) (*env, error) {
	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	e := &env{config: config, logger: logger}

	// The REST client is also the serverless function invoker, so build it
	// whenever the platform is configured.
	if strings.TrimSpace(config.Platform.URL) != "" {
		client, err := newPlatformClient(config.Platform, logger)
		if err != nil {
			return nil, err
		}
		e.client = client
	}

	switch config.Source {
	case sourcePostgres:
		url, err := loadSecret("database url", config.Database.URL)
		if err != nil {
			return nil, err
		}
		pool, err := db.NewPostgresPool(ctx, url)
		if err != nil {
			return nil, err
		}
		e.source = db.NewStore(pool, logger.Named("postgres"))
		e.cleanup = pool.Close
	default:
		if e.client == nil {
			return nil, errors.New("platform.url is required for the rest source (or set ATS_PLATFORM_URL)")
		}
		e.source = e.client
	}

	logger.Debug("data source ready", zap.String("source", config.Source))
	return e, nil
}

func newPlatformClient(cfg *PlatformConfig, logger *zap.Logger) (*platform.Client, error) {
	key, err := loadSecret("platform service key", cfg.ServiceKey)
	if err != nil {
		return nil, err
	}

	client := platform.New(cfg.URL, key, logger.Named("platform"))
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}
	return client, nil
}

func loadSecret(name string, cfg *SecretConfig) (string, error) {
	if cfg == nil {
		cfg = &SecretConfig{}
	}
	return secrets.Load(secrets.Source{
		Name:    name,
		File:    cfg.File,
		Env:     cfg.Env,
		Keyring: cfg.Keyring,
		Value:   cfg.Value,
	})
}

// newAnalyzer builds the resume-analysis collaborator for the configured provider.
func newAnalyzer(ctx context.Context, cfg *AIConfig, client *platform.Client, baseLogger *zap.Logger) (ai.Analyzer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", ai.ProviderGemini:
		apiKey, err := loadSecret("gemini api key", cfg.Gemini.APIKey)
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key or GEMINI_API_KEY)", err)
		}

		genLogger := logger.WithCommonFields(baseLogger, ai.ProviderGemini, cfg.Gemini.Model).
			With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
		if err != nil {
			return nil, err
		}

		return gemini.NewAnalyzer(generator, cfg.Gemini.MaxLogLength, genLogger), nil
	case ai.ProviderFunction:
		if client == nil {
			return nil, errors.New("platform.url is required for the function provider")
		}
		return ai.NewFunctionAnalyzer(client, cfg.Function, logger.WithCommonFields(baseLogger, ai.ProviderFunction, cfg.Function)), nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

type filterFlags struct {
	includeApplied bool
	withAI         bool
}

// newPipeline assembles the filters from the config. A failing AI setup
// disables the AI step instead of failing the command.
func newPipeline(ctx context.Context, e *env, flags filterFlags) *recommend.Pipeline {
	cfg := e.config

	aiConfig := &recommend.AIAnalysisConfig{
		Enabled:           cfg.AI.Enabled || flags.withAI,
		Provider:          cfg.AI.Provider,
		Model:             cfg.AI.Gemini.Model,
		MinimumScore:      cfg.AI.MinimumScore,
		Concurrency:       cfg.AI.Concurrency,
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
	}

	var (
		aiDeps   *recommend.AIAnalysisDeps
		aiReason string
	)
	if aiConfig.Enabled {
		analyzer, err := newAnalyzer(ctx, cfg.AI, e.client, e.logger)
		if err != nil {
			e.logger.Warn("skipping AI filter", zap.Error(err))
			aiReason = err.Error()
		} else {
			aiDeps = &recommend.AIAnalysisDeps{
				Analyzer:    analyzer,
				Logger:      e.logger.Named("ai"),
				ExcludeFile: cfg.Filters.ExcludeFile,
			}
		}
	}

	aiFilter := recommend.NewAIAnalysis(aiConfig, aiDeps)
	if aiReason != "" {
		aiFilter.Disable(aiReason)
	}

	steps := []recommend.Filter{
		recommend.NewAppliedHistory(
			&recommend.AppliedHistoryConfig{Ignore: cfg.Filters.IncludeApplied || flags.includeApplied},
			&recommend.AppliedHistoryDeps{Source: e.source, Logger: e.logger},
		),
		recommend.NewExcludedCompanies(cfg.Filters.ExcludeCompanies),
		recommend.NewExcludeFile(cfg.Filters.ExcludeFile),
		recommend.NewMinimumScore(cfg.Filters.MinimumScore),
		aiFilter,
	}

	return recommend.NewPipeline(steps, e.logger)
}

func newService(ctx context.Context, e *env, flags filterFlags) *recommend.Service {
	return recommend.NewService(e.source, newPipeline(ctx, e, flags), e.logger)
}
