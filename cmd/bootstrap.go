package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samsaffron/course-llm/internal/config"
	"github.com/samsaffron/course-llm/internal/exitcode"
	"github.com/samsaffron/course-llm/internal/llm"
	"github.com/samsaffron/course-llm/internal/prompt"
)

// runtimeEnv is what every chat surface needs: the loaded config, the
// shared bridge and the system instruction.
type runtimeEnv struct {
	cfg    *config.Config
	bridge *llm.Bridge
	system string
	logger *slog.Logger
}

// newLogger builds the process logger. --debug wins over log_level.
func newLogger(w io.Writer, level string, debug bool) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if debug {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	bootLogger := newLogger(os.Stderr, "warn", debugLog)
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ConfigFile: configFile,
		Logger:     bootLogger,
	})
	if err != nil {
		return nil, nil, exitcode.ConfigErr(fmt.Errorf("failed to load config: %w", err))
	}
	logger := newLogger(os.Stderr, cfg.LogLevel, debugLog)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// newBridge resolves the provider. A missing credential or a provider that
// cannot be constructed is fatal.
func newBridge(cfg *config.Config, resolver *llm.Resolver, logger *slog.Logger) (*llm.Bridge, error) {
	provider, err := resolver.Resolve(cfg)
	if err != nil {
		var cfgErr *llm.ConfigError
		switch {
		case errors.Is(err, llm.ErrNoCredential):
			return nil, exitcode.ConfigErr(err)
		case errors.As(err, &cfgErr):
			return nil, exitcode.ConfigErr(err)
		default:
			return nil, exitcode.ConfigErr(fmt.Errorf("failed to initialize provider: %w", err))
		}
	}
	logger.Info("provider selected", "provider", provider.Kind(), "model", provider.Model())
	return llm.NewBridge(provider, logger), nil
}

func loadSystemPrompt(cfg *config.Config) (string, error) {
	knowledge, err := prompt.LoadKnowledge(cfg.KnowledgeFile)
	if err != nil {
		return "", exitcode.ConfigErr(err)
	}
	return prompt.SystemPrompt(knowledge), nil
}

// bootstrap loads everything a chat surface needs.
func bootstrap() (*runtimeEnv, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrapWith(cfg, llm.NewResolver(nil), logger)
}

func bootstrapWith(cfg *config.Config, resolver *llm.Resolver, logger *slog.Logger) (*runtimeEnv, error) {
	bridge, err := newBridge(cfg, resolver, logger)
	if err != nil {
		return nil, err
	}
	system, err := loadSystemPrompt(cfg)
	if err != nil {
		return nil, err
	}
	return &runtimeEnv{cfg: cfg, bridge: bridge, system: system, logger: logger}, nil
}
