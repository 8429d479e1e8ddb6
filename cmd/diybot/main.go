// DIY Bot: a conversational assistant for home-improvement projects.
//
// It keeps a toolroom inventory, plans projects step by step with a local
// Ollama model, and talks to a web frontend over HTTP and WebSocket. The
// same inventory operations are also served to MCP clients over stdio.
//
// Usage:
//
//	diybot serve     # HTTP + WebSocket API
//	diybot mcp       # MCP server (stdio transport)
//	diybot schema    # print the tool-call catalog
//	diybot version
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jkmcrg/diybot/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// options are the global flags.
type options struct {
	configPath string
	debug      bool
	ollamaURL  string
	model      string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "diybot",
		Short: "DIY Bot - home-improvement assistant backed by a local model",
		Long: `DIY Bot keeps track of the tools you own and the projects you are working on,
and uses a local Ollama model to ask clarifying questions and plan each project
step by step.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&opts.ollamaURL, "ollama-url", "", "Ollama base URL (overrides config)")
	root.PersistentFlags().StringVar(&opts.model, "model", "", "Ollama model name (overrides config)")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newMCPCmd(opts))
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.ollamaURL != "" {
		cfg.Ollama.URL = o.ollamaURL
	}
	if o.model != "" {
		cfg.Ollama.Model = o.model
	}
	if o.debug {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds a zap logger writing to stderr. stdout stays free for
// the MCP stdio transport.
func newLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(lc.Level))
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if lc.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
