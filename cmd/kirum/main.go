package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kirum/internal/config"
	"kirum/internal/logging"
)

var (
	// Global flags
	verbose    bool
	projectDir string
	outputPath string

	logger *zap.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kirum",
	Short: "kirum - conlang generator driven by etymology graphs",
	Long: `kirum renders a lexicon from a graph of words and the sound changes
between them.

Each entry either carries a literal word, is generated from phonetic rules,
or derives from its etymons through named transforms. A project directory
holds tree files (entries), etymology files (transforms), phonetic rules and
optional global transforms.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadDir(projectDir)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "directory", "d", ".", "Project directory")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "Output file (default: stdout)")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(ingestCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openOutput returns the --output file, or the command's stdout.
func openOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	if outputPath == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// settings returns the loaded configuration, or the defaults when the
// command runs without the root's pre-run hook.
func settings() *config.Config {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return cfg
}

func activeLogger() *zap.Logger {
	return logging.OrNop(logger)
}
