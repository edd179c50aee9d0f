package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docrag/internal/config"
	"docrag/internal/logging"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// app carries the global flags shared by every command.
type app struct {
	cfgFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "docrag",
		Short: "Index local documents and search them by meaning",
		Long: `docrag splits the documents of a folder into overlapping word windows,
embeds them and keeps them in a local vector store. Searches return the most
similar passages together with a short summary.

Supported formats: plain text, Markdown, PDF, DOCX, XLSX and HTML.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file path (default ./config.yaml or ~/.config/docrag/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.indexCmd(),
		a.reindexCmd(),
		a.searchCmd(),
		a.statsCmd(),
		a.removeCmd(),
		a.tuiCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) loadConfig() (*config.AppConfig, string, error) {
	if a.cfgFile == "" {
		cfg, path, err := config.LoadDefault()
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, path, nil
	}
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, a.cfgFile, nil
}

func (a *app) logger(w io.Writer, cfg *config.AppConfig) (*log.Logger, error) {
	lc := cfg.Log
	if a.verbose {
		lc.Level = "debug"
	}
	return logging.New(w, lc)
}
