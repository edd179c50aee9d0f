package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"docrag/internal/domain"
	"docrag/internal/logging"
	"docrag/internal/service"
	"docrag/internal/tui"
)

// withService loads the config, builds the service and runs fn with it.
func (a *app) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.RAGService) error) error {
	cfg, _, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger, err := a.logger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}
	svc, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(cmd.Context(), svc)
}

func (a *app) indexCmd() *cobra.Command {
	var here bool
	cmd := &cobra.Command{
		Use:   "index [folder]",
		Short: "Index the files directly inside a folder",
		Long: `Parse, chunk and embed every file directly inside the folder (subfolders
are skipped) and add the chunks to the store. Files that fail are reported and
do not stop the run. Indexing the same folder twice stores its chunks twice;
use reindex to refresh a single file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder, err := selectFolder(args, here)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *service.RAGService) error {
				return printOutcome(cmd.OutOrStdout(), folder, svc.IndexFolder(ctx, folder))
			})
		},
	}
	cmd.Flags().BoolVar(&here, "here", false, "index the current working directory")
	return cmd
}

func (a *app) reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex <file>",
		Short: "Replace the stored chunks of one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *service.RAGService) error {
				return printOutcome(cmd.OutOrStdout(), args[0], svc.ReindexFile(ctx, args[0]))
			})
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find the passages most similar to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return a.withService(cmd, func(ctx context.Context, svc *service.RAGService) error {
				resp, err := svc.Search(ctx, query)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				printResponse(cmd.OutOrStdout(), resp)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the response as JSON")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show what the store contains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *service.RAGService) error {
				st, err := svc.Stats(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), st)
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Chunks:  %d\nFolders: %d\nFiles:   %d\n", st.TotalChunks, st.TotalFolders, len(st.Files))
				for _, f := range st.Files {
					fmt.Fprintf(w, "  %s\n", filepath.Join(f.FolderPath, f.FileName))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stats as JSON")
	return cmd
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <file>",
		Short: "Delete the stored chunks of a file",
		Long: `Delete every chunk indexed from the given file. The path is made absolute
and split into folder and file name, which must match the indexed ones exactly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *service.RAGService) error {
				n, err := svc.RemoveFile(ctx, filepath.Base(abs), filepath.Dir(abs))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d chunks of %s\n", n, abs)
				return nil
			})
		},
	}
}

func (a *app) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive search UI",
		Long: `Launch a BubbleTea terminal UI.

Key bindings:
  Enter            Run the query or command
  /index <folder>  Index a folder
  /stats           Show store statistics
  Up/Down          Cycle through results
  PageUp/PageDown  Scroll the current result
  Esc, Ctrl+C      Quit

Logs are written to docrag.log next to the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := a.loadConfig()
			if err != nil {
				return err
			}
			lc := cfg.Log
			if a.verbose {
				lc.Level = "debug"
			}
			logger, closer, err := logging.NewFile(filepath.Join(filepath.Dir(cfgPath), "docrag.log"), lc)
			if err != nil {
				return err
			}
			defer closer.Close()
			svc, err := buildService(cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()
			_, err = tea.NewProgram(tui.New(cmd.Context(), svc), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := a.loadConfig()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, data)
			return nil
		},
	}
}

// selectFolder picks the folder to index: the argument, or the working
// directory with --here.
func selectFolder(args []string, here bool) (string, error) {
	switch {
	case here && len(args) > 0:
		return "", errors.New("give a folder or --here, not both")
	case here:
		return os.Getwd()
	case len(args) == 1:
		return args[0], nil
	}
	return "", errors.New("no folder selected: pass a folder or --here")
}

func printOutcome(w io.Writer, target string, out domain.IndexingOutcome) error {
	fmt.Fprintf(w, "Indexed %d chunks from %s\n", out.ChunksAdded, target)
	for _, e := range out.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	if out.ChunksAdded == 0 && len(out.Errors) > 0 {
		return fmt.Errorf("nothing indexed (%d errors)", len(out.Errors))
	}
	return nil
}

func printResponse(w io.Writer, resp *domain.QueryResponse) {
	if resp.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", resp.Summary)
	}
	for i, r := range resp.Results {
		fmt.Fprintf(w, "%d. %s (%s match)  %s#%d\n", i+1, r.Metadata.FileName, service.FormatScore(r.Score), r.Metadata.SourcePath, r.Metadata.ChunkIndex)
		fmt.Fprintf(w, "   %s\n", excerpt(r.Text, 200))
	}
}

func excerpt(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
