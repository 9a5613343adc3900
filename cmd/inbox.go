package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/psychoinformatics-de/tabbycat/internal/tabby"
)

func newInboxCmd() *cobra.Command {
	var (
		xlsxPath string
		tsvPaths []string
		destDir  string
		watchDir string
	)

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Sort submitted tabby files into the inbox layout",
		Long: `Take submitted tabby metadata, either an xlsx workbook or loose TSV
files, and place it in the inbox as convention-named TSV files, one
directory per record.

With --watch, keep watching a directory and convert each xlsx workbook
as it appears.`,
		Example: `  # Split a submitted workbook into inbox/<record>/<sheet>@tby-crc1451v0.tsv
  tabbycat inbox -x submission.xlsx -d inbox

  # Sort loose sheet files into the same layout
  tabbycat inbox -t proj_dataset.tsv -t proj_authors.tsv -d inbox

  # Convert workbooks as they are dropped into a directory
  tabbycat inbox --watch dropbox -d inbox`,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := 0
			for _, set := range []bool{xlsxPath != "", len(tsvPaths) > 0, watchDir != ""} {
				if set {
					selected++
				}
			}
			if selected != 1 {
				return fmt.Errorf("specify exactly one of --xlsx, --tsv, or --watch")
			}
			if destDir == "" {
				return fmt.Errorf("a destination directory is required")
			}
			switch {
			case xlsxPath != "":
				return executeInboxXlsx(xlsxPath, destDir)
			case len(tsvPaths) > 0:
				return executeInboxTSV(tsvPaths, destDir)
			default:
				return executeInboxWatch(cmd.Context(), watchDir, destDir)
			}
		},
	}

	cmd.Flags().StringVarP(&xlsxPath, "xlsx", "x", "", "Workbook to split into tabby TSV files")
	cmd.Flags().StringSliceVarP(&tsvPaths, "tsv", "t", nil, "Tabby TSV files to sort (repeatable)")
	cmd.Flags().StringVarP(&destDir, "dest", "d", "", "Inbox directory to place files in")
	cmd.Flags().StringVar(&watchDir, "watch", "", "Watch this directory for new workbooks")

	return cmd
}

// executeInboxXlsx splits a workbook into per-sheet TSV files and
// renames them into the record-directory layout.
func executeInboxXlsx(src, destDir string) error {
	written, err := tabby.SplitWorkbook(src, destDir)
	if err != nil {
		return fmt.Errorf("failed to split the workbook: %w", err)
	}
	for _, path := range written {
		renamed := tabby.AffixConvention(tabby.DirEquivalent(path))
		fmt.Println(renamed)
		if renamed == path {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(renamed), 0755); err != nil {
			return fmt.Errorf("failed to create the record directory: %w", err)
		}
		if err := os.Rename(path, renamed); err != nil {
			return fmt.Errorf("failed to move %s: %w", path, err)
		}
	}
	return nil
}

// executeInboxTSV copies loose sheet files into the record-directory
// layout under destDir. The originals stay where they are.
func executeInboxTSV(paths []string, destDir string) error {
	for _, path := range paths {
		renamed := tabby.AffixConvention(tabby.DirEquivalent(path))
		target := filepath.Join(destDir, filepath.Base(filepath.Dir(renamed)), filepath.Base(renamed))
		fmt.Println(target)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create the record directory: %w", err)
		}
		if err := copyFile(path, target); err != nil {
			return fmt.Errorf("failed to copy %s: %w", path, err)
		}
	}
	return nil
}

func executeInboxWatch(ctx context.Context, watchDir, destDir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create a watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(watchDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", watchDir, err)
	}
	slog.Info("Watching for workbooks", "dir", watchDir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".xlsx") {
				continue
			}
			slog.Info("New workbook", "path", event.Name)
			if err := executeInboxXlsx(event.Name, destDir); err != nil {
				slog.Error("Could not convert the workbook", "path", event.Name, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", "error", err)
		}
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
