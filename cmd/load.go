package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psychoinformatics-de/tabbycat/internal/catalog"
	"github.com/psychoinformatics-de/tabbycat/internal/lookup"
	"github.com/psychoinformatics-de/tabbycat/internal/registry"
	"github.com/psychoinformatics-de/tabbycat/internal/report"
	"github.com/psychoinformatics-de/tabbycat/internal/tabby"
	"github.com/psychoinformatics-de/tabbycat/internal/translate"
)

type loadOptions struct {
	tabbyPath   string
	catalogDir  string
	encoding    string
	conventions string
	lookupPath  string
	reportDir   string
	scratchDir  string
	setAsSuper  bool
	removeFirst bool
}

func newLoadCmd() *cobra.Command {
	var opts loadOptions

	cmd := &cobra.Command{
		Use:   "load <tabby-file>",
		Short: "Load a tabby metadata record into a catalog",
		Long: `Load a tabby dataset record, enrich it through public registries, and
add the resulting dataset and file metadata to a catalog.

The record's dataset id is minted from its name and CRC project, so
repeated loads update the same catalog entry. A record kept under
.datalad/tabby/self describes the dataset it lives in; its id and
version are then taken from the dataset itself instead.`,
		Example: `  # Load a record into the catalog directory ./catalog
  tabbycat load inbox/project-a/dataset@tby-crc1451v0.tsv

  # Replace existing entries and make this dataset the catalog home page
  tabbycat load dataset@tby-crc1451v0.tsv --catalog /pub/catalog --remove-first --set-as-super

  # A submission exported on Windows
  tabbycat load dataset@tby-crc1451v0.tsv --encoding cp1252`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.tabbyPath = args[0]
			if opts.catalogDir == "" {
				opts.catalogDir = viper.GetString("catalog")
			}
			if opts.conventions == "" {
				opts.conventions = viper.GetString("conventions")
			}
			if opts.lookupPath == "" {
				opts.lookupPath = viper.GetString("lookup")
			}
			return executeLoad(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.catalogDir, "catalog", "c", "", "Catalog to add to")
	cmd.Flags().BoolVar(&opts.setAsSuper, "set-as-super", false, "Set the dataset as the catalog home page")
	cmd.Flags().BoolVar(&opts.removeFirst, "remove-first", false, "Remove existing catalog entries for the dataset first")
	cmd.Flags().StringVar(&opts.encoding, "encoding", "", "Encoding to use when loading tabby (default utf-8)")
	cmd.Flags().StringVar(&opts.conventions, "conventions", "", "Directory with tabby convention contexts")
	cmd.Flags().StringVar(&opts.lookupPath, "lookup", "", "Lookup tables TOML file")
	cmd.Flags().StringVar(&opts.reportDir, "report-dir", "", "Write a YAML run report into this directory")
	cmd.Flags().StringVar(&opts.scratchDir, "scratch-dir", "", "Dump intermediate JSON documents into this directory")

	return cmd
}

func executeLoad(ctx context.Context, opts loadOptions) error {
	slog.Info("Loading tabby record", "path", opts.tabbyPath)

	tables, err := lookup.Load(opts.lookupPath)
	if err != nil {
		return fmt.Errorf("failed to load lookup tables: %w", err)
	}

	var loadOpts []tabby.Option
	if opts.conventions != "" {
		loadOpts = append(loadOpts, tabby.WithConventionPaths(opts.conventions))
	}
	if opts.encoding != "" {
		loadOpts = append(loadOpts, tabby.WithEncoding(opts.encoding))
	}
	record, err := tabby.Load(opts.tabbyPath, loadOpts...)
	if err != nil {
		return fmt.Errorf("failed to load tabby record: %w", err)
	}

	compacted, err := translate.Compact(record)
	if err != nil {
		return err
	}

	fetcher := newFetchClient()
	registries := registry.New(fetcher)

	item := translate.Dataset(ctx, compacted, translate.Options{
		Lookup:   tables,
		Resolver: registries,
		Terms:    registries,
	})

	selfDescribed := tabby.IsSelfDescription(opts.tabbyPath)
	if selfDescribed {
		fmt.Println("Path suggests it is a self-description of a dataset")
		root, ok := tabby.DatasetRoot(opts.tabbyPath)
		if !ok {
			return fmt.Errorf("no dataset root found above %s", opts.tabbyPath)
		}
		id, err := tabby.DataladID(root)
		if err != nil {
			return fmt.Errorf("failed to read the dataset id: %w", err)
		}
		version, err := tabby.HeadCommit(ctx, root)
		if err != nil {
			return fmt.Errorf("failed to resolve the dataset version: %w", err)
		}
		item.DatasetID = id
		item.DatasetVersion = version
	}

	files := translate.Files(compacted, item.DatasetID, item.DatasetVersion)

	// display what would be added to the catalog
	encoded, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata item: %w", err)
	}
	fmt.Println(string(encoded))
	fmt.Println(item.DatasetID, item.DatasetVersion)

	if opts.scratchDir != "" {
		if err := dumpScratch(opts.scratchDir, record, compacted, item); err != nil {
			return err
		}
	}

	cat := catalog.New(opts.catalogDir)
	if config := filepath.Join(opts.catalogDir, "config.json"); fileExists(config) {
		cat.ConfigFile = config
	}

	if err := cat.Validate(item); err != nil {
		return fmt.Errorf("metadata item failed validation: %w", err)
	}

	// Remove existing entries if requested. A self-description is
	// presumably not the only metadata source, so it never clears.
	if opts.removeFirst && !selfDescribed {
		err := cat.Remove(item.DatasetID, item.DatasetVersion)
		if err != nil && !errors.Is(err, catalog.ErrIncompleteRemoval) {
			return fmt.Errorf("failed to remove existing entries: %w", err)
		}
	}

	if err := cat.Add(item); err != nil {
		return fmt.Errorf("failed to add dataset metadata: %w", err)
	}

	fileItems := make([]catalog.Item, len(files))
	for i := range files {
		fileItems[i] = &files[i]
	}
	if err := cat.AddMany(fileItems); err != nil {
		return fmt.Errorf("failed to add file metadata: %w", err)
	}

	if opts.setAsSuper {
		if err := cat.SetHome(item.DatasetID, item.DatasetVersion, true); err != nil {
			return fmt.Errorf("failed to set the catalog home page: %w", err)
		}
	}

	if opts.reportDir != "" {
		path, err := report.Save(opts.reportDir,
			report.LoadConfig{Catalog: opts.catalogDir, Source: opts.tabbyPath},
			[]report.LoadResult{{
				DatasetID:      item.DatasetID,
				DatasetVersion: item.DatasetVersion,
				Name:           item.Name,
				Fields:         populatedFields(item),
				Publications:   len(item.Publications),
				Files:          len(files),
			}})
		if err != nil {
			return fmt.Errorf("failed to write the run report: %w", err)
		}
		slog.Info("Wrote run report", "path", path)
	}

	if err := fetcher.Save(); err != nil {
		slog.Warn("Could not persist the HTTP cache", "error", err)
	}
	return nil
}

// dumpScratch writes the intermediate documents of a load for
// inspection.
func dumpScratch(dir string, record, compacted map[string]any, item *catalog.DatasetItem) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	for name, doc := range map[string]any{
		"record.json":    record,
		"compacted.json": compacted,
		"item.json":      item,
	} {
		data, err := json.MarshalIndent(doc, "", "    ")
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

func populatedFields(item *catalog.DatasetItem) []string {
	var fields []string
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"name", item.Name != ""},
		{"description", item.Description != ""},
		{"doi", item.DOI != ""},
		{"license", item.License != nil},
		{"authors", len(item.Authors) > 0},
		{"keywords", len(item.Keywords) > 0},
		{"funding", len(item.Funding) > 0},
		{"publications", len(item.Publications) > 0},
		{"access_request_contact", item.AccessRequestContact != nil},
		{"url", len(item.URL) > 0},
	} {
		if f.set {
			fields = append(fields, f.name)
		}
	}
	return fields
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
