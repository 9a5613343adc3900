package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psychoinformatics-de/tabbycat/internal/catalog"
	"github.com/psychoinformatics-de/tabbycat/internal/mint"
	"github.com/psychoinformatics-de/tabbycat/internal/tabby"
)

func newSubdatasetsCmd() *cobra.Command {
	var (
		catalogDir  string
		anywhere    bool
		conventions string
	)

	cmd := &cobra.Command{
		Use:   "subdatasets <dataset>",
		Short: "Register tabby-described subdatasets of a superdataset",
		Long: `Find the tabby dataset records kept inside a DataLad superdataset and
build the subdataset list of its catalog entry. Each record's dataset
id is minted the same way the load command mints it, so the entries
link up.

By default records are looked for in .datalad/tabby/ directories; with
--tabby-anywhere every tracked tabby dataset file counts.`,
		Example: `  # Show the subdatasets described in a superdataset
  tabbycat subdatasets ~/data/sfb1451-all

  # Also write the superdataset entry into a catalog
  tabbycat subdatasets ~/data/sfb1451-all --catalog /pub/catalog`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if conventions == "" {
				conventions = viper.GetString("conventions")
			}
			return executeSubdatasets(cmd.Context(), args[0], catalogDir, conventions, anywhere)
		},
	}

	cmd.Flags().StringVarP(&catalogDir, "catalog", "c", "", "Catalog to add the superdataset entry to")
	cmd.Flags().BoolVar(&anywhere, "tabby-anywhere", false, "Find tabby records anywhere in the worktree")
	cmd.Flags().StringVar(&conventions, "conventions", "", "Directory with tabby convention contexts")

	return cmd
}

func executeSubdatasets(ctx context.Context, root, catalogDir, conventions string, anywhere bool) error {
	sheets, err := tabby.DatasetSheets(ctx, root, anywhere)
	if err != nil {
		return fmt.Errorf("failed to find tabby records: %w", err)
	}
	if len(sheets) == 0 {
		fmt.Println("No subdatasets found")
		return nil
	}

	var subs []catalog.Subdataset
	for _, sheet := range sheets {
		record, err := tabby.Load(sheet, tabby.WithConventionPaths(conventions))
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", sheet, err)
		}
		path, err := tabby.SubdatasetPath(sheet, root)
		if err != nil {
			return fmt.Errorf("failed to place %s: %w", sheet, err)
		}
		subs = append(subs, catalog.Subdataset{
			DatasetPath: path,
			DatasetID:   mint.DatasetID(rawString(record["name"]), rawString(record["crc-project"])),
			Version:     rawString(record["version"]),
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Path", "Dataset ID", "Version"})
	for _, sub := range subs {
		table.Append([]string{sub.DatasetPath, sub.DatasetID, sub.Version})
	}
	table.Render()

	id, err := tabby.DataladID(root)
	if err != nil {
		return fmt.Errorf("failed to read the superdataset id: %w", err)
	}
	head, err := tabby.HeadCommit(ctx, root)
	if err != nil {
		return fmt.Errorf("failed to resolve the superdataset version: %w", err)
	}

	item := catalog.NewDatasetItem(id, head, catalog.SourceTabby, catalog.SourceVersion)
	item.Subdatasets = subs

	encoded, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata item: %w", err)
	}
	fmt.Println(string(encoded))

	if catalogDir == "" {
		return nil
	}
	cat := catalog.New(catalogDir)
	if config := filepath.Join(catalogDir, "config.json"); fileExists(config) {
		cat.ConfigFile = config
	}
	if err := cat.Add(item); err != nil {
		return fmt.Errorf("failed to add the superdataset entry: %w", err)
	}
	return nil
}

// rawString extracts a string from a tabby record value, taking the
// first element of a list value.
func rawString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			return rawString(t[0])
		}
	}
	return ""
}
