package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psychoinformatics-de/tabbycat/internal/catalog"
	"github.com/psychoinformatics-de/tabbycat/internal/mint"
	"github.com/psychoinformatics-de/tabbycat/internal/tabby"
	"github.com/psychoinformatics-de/tabbycat/internal/translate"
)

func newTagCmd() *cobra.Command {
	var conventions string

	cmd := &cobra.Command{
		Use:   "tag <dataset> <outfile>",
		Short: "Generate project keywords for tabby-described datasets",
		Long: `Go through the tabby records of a superdataset and produce one
metadata item per dataset that adds its CRC project codes as keywords,
skipping codes a record already lists. The items are written as JSON
lines, ready for a catalog-add run.`,
		Example: `  tabbycat tag ~/data/sfb1451-all keyword-items.jsonl`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if conventions == "" {
				conventions = viper.GetString("conventions")
			}
			return executeTag(cmd.Context(), args[0], args[1], conventions)
		},
	}

	cmd.Flags().StringVar(&conventions, "conventions", "", "Directory with tabby convention contexts")

	return cmd
}

func executeTag(ctx context.Context, root, outfile, conventions string) error {
	sheets, err := tabby.DatasetSheets(ctx, root, false)
	if err != nil {
		return fmt.Errorf("failed to find tabby records: %w", err)
	}

	var items []*catalog.DatasetItem
	for _, sheet := range sheets {
		record, err := tabby.Load(sheet, tabby.WithConventionPaths(conventions))
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", sheet, err)
		}

		projects := translate.Keywords(record["crc-project"])
		keywords := translate.Keywords(record["keywords"])
		var added []string
		for _, project := range projects {
			upper := strings.ToUpper(project)
			if !slices.Contains(keywords, upper) {
				added = append(added, upper)
			}
		}
		if len(added) == 0 {
			fmt.Println("Nothing to add for", sheet)
		}

		item := catalog.NewDatasetItem(
			mint.DatasetID(rawString(record["name"]), rawString(record["crc-project"])),
			rawString(record["version"]),
			catalog.SourceManual, catalog.SourceVersion)
		item.Keywords = added
		items = append(items, item)
	}

	out, err := os.Create(outfile)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outfile, err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("failed to write %s: %w", outfile, err)
		}
	}

	slog.Info("Wrote keyword items", "path", outfile, "datasets", len(items))
	return nil
}
