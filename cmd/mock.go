package cmd

import (
	"errors"
	"fmt"
	"html"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psychoinformatics-de/tabbycat/internal/catalog"
)

func newMockCmd() *cobra.Command {
	var catalogDir string

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Put a mock dataset into a catalog",
		Long: `Add a fixed test dataset to a catalog and make it the home page.
Useful for checking that a freshly created catalog renders at all
before any real metadata goes in. Safe to run repeatedly.`,
		Example: `  tabbycat mock --catalog /tmp/scratch-catalog`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if catalogDir == "" {
				catalogDir = viper.GetString("catalog")
			}
			return executeMock(catalogDir)
		},
	}

	cmd.Flags().StringVarP(&catalogDir, "catalog", "c", "", "Catalog to add to")

	return cmd
}

func executeMock(catalogDir string) error {
	item := &catalog.DatasetItem{
		ItemBase: catalog.ItemBase{
			Type:           catalog.TypeDataset,
			DatasetID:      "1234",
			DatasetVersion: "latest",
		},
		Name: "Test dataset",
		License: &catalog.License{
			Name: html.UnescapeString("Creative Commons &mdash; CC0 1.0 Universal"),
			URL:  "https://creativecommons.org/publicdomain/zero/1.0/",
		},
	}

	cat := catalog.New(catalogDir)

	if err := cat.Validate(item); err != nil {
		return fmt.Errorf("metadata item failed validation: %w", err)
	}

	// Start from a clean slate; a catalog without the entry is fine.
	err := cat.Remove(item.DatasetID, item.DatasetVersion)
	if err != nil && !errors.Is(err, catalog.ErrIncompleteRemoval) {
		return fmt.Errorf("failed to remove existing entries: %w", err)
	}

	if err := cat.Add(item); err != nil {
		return fmt.Errorf("failed to add the mock dataset: %w", err)
	}
	if err := cat.SetHome(item.DatasetID, item.DatasetVersion, true); err != nil {
		return fmt.Errorf("failed to set the catalog home page: %w", err)
	}
	return nil
}
