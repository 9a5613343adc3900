package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/psychoinformatics-de/tabbycat/internal/lookup"
	"github.com/psychoinformatics-de/tabbycat/internal/registry"
)

func newGrantCmd() *cobra.Command {
	var (
		registryName string
		project      string
	)

	cmd := &cobra.Command{
		Use:   "grant <identifier>",
		Short: "Look up a grant and print its lookup table entry",
		Long: `Query a funding registry for a grant and print the entry as TOML,
ready to paste into the lookup tables. GEPRIS identifiers are DFG
project numbers, CORDIS identifiers are EU grant agreement numbers.`,
		Example: `  # The entry for CRC project A01
  tabbycat grant 431549029 --project a01

  # An EU-funded project via CORDIS
  tabbycat grant 945539 --registry cordis --project hbp >> lookup_tables.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if project == "" {
				return fmt.Errorf("a project code is required")
			}
			return executeGrant(cmd.Context(), args[0], registryName, project)
		},
	}

	cmd.Flags().StringVar(&registryName, "registry", "gepris", "Registry to query: gepris or cordis")
	cmd.Flags().StringVar(&project, "project", "", "Project code to file the grant under")

	return cmd
}

func executeGrant(ctx context.Context, id, registryName, project string) error {
	fetcher := newFetchClient()
	registries := registry.New(fetcher)

	var (
		grant *registry.Grant
		err   error
	)
	switch registryName {
	case "gepris":
		grant, err = registries.Gepris.Project(ctx, id)
	case "cordis":
		grant, err = registries.Cordis.Project(ctx, id)
	default:
		return fmt.Errorf("unknown registry %q (expected gepris or cordis)", registryName)
	}
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", registryName, err)
	}
	if grant == nil {
		return fmt.Errorf("no project found for %s in %s", id, registryName)
	}

	entry := map[string]map[string]lookup.Grant{
		"funding": {
			strings.ToUpper(project): {
				Name:       grant.Name,
				Identifier: grant.Identifier,
			},
		},
	}
	if err := toml.NewEncoder(os.Stdout).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode the table entry: %w", err)
	}

	if err := fetcher.Save(); err != nil {
		slog.Warn("Could not persist the HTTP cache", "error", err)
	}
	return nil
}
