// cmd/tools/registry-updater/main.go
package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dashboard-assistant/internal/models"
	"dashboard-assistant/pkg/registry"
)

var catalogPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "registry-updater",
		Short:        "Maintain the data source catalog file",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&catalogPath, "path", "configs/catalog.json", "Path to catalog file")

	root.AddCommand(newInitCmd(), newAddCmd(), newUpdateCmd(), newValidateCmd(), newListCmd())
	return root
}

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in catalog to the catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(catalogPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", catalogPath)
			}
			if err := registry.SaveCatalogFile(catalogPath, registry.Export(registry.DefaultCatalog())); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote built-in catalog to %s\n", catalogPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newAddCmd() *cobra.Command {
	var src models.DataSourceDescriptor
	var kind string
	var baseline bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a source to the catalog",
		Example: `  registry-updater add --id instagram_rank --title "Instagram 순위" --group instagram
  registry-updater add --id sale_weekly --title "주간 판매" --group sales --baseline`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadOrDefault()
			if err != nil {
				return err
			}
			for _, existing := range file.Sources {
				if existing.ID == src.ID {
					return fmt.Errorf("source with ID %s already exists", src.ID)
				}
			}

			src.Kind = models.SourceKind(kind)
			file.Sources = append(file.Sources, src)
			if baseline {
				file.Baseline = append(file.Baseline, src.ID)
			}
			if err := registry.SaveCatalogFile(catalogPath, file); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added source: %s\n", src.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&src.ID, "id", "", "Source ID (e.g., blog_rank)")
	cmd.Flags().StringVar(&src.Title, "title", "", "Section title shown in the context document")
	cmd.Flags().StringVar(&src.Group, "group", "", "Source group (e.g., blog)")
	cmd.Flags().StringVar(&src.Path, "source-path", "", "Retrieval path when it differs from the ID")
	cmd.Flags().StringVar(&kind, "kind", string(models.SourceKindTabular), "tabular or insight")
	cmd.Flags().BoolVar(&baseline, "baseline", false, "Load this source for every question")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var id, field, value string
	cmd := &cobra.Command{
		Use:     "update",
		Short:   "Update one field of a source",
		Example: `  registry-updater update --id traffic --field title --value "트래픽 현황"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := registry.ReadCatalogFile(catalogPath)
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}
			if err := updateSource(file, id, field, value); err != nil {
				return err
			}
			if err := registry.SaveCatalogFile(catalogPath, file); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s.%s\n", id, field)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Source ID to update")
	cmd.Flags().StringVar(&field, "field", "", "Field to update (title, group, path, kind)")
	cmd.Flags().StringVar(&value, "value", "", "New value for the field")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func updateSource(file *registry.CatalogFile, id, field, value string) error {
	for i := range file.Sources {
		if file.Sources[i].ID != id {
			continue
		}
		switch field {
		case "title":
			file.Sources[i].Title = value
		case "group":
			file.Sources[i].Group = value
		case "path":
			file.Sources[i].Path = value
		case "kind":
			file.Sources[i].Kind = models.SourceKind(value)
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		return nil
	}
	return fmt.Errorf("source with ID %s not found", id)
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := registry.LoadCatalog(catalogPath)
			if err != nil {
				return fmt.Errorf("catalog validation failed: %w", err)
			}
			if len(catalog.Baseline()) == 0 {
				return errors.New("catalog has an empty baseline")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog validation passed. Found %d sources, %d in baseline.\n",
				len(catalog.All()), len(catalog.Baseline()))
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog sources in catalog order",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadOrDefault()
			if err != nil {
				return err
			}
			catalog, err := file.Catalog()
			if err != nil {
				return err
			}

			baseline := make(map[string]bool)
			for _, id := range catalog.Baseline() {
				baseline[id] = true
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tGROUP\tBASELINE\tTITLE")
			for _, s := range catalog.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", s.ID, s.Kind, s.Group, baseline[s.ID], s.Title)
			}
			return w.Flush()
		},
	}
}

// loadOrDefault reads the catalog file, falling back to the built-in catalog
// when the file does not exist yet.
func loadOrDefault() (*registry.CatalogFile, error) {
	file, err := registry.ReadCatalogFile(catalogPath)
	if errors.Is(err, os.ErrNotExist) {
		return registry.Export(registry.DefaultCatalog()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return file, nil
}
