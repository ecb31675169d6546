package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noesis-ai/noesis/internal/model"
	"github.com/noesis-ai/noesis/internal/registry"
)

var (
	regAddType      string
	regAddAliases   []string
	regAddHierarchy string
	regLookupType   string
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Manage the canonical entity catalog",
	Long: `Inspect and edit the entity registry that query parsing resolves
aliases against. Changes are persisted immediately.`,
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered entities",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		for _, rec := range reg.All() {
			line := fmt.Sprintf("%-14s %s", rec.Type, rec.Name)
			if len(rec.Aliases) > 0 {
				line += "  [" + strings.Join(rec.Aliases, ", ") + "]"
			}
			fmt.Println(line)
		}
		return nil
	},
}

var registryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or update an entity",
	Example: `  noesis registry add 上海 --type LOCATION --alias 魔都 --alias 申城
  noesis registry add 阿里巴巴 --type ORGANIZATION`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}

		rec := registry.Record{
			Name:      args[0],
			Type:      model.NormalizeEntityType(regAddType),
			Aliases:   regAddAliases,
			Hierarchy: regAddHierarchy,
		}
		if _, exists := reg.Get(rec.Name); exists {
			if err := reg.Update(rec, true); err != nil {
				return err
			}
			fmt.Printf("updated %s\n", rec.Name)
			return nil
		}
		if err := reg.Add(rec, true); err != nil {
			return err
		}
		fmt.Printf("added %s\n", rec.Name)
		return nil
	},
}

var registryRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		if err := reg.Remove(args[0], true); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", args[0])
		return nil
	},
}

var registryLookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Resolve a name or alias to candidate entities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		typ := model.EntityOther
		if regLookupType != "" {
			typ = model.NormalizeEntityType(regLookupType)
		}
		candidates := reg.FindSimilar(args[0], typ, 5)
		if len(candidates) == 0 {
			fmt.Println("no match")
			return nil
		}
		for _, rec := range candidates {
			fmt.Printf("%-14s %s\n", rec.Type, rec.Name)
		}
		return nil
	},
}

func openRegistry() (*registry.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newCommandLogger(cfg)
	if err != nil {
		return nil, err
	}
	return registry.New(cfg.Registry.Path, log)
}

func init() {
	registryAddCmd.Flags().StringVar(&regAddType, "type", "OTHER", "entity type (PERSON, LOCATION, ORGANIZATION, ...)")
	registryAddCmd.Flags().StringArrayVar(&regAddAliases, "alias", nil, "alias for the entity (repeatable)")
	registryAddCmd.Flags().StringVar(&regAddHierarchy, "hierarchy", "", "containment path, e.g. 中国/华东/上海")
	registryLookupCmd.Flags().StringVar(&regLookupType, "type", "", "restrict matching to an entity type")

	registryCmd.AddCommand(registryListCmd)
	registryCmd.AddCommand(registryAddCmd)
	registryCmd.AddCommand(registryRemoveCmd)
	registryCmd.AddCommand(registryLookupCmd)
	rootCmd.AddCommand(registryCmd)
}
