package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"spendsight/internal/models"
	"spendsight/internal/services"
)

func categoriesCmd() *cobra.Command {
	var withRules bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Print the default category tree",
		Long:  `Seed the default categories and print them as an indented tree.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := services.NewCategoryService(nil, nil)
			store.SeedDefaults()

			tree, err := store.Hierarchy()
			if err != nil {
				return fmt.Errorf("failed to build hierarchy: %w", err)
			}
			printTree(cmd.OutOrStdout(), store, tree, 0, withRules)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withRules, "rules", false, "also print each category's rules")

	return cmd
}

func printTree(w io.Writer, store services.CategoryServicer, nodes []models.CategoryHierarchy, depth int, withRules bool) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		line := indent + n.Name
		if n.Icon != "" {
			line = indent + n.Icon + " " + n.Name
		}
		fmt.Fprintln(w, line)
		if withRules {
			for _, r := range store.RulesFor(n.ID) {
				fmt.Fprintf(w, "%s    [%s %s %q p%d]\n", indent, r.MatchType, r.Operator, r.MatchValue, r.Priority)
			}
		}
		printTree(w, store, n.Subcategories, depth+1, withRules)
	}
}
