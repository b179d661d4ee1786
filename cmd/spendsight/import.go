package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"spendsight/internal/config"
	"spendsight/internal/csvimport"
	"spendsight/internal/currency"
	"spendsight/internal/models"
	"spendsight/internal/services"
)

func importCmd() *cobra.Command {
	var rules []string

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a CSV statement and print spending statistics",
		Long: `Run the CSV import pipeline on a file into a fresh in-memory ledger.

Uncategorized rows are matched against keyword rules given with --rule,
each of the form KEYWORD=Category, where Category names one of the
default categories or subcategories.`,
		Example: "  spendsight import march.csv --rule starbucks=Coffee --rule uber=\"Public Transit\"",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			categories := services.NewCategoryService(nil, nil)
			categories.SeedDefaults()
			if err := addKeywordRules(categories, rules); err != nil {
				return err
			}

			ledger := services.NewLedger(nil)
			importer := csvimport.NewImporter(ledger,
				csvimport.WithCategorizer(categories),
				csvimport.WithMaxBytes(cfg.ImportMaxBytes),
				csvimport.WithDuplicateWindow(cfg.DuplicateWindow),
			)

			out, err := importer.Run(cmd.Context(), csvimport.PathSource(args[0]))
			if err != nil {
				return err
			}
			return printImport(cmd.OutOrStdout(), out, ledger)
		},
	}

	cmd.Flags().StringArrayVar(&rules, "rule", nil, "keyword rule KEYWORD=Category (repeatable)")

	return cmd
}

// addKeywordRules installs one keyword rule per KEYWORD=Category flag. Earlier flags win ties.
func addKeywordRules(store services.CategoryServicer, flags []string) error {
	byName := make(map[string]string)
	for _, c := range store.List(false) {
		if _, seen := byName[strings.ToLower(c.Name)]; !seen {
			byName[strings.ToLower(c.Name)] = c.ID
		}
	}

	for i, flag := range flags {
		keyword, name, ok := strings.Cut(flag, "=")
		keyword, name = strings.TrimSpace(keyword), strings.TrimSpace(name)
		if !ok || keyword == "" || name == "" {
			return fmt.Errorf("invalid --rule %q (want KEYWORD=Category)", flag)
		}
		categoryID, found := byName[strings.ToLower(name)]
		if !found {
			return fmt.Errorf("unknown category %q in --rule %q", name, flag)
		}
		if _, err := store.AddRule(models.RuleInput{
			CategoryID: categoryID,
			MatchType:  models.RuleMatchKeyword,
			MatchValue: keyword,
			Operator:   models.RuleOpContains,
			Priority:   len(flags) - i,
			IsActive:   true,
		}); err != nil {
			return fmt.Errorf("failed to add rule %q: %w", flag, err)
		}
	}
	return nil
}

// printImport writes the outcome and a summary of the ledger. Amounts are never
// converted, so totals are shown per currency.
func printImport(w io.Writer, out csvimport.Outcome, ledger services.LedgerServicer) error {
	fmt.Fprintln(w, out.Message)
	for _, rowErr := range out.Errors {
		fmt.Fprintf(w, "  row %d: %s\n", rowErr.Row, rowErr.Message)
	}
	if out.Status != csvimport.StatusSuccess {
		return fmt.Errorf("import failed: %s", out.Kind)
	}
	if out.DuplicateCount > 0 {
		fmt.Fprintf(w, "%d possible duplicate(s) detected\n", out.DuplicateCount)
	}

	stats := ledger.Stats(nil)
	fmt.Fprintf(w, "\nTransactions: %d\n", stats.TotalCount)
	codes := make([]string, 0, len(stats.CurrencyBreakdown))
	for code := range stats.CurrencyBreakdown {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "Total %s:    %s\n", code, currency.Format(stats.CurrencyBreakdown[code], code))
	}
	if len(codes) == 1 {
		fmt.Fprintf(w, "Average:      %s\n\n", currency.Format(stats.AverageAmount, codes[0]))
	} else {
		fmt.Fprintf(w, "Average:      %s (mixed currencies)\n\n", stats.AverageAmount.StringFixed(2))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCOUNT\tSPEND\tSHARE")
	for _, cs := range ledger.CategoryStats(nil) {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.1f%%\n", cs.Name, cs.TransactionCount, cs.TotalSpend.StringFixed(2), cs.PercentageOfTotal)
	}
	return tw.Flush()
}
