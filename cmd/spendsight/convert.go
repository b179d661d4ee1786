package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"spendsight/internal/currency"
)

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "convert <amount> <from> <to>",
		Short:   "Convert an amount between supported currencies",
		Example: "  spendsight convert 12.50 EUR USD",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[0])
			}
			from, to := strings.ToUpper(args[1]), strings.ToUpper(args[2])
			for _, code := range []string{from, to} {
				if !currency.IsSupported(code) {
					return fmt.Errorf("unsupported currency %q (supported: %s)", code, strings.Join(currency.Supported(), ", "))
				}
			}

			converted := currency.Convert(amount, from, to)
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (rate %s)\n",
				currency.Format(amount, from), currency.Format(converted, to), currency.Rate(from, to))
			return nil
		},
	}
}
