package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spendsight/internal/config"
	"spendsight/internal/logger"
	"spendsight/internal/services"
)

func init() {
	logger.Init("test")
	config.Set(&config.Config{
		BaseCurrency:    "USD",
		ImportMaxBytes:  1 << 20,
		DuplicateWindow: 5 * time.Minute,
	})
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statement.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestRootCmd(t *testing.T) {
	want := map[string]bool{"import": false, "categories": false, "convert": false}
	for _, sub := range rootCmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected %q subcommand", name)
		}
	}
}

func TestImportCmd(t *testing.T) {
	t.Run("imports and categorizes by keyword", func(t *testing.T) {
		path := writeCSV(t, "Date,Merchant,Amount,Currency\n"+
			"2024-01-15,Starbucks Reserve,5.50,USD\n"+
			"2024-01-16,Uber Trip,12.00,USD\n"+
			"2024-01-17,Corner Shop,2.50,USD\n")

		var out bytes.Buffer
		cmd := importCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{path, "--rule", "starbucks=Coffee"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := out.String()
		for _, s := range []string{"Imported 3 transactions, skipped 0 rows.", "Transactions: 3", "$20.00", "Coffee", "Uncategorized"} {
			if !strings.Contains(got, s) {
				t.Errorf("expected output to contain %q, got:\n%s", s, got)
			}
		}
	})

	t.Run("totals each currency separately", func(t *testing.T) {
		path := writeCSV(t, "Date,Merchant,Amount,Currency\n"+
			"2024-01-15,Hotel,150.00,USD\n"+
			"2024-01-16,Cafe de Flore,30.00,EUR\n")

		var out bytes.Buffer
		cmd := importCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{path})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := out.String()
		for _, s := range []string{"Total USD:    $150.00", "Total EUR:    €30.00", "90.00 (mixed currencies)"} {
			if !strings.Contains(got, s) {
				t.Errorf("expected output to contain %q, got:\n%s", s, got)
			}
		}
		if strings.Contains(got, "$180.00") {
			t.Errorf("currencies were summed under one symbol:\n%s", got)
		}
	})

	t.Run("fails when no row is valid", func(t *testing.T) {
		path := writeCSV(t, "Date,Merchant,Amount,Currency\nnot-a-date,Shop,abc,USD\n")

		var out bytes.Buffer
		cmd := importCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{path})

		if err := cmd.Execute(); err == nil {
			t.Fatal("expected an error")
		}
		if !strings.Contains(out.String(), "row 2") {
			t.Errorf("expected row error in output, got:\n%s", out.String())
		}
	})

	t.Run("rejects a non-csv file", func(t *testing.T) {
		cmd := importCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"statement.txt"})

		if err := cmd.Execute(); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestAddKeywordRules(t *testing.T) {
	store := services.NewCategoryService(nil, nil)
	store.SeedDefaults()

	tests := []struct {
		name    string
		flags   []string
		wantErr bool
	}{
		{name: "valid rules", flags: []string{"latte=Coffee", "uber=public transit"}},
		{name: "missing separator", flags: []string{"latte"}, wantErr: true},
		{name: "empty keyword", flags: []string{"=Coffee"}, wantErr: true},
		{name: "unknown category", flags: []string{"latte=Beverages"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := addKeywordRules(store, tt.flags)
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCategoriesCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := categoriesCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Travel\n") || !strings.Contains(got, "  Flights\n") {
		t.Errorf("expected an indented tree, got:\n%s", got)
	}
}

func TestConvertCmd(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "same currency", args: []string{"10", "usd", "USD"}, want: "$10.00 = $10.00"},
		{name: "bad amount", args: []string{"ten", "USD", "EUR"}, wantErr: true},
		{name: "unsupported currency", args: []string{"10", "USD", "XYZ"}, wantErr: true},
		{name: "wrong arity", args: []string{"10", "USD"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := convertCmd()
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && !strings.Contains(out.String(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, out.String())
			}
		})
	}
}
