package csvimport

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spendsight/internal/idgen"
	"spendsight/internal/models"
	"spendsight/internal/services"
	"spendsight/internal/testutil"
)

var importNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestImporter(ledger services.LedgerServicer, opts ...Option) *Importer {
	base := []Option{
		WithClock(func() time.Time { return importNow }),
		WithIDs(&idgen.Sequential{}),
	}
	return NewImporter(ledger, append(base, opts...)...)
}

func run(t *testing.T, im *Importer, name, content string) Outcome {
	t.Helper()
	out, err := im.Run(context.Background(), StringSource{FileName: name, Content: content})
	testutil.AssertNoError(t, err)
	return out
}

func TestImport_SingleRow(t *testing.T) {
	ledger := services.NewLedger(nil)
	out := run(t, newTestImporter(ledger), "expenses.csv", "Date,Merchant,Amount,Currency\n2024-01-15,Starbucks,5.50,usd\n")

	if out.Status != StatusSuccess || out.ImportedCount != 1 || out.SkippedCount != 0 {
		t.Fatalf("unexpected outcome %+v", out)
	}

	all := ledger.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 transaction in ledger, got %d", len(all))
	}
	tx := all[0]
	testutil.AssertDecimal(t, tx.Amount, "5.50")
	if tx.Currency != "USD" || tx.Category != DefaultCategory || tx.CardID != DefaultCardID {
		t.Errorf("unexpected transaction %+v", tx)
	}
	if !tx.Date.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", tx.Date)
	}
	if !idgen.HasPrefix(tx.ID, idgen.PrefixTransaction) || !tx.CreatedAt.Equal(importNow) {
		t.Errorf("expected assigned id and timestamps, got %s / %v", tx.ID, tx.CreatedAt)
	}
}

func TestImport_OptionalColumns(t *testing.T) {
	ledger := services.NewLedger(nil)
	csv := "notes,REIMBURSABLE,CardId,category,currency,amount,merchant,date\n" +
		`"Team lunch, 4 people",TRUE,card_amex,Meals,EUR,"1,234.50",Chez Nous,2024-02-01` + "\n" +
		",yes,,,GBP,10,Pret,2024-02-02\n"

	out := run(t, newTestImporter(ledger), "mixed.CSV", csv)
	if out.ImportedCount != 2 {
		t.Fatalf("expected 2 imported, got %+v", out)
	}

	all := ledger.All()
	first, second := all[0], all[1]
	if first.Notes != "Team lunch, 4 people" || !first.IsReimbursable || first.CardID != "card_amex" || first.Category != "Meals" {
		t.Errorf("unexpected first row %+v", first)
	}
	testutil.AssertDecimal(t, first.Amount, "1234.50")
	if second.IsReimbursable {
		t.Error("only the literal true is reimbursable")
	}
}

func TestImport_PartialFailure(t *testing.T) {
	ledger := services.NewLedger(nil)
	csv := "Date,Merchant,Amount,Currency\n" +
		"2024-01-15,Starbucks,5.50,USD\n" +
		"2024-01-16,Refund,-5,USD\n"

	out := run(t, newTestImporter(ledger), "expenses.csv", csv)
	if out.Status != StatusSuccess || out.ImportedCount != 1 || out.SkippedCount != 1 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(out.Errors) != 1 || out.Errors[0].Row != 3 {
		t.Errorf("expected an error for row 3, got %+v", out.Errors)
	}
	if ledger.Count() != 1 {
		t.Errorf("expected 1 committed transaction, got %d", ledger.Count())
	}
}

func TestImport_RowErrors(t *testing.T) {
	csv := "Date,Merchant,Amount,Currency,Notes\n" +
		",Starbucks,5.50,USD,\n" +
		"not-a-date,Starbucks,5.50,USD,\n" +
		"2024-01-15,Starbucks,abc,USD,\n" +
		"2024-01-15,Starbucks,0,USD,\n" +
		"2099-01-01,Starbucks,5,USD,\n" +
		"2024-01-15,Starbucks,5,USD," + strings.Repeat("n", 501) + "\n" +
		"2024-01-15,Starbucks\n"

	out := run(t, newTestImporter(services.NewLedger(nil)), "bad.csv", csv)
	if out.Status != StatusError || out.Kind != KindNoValidRows {
		t.Fatalf("expected no-valid-rows error, got %+v", out)
	}
	if out.SkippedCount != 7 || len(out.Errors) != 7 {
		t.Errorf("expected 7 skipped rows, got %d", out.SkippedCount)
	}
	if !strings.Contains(out.Message, "7") {
		t.Errorf("message should carry the invalid count: %q", out.Message)
	}
	if !strings.Contains(out.Errors[0].Message, "date") {
		t.Errorf("unexpected first error %q", out.Errors[0].Message)
	}
	if !strings.Contains(out.Errors[4].Message, "future") {
		t.Errorf("expected future-date rejection, got %q", out.Errors[4].Message)
	}
}

func TestImport_Structural(t *testing.T) {
	for name, content := range map[string]string{
		"header_only": "Date,Merchant,Amount,Currency\n",
		"empty":       "",
		"blank_lines": "\n\n",
	} {
		t.Run(name, func(t *testing.T) {
			ledger := services.NewLedger(nil)
			out := run(t, newTestImporter(ledger), "x.csv", content)
			if out.Status != StatusError || out.Kind != KindStructural {
				t.Errorf("expected structural error, got %+v", out)
			}
			if ledger.Count() != 0 {
				t.Error("nothing should be committed")
			}
		})
	}
}

func TestImport_InvalidFileType(t *testing.T) {
	im := newTestImporter(services.NewLedger(nil))
	out := run(t, im, "expenses.xlsx", "Date,Merchant,Amount,Currency\n2024-01-15,A,1,USD\n")

	if out.Status != StatusError || out.Kind != KindInvalidFileType {
		t.Errorf("expected invalid file type, got %+v", out)
	}
	if im.State() != StateIdle {
		t.Errorf("expected importer to return to idle, got %s", im.State())
	}
}

type failingSource struct{ name string }

func (f failingSource) Name() string                 { return f.name }
func (f failingSource) Open() (io.ReadCloser, error) { return nil, errors.New("disk on fire") }

func TestImport_IOError(t *testing.T) {
	im := newTestImporter(services.NewLedger(nil))
	out, err := im.Run(context.Background(), failingSource{name: "x.csv"})
	testutil.AssertNoError(t, err)

	if out.Status != StatusError || out.Kind != KindIO {
		t.Errorf("expected io error outcome, got %+v", out)
	}
	last, ok := im.LastOutcome()
	if !ok || last.Kind != KindIO {
		t.Errorf("expected last outcome to be recorded, got %+v", last)
	}
}

func TestImport_TooLarge(t *testing.T) {
	im := newTestImporter(services.NewLedger(nil), WithMaxBytes(10))
	out := run(t, im, "big.csv", "Date,Merchant,Amount,Currency\n2024-01-15,A,1,USD\n")
	if out.Kind != KindIO || !strings.Contains(out.Message, ErrTooLarge.Error()) {
		t.Errorf("expected size-limit io error, got %+v", out)
	}
}

type blockingSource struct {
	opened  chan struct{}
	release chan struct{}
}

func (b *blockingSource) Name() string { return "slow.csv" }

func (b *blockingSource) Open() (io.ReadCloser, error) {
	close(b.opened)
	<-b.release
	return io.NopCloser(strings.NewReader("Date,Merchant,Amount,Currency\n2024-01-15,A,1,USD\n")), nil
}

func TestImport_RejectsConcurrentRun(t *testing.T) {
	im := newTestImporter(services.NewLedger(nil))
	src := &blockingSource{opened: make(chan struct{}), release: make(chan struct{})}

	done := make(chan Outcome)
	go func() {
		out, _ := im.Run(context.Background(), src)
		done <- out
	}()

	<-src.opened
	if im.State() != StateLoading {
		t.Errorf("expected loading state, got %s", im.State())
	}
	_, err := im.Run(context.Background(), StringSource{FileName: "b.csv", Content: "x"})
	testutil.AssertAppError(t, err, "IMPORT_IN_PROGRESS")

	close(src.release)
	out := <-done
	if out.Status != StatusSuccess {
		t.Errorf("first import should succeed, got %+v", out)
	}
	if im.State() != StateIdle {
		t.Errorf("expected idle after completion, got %s", im.State())
	}
}

func TestImport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := newTestImporter(services.NewLedger(nil)).Run(ctx, StringSource{FileName: "a.csv", Content: "a,b\n1,2\n"})
	testutil.AssertNoError(t, err)
	if out.Kind != KindIO {
		t.Errorf("expected io error for cancelled read, got %+v", out)
	}
}

func TestImport_DuplicatesAreCountedNotRejected(t *testing.T) {
	existing := testutil.NewTransactionOn("Starbucks", "5.50", "USD", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	ledger := services.NewLedger([]models.Transaction{existing})

	csv := "Date,Merchant,Amount,Currency\n" +
		"2024-01-15,STARBUCKS,5.50,USD\n" +
		"2024-01-20,Amazon,20,USD\n" +
		"2024-01-20,amazon,20,USD\n"

	out := run(t, newTestImporter(ledger), "dups.csv", csv)
	if out.ImportedCount != 3 || out.DuplicateCount != 2 {
		t.Errorf("expected 3 imported with 2 flagged, got %+v", out)
	}
	if ledger.Count() != 4 {
		t.Errorf("duplicates must still be committed, got %d", ledger.Count())
	}
}

func TestImport_RulesCategorizeRowsWithoutCategory(t *testing.T) {
	cats := services.NewCategoryService(nil, nil)
	travel, err := cats.Add(models.CategoryInput{Name: "Travel"})
	testutil.AssertNoError(t, err)
	_, err = cats.AddRule(models.RuleInput{CategoryID: travel, MatchType: models.RuleMatchKeyword, MatchValue: "airlines", IsActive: true})
	testutil.AssertNoError(t, err)

	ledger := services.NewLedger(nil)
	csv := "Date,Merchant,Amount,Currency,Category\n" +
		"2024-01-16,Delta Airlines,250,USD,\n" +
		"2024-01-16,United Airlines,300,USD,Client Visit\n" +
		"2024-01-16,Starbucks,5,USD,\n"

	run(t, newTestImporter(ledger, WithCategorizer(cats)), "trip.csv", csv)

	all := ledger.All()
	if all[0].Category != "Travel" || all[0].CategoryID != travel {
		t.Errorf("expected rule-assigned category, got %q", all[0].Category)
	}
	if all[1].Category != "Client Visit" {
		t.Errorf("explicit category must win, got %q", all[1].Category)
	}
	if all[2].Category != DefaultCategory {
		t.Errorf("expected default category, got %q", all[2].Category)
	}
}

func TestPathSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.csv")
	if err := os.WriteFile(path, []byte("Date,Merchant,Amount,Currency\n2024-01-15,A,1,USD\n"), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	src := PathSource(path)
	if src.Name() != "expenses.csv" {
		t.Errorf("unexpected name %q", src.Name())
	}
	res, err := newTestImporter(services.NewLedger(nil)).Run(context.Background(), src)
	testutil.AssertNoError(t, err)
	if res.ImportedCount != 1 {
		t.Errorf("expected 1 imported, got %+v", res)
	}
}

func TestImport_ByteOrderMark(t *testing.T) {
	ledger := services.NewLedger(nil)
	out := run(t, newTestImporter(ledger), "excel.csv", "\ufeffDate,Merchant,Amount,Currency\n2024-01-15,Starbucks,5.50,USD\n")

	if out.Status != StatusSuccess || out.ImportedCount != 1 || out.SkippedCount != 0 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if ledger.All()[0].Merchant != "Starbucks" {
		t.Errorf("unexpected transaction %+v", ledger.All()[0])
	}
}

func TestImport_DecimalCommaIsARowError(t *testing.T) {
	ledger := services.NewLedger(nil)
	csv := "Date,Merchant,Amount,Currency\n" +
		`2024-01-15,Boulangerie,"5,50",EUR` + "\n" +
		"2024-01-16,Starbucks,5.50,USD\n"

	out := run(t, newTestImporter(ledger), "eu.csv", csv)
	if out.ImportedCount != 1 || out.SkippedCount != 1 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.Errors[0].Row != 2 || !strings.Contains(out.Errors[0].Message, "invalid amount") {
		t.Errorf("unexpected row error %+v", out.Errors[0])
	}
	testutil.AssertDecimal(t, ledger.All()[0].Amount, "5.50")
}

func TestImport_LastOutcomeAfterReturnToIdle(t *testing.T) {
	im := newTestImporter(services.NewLedger(nil))
	if _, ok := im.LastOutcome(); ok {
		t.Fatal("expected no outcome before the first import")
	}

	run(t, im, "expenses.csv", "Date,Merchant,Amount,Currency\n2024-01-15,Starbucks,5.50,USD\n")

	if im.State() != StateIdle {
		t.Errorf("expected idle after import, got %s", im.State())
	}
	last, ok := im.LastOutcome()
	if !ok || last.Status != StatusSuccess || last.ImportedCount != 1 {
		t.Errorf("unexpected last outcome %+v", last)
	}
}
