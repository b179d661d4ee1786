package validation

import (
	"testing"
	"time"

	"spendsight/internal/models"
	"spendsight/internal/testutil"
)

func TestFindSimilarTransactions(t *testing.T) {
	existing := []models.Transaction{
		testutil.NewTransaction("STARBUCKS #1234", "5.50", "USD"),
		testutil.NewTransaction("Starbucks #12", "5.50", "USD"),
		testutil.NewTransaction("Amazon", "5.50", "USD"),
		testutil.NewTransaction("Starbucks #1234", "6.00", "USD"),
		testutil.NewTransactionOn("Starbucks #1234", "5.50", "USD", testutil.FixedTime.Add(30*24*time.Hour)),
	}
	candidate := testutil.NewTransactionOn("Starbucks #1234", "5.50", "USD", testutil.FixedTime.Add(24*time.Hour))

	got := FindSimilarTransactions(existing, candidate, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d: %+v", len(got), got)
	}
	if got[0].Transaction.ID != existing[0].ID {
		t.Errorf("exact merchant match should rank first, got %s", got[0].Transaction.Merchant)
	}
	if got[0].Similarity != 1 {
		t.Errorf("expected similarity 1, got %f", got[0].Similarity)
	}
	if got[1].Similarity >= got[0].Similarity {
		t.Error("suggestions should be ordered best first")
	}
}

func TestFindSimilarTransactions_SkipsSelf(t *testing.T) {
	tx := testutil.NewTransaction("Starbucks", "5.50", "USD")
	if got := FindSimilarTransactions([]models.Transaction{tx}, tx, 0); len(got) != 0 {
		t.Errorf("a transaction should not be similar to itself, got %+v", got)
	}
}
