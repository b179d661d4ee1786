package validation

import (
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"spendsight/internal/models"
)

// maxMerchantDistanceRatio is the edit distance, relative to the longer
// merchant name, under which two merchants are considered the same payee.
const maxMerchantDistanceRatio = 0.4

// DefaultSimilarWindow bounds how far apart two fuzzy matches may be.
const DefaultSimilarWindow = 7 * 24 * time.Hour

// SimilarTransaction is a fuzzy duplicate suggestion.
type SimilarTransaction struct {
	Transaction models.Transaction `json:"transaction"`
	Similarity  float64            `json:"similarity"`
}

// FindSimilarTransactions returns existing transactions with the same amount,
// within window of the candidate, whose merchant is a near match. Results are
// ordered by similarity, best first. A non-positive window means
// DefaultSimilarWindow.
func FindSimilarTransactions(existing []models.Transaction, candidate models.Transaction, window time.Duration) []SimilarTransaction {
	if candidate.Merchant == "" || candidate.Amount.IsZero() {
		return nil
	}
	if window <= 0 {
		window = DefaultSimilarWindow
	}

	var out []SimilarTransaction
	for _, t := range existing {
		if t.ID != "" && t.ID == candidate.ID {
			continue
		}
		if !t.Amount.Equal(candidate.Amount) {
			continue
		}
		if absDuration(t.Date.Sub(candidate.Date)) > window {
			continue
		}
		ratio := merchantDistance(t.Merchant, candidate.Merchant)
		if ratio >= maxMerchantDistanceRatio {
			continue
		}
		out = append(out, SimilarTransaction{Transaction: t, Similarity: 1 - ratio})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}

func merchantDistance(a, b string) float64 {
	a, b = strings.ToUpper(strings.TrimSpace(a)), strings.ToUpper(strings.TrimSpace(b))
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}
