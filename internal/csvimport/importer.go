package csvimport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "spendsight/internal/errors"
	"spendsight/internal/idgen"
	"spendsight/internal/logger"
	"spendsight/internal/models"
	"spendsight/internal/validation"
)

// State is the importer's position in its Idle -> Loading -> Success|Error cycle.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Status is the reported result of one import.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrorKind distinguishes the reasons an import can fail.
type ErrorKind string

const (
	KindInvalidFileType ErrorKind = "invalid_file_type"
	KindIO              ErrorKind = "io"
	KindStructural      ErrorKind = "structural"
	KindNoValidRows     ErrorKind = "no_valid_rows"
)

// DefaultMaxBytes caps the size of an imported file.
const DefaultMaxBytes int64 = 5 << 20

// Outcome reports one import. Errors only ever arrive as data in here.
type Outcome struct {
	Status         Status               `json:"status"`
	Kind           ErrorKind            `json:"error_kind,omitempty"`
	Message        string               `json:"message"`
	ImportedCount  int                  `json:"imported_count"`
	SkippedCount   int                  `json:"skipped_count"`
	DuplicateCount int                  `json:"duplicate_count"`
	Errors         []RowError           `json:"errors,omitempty"`
	Transactions   []models.Transaction `json:"-"`
}

// Ledger is where successfully converted rows are committed.
type Ledger interface {
	All() []models.Transaction
	ImportBatch(txs []models.Transaction) []models.Transaction
}

// Importer runs CSV imports into a ledger, one at a time.
type Importer struct {
	mu    sync.Mutex
	state State
	last  *Outcome

	ledger          Ledger
	categorizer     Categorizer
	ids             idgen.Supplier
	now             func() time.Time
	maxBytes        int64
	duplicateWindow time.Duration
	log             *zap.SugaredLogger
}

// Option customises an Importer.
type Option func(*Importer)

// WithCategorizer assigns categories to rows that lack one.
func WithCategorizer(c Categorizer) Option {
	return func(im *Importer) { im.categorizer = c }
}

// WithIDs overrides the identifier supplier.
func WithIDs(ids idgen.Supplier) Option {
	return func(im *Importer) { im.ids = ids }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(im *Importer) { im.now = now }
}

// WithMaxBytes overrides DefaultMaxBytes. Zero or less disables the limit.
func WithMaxBytes(n int64) Option {
	return func(im *Importer) { im.maxBytes = n }
}

// WithDuplicateWindow sets the window used to flag likely duplicates.
func WithDuplicateWindow(d time.Duration) Option {
	return func(im *Importer) { im.duplicateWindow = d }
}

// NewImporter creates an idle Importer committing into ledger.
func NewImporter(ledger Ledger, opts ...Option) *Importer {
	im := &Importer{
		state:           StateIdle,
		ledger:          ledger,
		ids:             idgen.Default,
		now:             time.Now,
		maxBytes:        DefaultMaxBytes,
		duplicateWindow: validation.DefaultDuplicateWindow,
		log:             logger.Named("import"),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// State returns the current state.
func (im *Importer) State() State {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.state
}

// LastOutcome returns the outcome of the most recent import, if any.
func (im *Importer) LastOutcome() (Outcome, bool) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.last == nil {
		return Outcome{}, false
	}
	return *im.last, true
}

// Run imports src. It returns ErrImportInProgress if another import is
// loading; every other failure is reported through the Outcome.
func (im *Importer) Run(ctx context.Context, src Source) (Outcome, error) {
	im.mu.Lock()
	if im.state == StateLoading {
		im.mu.Unlock()
		return Outcome{}, apperrors.ErrImportInProgress
	}

	if !strings.HasSuffix(strings.ToLower(src.Name()), ".csv") {
		out := failure(KindInvalidFileType, apperrors.ErrInvalidFileType.Message)
		im.finishLocked(src.Name(), out)
		im.mu.Unlock()
		return out, nil
	}

	im.setStateLocked(StateLoading, src.Name())
	im.mu.Unlock()

	out := im.load(ctx, src)

	im.mu.Lock()
	im.finishLocked(src.Name(), out)
	im.mu.Unlock()
	return out, nil
}

func (im *Importer) load(ctx context.Context, src Source) Outcome {
	text, err := ReadAll(ctx, src, im.maxBytes)
	if err != nil {
		im.log.Warnw("failed to read import file", "file", src.Name(), "error", err)
		return failure(KindIO, "Failed to read file: "+err.Error())
	}

	rows := Parse(text)
	if len(rows) < 2 {
		return failure(KindStructural, "CSV file must contain a header row and at least one data row")
	}

	now := im.now()
	mapper := newRowMapper(rows[0], im.ids, now, im.categorizer)

	var (
		accepted []models.Transaction
		rowErrs  []RowError
	)
	for i, fields := range rows[1:] {
		rowNum := i + 2
		tx, err := mapper.mapRow(fields)
		if err != nil {
			im.log.Debugw("skipping row", "row", rowNum, "error", err)
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		accepted = append(accepted, tx)
	}

	if len(accepted) == 0 {
		out := failure(KindNoValidRows, fmt.Sprintf("No valid transactions found. %d rows had errors.", len(rowErrs)))
		out.SkippedCount = len(rowErrs)
		out.Errors = rowErrs
		return out
	}

	dups := im.countDuplicates(accepted)
	committed := im.ledger.ImportBatch(accepted)

	return Outcome{
		Status:         StatusSuccess,
		Message:        fmt.Sprintf("Imported %d transactions, skipped %d rows.", len(committed), len(rowErrs)),
		ImportedCount:  len(committed),
		SkippedCount:   len(rowErrs),
		DuplicateCount: dups,
		Errors:         rowErrs,
		Transactions:   committed,
	}
}

// countDuplicates flags rows that look like repeats of ledger records or of
// earlier rows in the same batch. Duplicates are still imported.
func (im *Importer) countDuplicates(batch []models.Transaction) int {
	seen := im.ledger.All()
	n := 0
	for _, tx := range batch {
		if validation.IsDuplicateTransaction(seen, tx, im.duplicateWindow) {
			n++
		}
		seen = append(seen, tx)
	}
	return n
}

func (im *Importer) finishLocked(file string, out Outcome) {
	if out.Status == StatusSuccess {
		im.setStateLocked(StateSuccess, file)
		im.log.Infow("import finished",
			"file", file,
			"imported", out.ImportedCount,
			"skipped", out.SkippedCount,
			"duplicates", out.DuplicateCount,
		)
	} else {
		im.setStateLocked(StateError, file)
		im.log.Infow("import failed", "file", file, "kind", out.Kind, "message", out.Message)
	}
	im.last = &out
	im.setStateLocked(StateIdle, file)
}

func (im *Importer) setStateLocked(s State, file string) {
	im.log.Debugw("import state", "from", im.state, "to", s, "file", file)
	im.state = s
}

func failure(kind ErrorKind, msg string) Outcome {
	return Outcome{Status: StatusError, Kind: kind, Message: msg}
}
