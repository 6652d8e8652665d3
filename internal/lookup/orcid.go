package lookup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/curatehq/curate/model"
)

// fetchTimeout bounds one background ORCID fetch after the debounce settles.
const fetchTimeout = 10 * time.Second

// RecordFetcher fetches one person record by validated ORCID iD.
type RecordFetcher interface {
	FetchRecord(ctx context.Context, orcid string) (model.ORCIDRecord, error)
}

// RecordSearcher queries the registry by free text.
type RecordSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]model.ORCIDRecord, error)
}

// ORCIDScheduler runs debounced per-row ORCID lookups. Rows are keyed by
// session and row id; typing in one row never blocks or cancels another
// row's lookup. Lookup failures are logged and swallowed: verification is
// best-effort and never blocks editing or submission.
type ORCIDScheduler struct {
	fetcher  RecordFetcher
	debounce *Debouncer
	log      *zap.Logger
}

// NewORCIDScheduler creates a scheduler with the configured debounce window.
func NewORCIDScheduler(fetcher RecordFetcher, delay time.Duration, log *zap.Logger) *ORCIDScheduler {
	return &ORCIDScheduler{
		fetcher:  fetcher,
		debounce: NewDebouncer(delay),
		log:      log.Named("lookup.orcid"),
	}
}

// Input reports a keystroke in a row's ORCID field. When the input settles
// and parses as a structurally valid iD, the record is fetched and handed to
// apply; apply runs only if no newer input arrived for the row in the
// meantime. The value-level stale guard (row still holds this iD) lives with
// the form engine.
func (s *ORCIDScheduler) Input(rowKey, value string, apply func(model.ORCIDRecord)) {
	orcid, ok := model.NormalizeORCID(value)
	if !ok {
		// Incomplete or malformed input; invalidate any pending lookup.
		s.debounce.Cancel(rowKey)
		return
	}

	s.debounce.Trigger(rowKey, func(live func() bool) {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		record, err := s.fetcher.FetchRecord(ctx, orcid)
		if err != nil {
			s.log.Debug("record fetch failed",
				zap.String("row", rowKey),
				zap.Error(err))
			return
		}
		if !live() {
			return
		}
		apply(record)
	})
}

// suggestLimit caps the auto-suggest dropdown.
const suggestLimit = 5

// NameInput reports a keystroke in a row's name fields while its ORCID
// field is empty. When the input settles with both names present, the
// registry is searched and the candidates handed to apply. A non-empty
// ORCID cancels the suggestion: the explicit iD wins.
func (s *ORCIDScheduler) NameInput(rowKey, firstName, lastName, orcid string, searcher RecordSearcher, apply func([]model.ORCIDRecord)) {
	if orcid != "" || firstName == "" || lastName == "" {
		s.debounce.Cancel(rowKey)
		return
	}
	query := firstName + " " + lastName

	s.debounce.Trigger(rowKey, func(live func() bool) {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		records, err := searcher.Search(ctx, query, suggestLimit)
		if err != nil {
			s.log.Debug("name search failed",
				zap.String("row", rowKey),
				zap.Error(err))
			return
		}
		if !live() {
			return
		}
		apply(records)
	})
}

// CancelRow invalidates any pending lookup for the row, for row removal.
func (s *ORCIDScheduler) CancelRow(rowKey string) {
	s.debounce.Cancel(rowKey)
}

// CancelSession invalidates every pending lookup keyed under the session,
// for session deletion. Row keys are namespaced sessionID/scope/rowID.
func (s *ORCIDScheduler) CancelSession(sessionID string) {
	s.debounce.CancelPrefix(sessionID + "/")
}

// Stop cancels all pending lookups.
func (s *ORCIDScheduler) Stop() {
	s.debounce.Stop()
}
