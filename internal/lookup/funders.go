package lookup

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/curatehq/curate/model"
)

// FunderLister fetches the complete funder list.
type FunderLister interface {
	Funders(ctx context.Context) ([]model.FunderRecord, error)
}

// FunderIndex serves funder-name suggestions from the ROR list. The list is
// loaded once and matched case-insensitively by substring against the
// preferred label and all alternate labels.
type FunderIndex struct {
	mu      sync.RWMutex
	records []model.FunderRecord
	// lowercased labels, aligned with records
	needles [][]string
}

// NewFunderIndex builds an index over the given records.
func NewFunderIndex(records []model.FunderRecord) *FunderIndex {
	idx := &FunderIndex{}
	idx.replace(records)
	return idx
}

// LoadFunderIndex fetches the funder list and builds the index. Called once
// during startup; a failure leaves an empty index and suggestion lookups
// return nothing until Reload succeeds.
func LoadFunderIndex(ctx context.Context, lister FunderLister, log *zap.Logger) *FunderIndex {
	idx := NewFunderIndex(nil)
	if err := idx.Reload(ctx, lister); err != nil {
		log.Warn("funder list unavailable, suggestions disabled", zap.Error(err))
	}
	return idx
}

// Reload refetches the funder list and swaps the index contents.
func (idx *FunderIndex) Reload(ctx context.Context, lister FunderLister) error {
	records, err := lister.Funders(ctx)
	if err != nil {
		return err
	}
	idx.replace(records)
	return nil
}

func (idx *FunderIndex) replace(records []model.FunderRecord) {
	needles := make([][]string, len(records))
	for i, r := range records {
		labels := make([]string, 0, 1+len(r.OtherLabel))
		labels = append(labels, strings.ToLower(r.PrefLabel))
		for _, l := range r.OtherLabel {
			labels = append(labels, strings.ToLower(l))
		}
		needles[i] = labels
	}

	idx.mu.Lock()
	idx.records = records
	idx.needles = needles
	idx.mu.Unlock()
}

// Len returns the number of indexed funders.
func (idx *FunderIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.records)
}

// Suggest returns up to limit funders whose preferred or alternate label
// contains the query, case-insensitively. A blank query returns nothing.
func (idx *FunderIndex) Suggest(query string, limit int) []model.FunderRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []model.FunderRecord
	for i, labels := range idx.needles {
		for _, l := range labels {
			if strings.Contains(l, query) {
				out = append(out, idx.records[i])
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out
}
