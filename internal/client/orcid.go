package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/curatehq/curate/model"
)

// ORCIDClient talks to the ORCID lookup service.
type ORCIDClient struct {
	*Client
}

// FetchRecord retrieves the person record for a validated ORCID iD.
func (c *ORCIDClient) FetchRecord(ctx context.Context, orcid string) (model.ORCIDRecord, error) {
	var record model.ORCIDRecord
	err := c.GetJSON(ctx, "/persons/"+url.PathEscape(orcid), nil, &record)
	if err != nil {
		return model.ORCIDRecord{}, err
	}
	if record.ORCID == "" {
		record.ORCID = orcid
	}
	return record, nil
}

// Search queries the registry by free text (name fragments) and returns
// candidate records for the auto-suggest dropdown.
func (c *ORCIDClient) Search(ctx context.Context, query string, limit int) ([]model.ORCIDRecord, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("rows", strconv.Itoa(limit))
	}

	var payload listPayload[model.ORCIDRecord]
	if err := c.GetJSON(ctx, "/persons", q, &payload); err != nil {
		return nil, err
	}
	return payload.items(), nil
}
