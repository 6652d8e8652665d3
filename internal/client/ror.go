package client

import (
	"context"

	"github.com/curatehq/curate/model"
)

// RORClient talks to the ROR funder service. The funder list is fetched
// once per process and indexed in memory by the lookup package.
type RORClient struct {
	*Client
}

// Funders retrieves the complete funder list.
func (c *RORClient) Funders(ctx context.Context) ([]model.FunderRecord, error) {
	var payload listPayload[model.FunderRecord]
	if err := c.GetJSON(ctx, "/funders", nil, &payload); err != nil {
		return nil, err
	}
	return payload.items(), nil
}

// AffiliationSuggestions retrieves the curated affiliation suggestion list
// consumed by the affiliation tag inputs.
func (c *RORClient) AffiliationSuggestions(ctx context.Context) ([]model.AffiliationSuggestion, error) {
	var payload listPayload[model.AffiliationSuggestion]
	if err := c.GetJSON(ctx, "/affiliations", nil, &payload); err != nil {
		return nil, err
	}
	return payload.items(), nil
}
