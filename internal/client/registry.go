package client

import (
	"context"
	"net/http"

	"github.com/curatehq/curate/model"
)

// RegistryClient talks to the metadata registry that receives the final
// submission.
type RegistryClient struct {
	*Client
}

// SubmitResource posts the serialized payload. The raw result is returned
// for any HTTP status; the submit package owns the status taxonomy,
// including the registry's 419 session-expiry convention.
func (c *RegistryClient) SubmitResource(ctx context.Context, token string, payload model.Payload) (*Result, error) {
	headers := http.Header{}
	if token != "" {
		headers.Set("Authorization", "Bearer "+token)
	}
	return c.Do(ctx, http.MethodPost, "/resources", nil, headers, payload)
}
