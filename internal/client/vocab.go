package client

import (
	"context"
	"fmt"

	"github.com/curatehq/curate/model"
)

// VocabClient talks to the vocabulary server hosting the GCMD and MSL
// keyword trees.
type VocabClient struct {
	*Client
}

// treePath maps a vocabulary type to its endpoint.
func treePath(vocab model.VocabularyType) (string, error) {
	switch vocab {
	case model.VocabScienceKeywords:
		return "/vocabs/gcmd-science-keywords", nil
	case model.VocabPlatforms:
		return "/vocabs/gcmd-platforms", nil
	case model.VocabInstruments:
		return "/vocabs/gcmd-instruments", nil
	case model.VocabMSL:
		return "/vocabs/msl-keywords", nil
	default:
		return "", fmt.Errorf("client vocabulary: unknown vocabulary %q", vocab)
	}
}

// Tree retrieves the root nodes of one vocabulary tree.
func (c *VocabClient) Tree(ctx context.Context, vocab model.VocabularyType) ([]model.VocabularyNode, error) {
	path, err := treePath(vocab)
	if err != nil {
		return nil, err
	}
	var payload listPayload[model.VocabularyNode]
	if err := c.GetJSON(ctx, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.items(), nil
}

// MSLLaboratories retrieves the laboratory list shown when the MSL
// vocabulary is active.
func (c *VocabClient) MSLLaboratories(ctx context.Context) ([]string, error) {
	var payload listPayload[string]
	if err := c.GetJSON(ctx, "/vocabs/msl-laboratories", nil, &payload); err != nil {
		return nil, err
	}
	return payload.items(), nil
}
