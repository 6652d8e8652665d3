// Package vocab manages the hierarchical keyword vocabularies: the three
// GCMD trees loaded concurrently after startup, the MSL tree loaded lazily
// when a trigger keyword appears, and recursive search over the loaded
// trees. Selections are held flat on the form state; this package only
// serves the trees and resolves node paths.
package vocab

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/curatehq/curate/model"
)

// TreeFetcher fetches the root nodes of one vocabulary tree.
type TreeFetcher interface {
	Tree(ctx context.Context, vocab model.VocabularyType) ([]model.VocabularyNode, error)
}

// Store holds the loaded vocabulary trees.
type Store struct {
	fetcher  TreeFetcher
	triggers []string
	log      *zap.Logger

	mu    sync.RWMutex
	trees map[model.VocabularyType][]model.VocabularyNode
}

// NewStore creates an empty store. triggers are the lowercase free-keyword
// fragments that activate the MSL vocabulary.
func NewStore(fetcher TreeFetcher, triggers []string, log *zap.Logger) *Store {
	lowered := make([]string, len(triggers))
	for i, t := range triggers {
		lowered[i] = strings.ToLower(t)
	}
	return &Store{
		fetcher:  fetcher,
		triggers: lowered,
		log:      log.Named("vocab"),
		trees:    make(map[model.VocabularyType][]model.VocabularyNode),
	}
}

// LoadGCMD fetches the three GCMD trees concurrently and joins before
// returning. Each tree loads independently: a failed tree is logged and
// stays empty while the others are installed and served. The returned error
// reports the failures so the caller can record or retry them.
func (s *Store) LoadGCMD(ctx context.Context) error {
	var g errgroup.Group
	for _, vocab := range model.GCMDVocabularies {
		vocab := vocab
		g.Go(func() error {
			nodes, err := s.fetcher.Tree(ctx, vocab)
			if err != nil {
				s.log.Warn("vocabulary load failed",
					zap.String("vocabulary", string(vocab)),
					zap.Error(err))
				return fmt.Errorf("%s: %w", vocab, err)
			}

			s.mu.Lock()
			s.trees[vocab] = nodes
			s.mu.Unlock()

			s.log.Info("vocabulary loaded",
				zap.String("vocabulary", string(vocab)),
				zap.Int("roots", len(nodes)))
			return nil
		})
	}
	return g.Wait()
}

// EnsureMSL loads the MSL tree if any free keyword matches a trigger word
// and the tree is not already loaded. Returns whether MSL is active.
func (s *Store) EnsureMSL(ctx context.Context, freeKeywords []string) (bool, error) {
	if !s.mslTriggered(freeKeywords) {
		return false, nil
	}

	s.mu.RLock()
	_, loaded := s.trees[model.VocabMSL]
	s.mu.RUnlock()
	if loaded {
		return true, nil
	}

	nodes, err := s.fetcher.Tree(ctx, model.VocabMSL)
	if err != nil {
		return true, err
	}
	s.mu.Lock()
	s.trees[model.VocabMSL] = nodes
	s.mu.Unlock()
	s.log.Info("vocabulary loaded",
		zap.String("vocabulary", string(model.VocabMSL)),
		zap.Int("roots", len(nodes)))
	return true, nil
}

// mslTriggered reports whether any free keyword contains a trigger word.
func (s *Store) mslTriggered(freeKeywords []string) bool {
	for _, kw := range freeKeywords {
		kw = strings.ToLower(kw)
		for _, trigger := range s.triggers {
			if strings.Contains(kw, trigger) {
				return true
			}
		}
	}
	return false
}

// Tree returns the loaded roots of one vocabulary, or nil when not loaded.
func (s *Store) Tree(vocab model.VocabularyType) []model.VocabularyNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trees[vocab]
}

// Loaded lists the vocabularies currently available.
func (s *Store) Loaded() []model.VocabularyType {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.VocabularyType, 0, len(s.trees))
	for _, vocab := range []model.VocabularyType{
		model.VocabScienceKeywords, model.VocabPlatforms,
		model.VocabInstruments, model.VocabMSL,
	} {
		if _, ok := s.trees[vocab]; ok {
			out = append(out, vocab)
		}
	}
	return out
}
