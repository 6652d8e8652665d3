package vocab

import (
	"strings"

	"github.com/curatehq/curate/model"
)

// PathSeparator joins breadcrumb segments in materialized keyword paths.
const PathSeparator = " > "

// Match is one search hit: the node plus its breadcrumb from the root.
type Match struct {
	Node model.VocabularyNode `json:"node"`
	Path string               `json:"path"`
}

// Search walks the vocabulary pre-order and returns every node whose text
// or description contains the query, case-insensitively. A matching node's
// subtree is still searched: descendants of a hit can be hits themselves.
func (s *Store) Search(vocab model.VocabularyType, query string, limit int) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	roots := s.Tree(vocab)
	var out []Match
	var walk func(nodes []model.VocabularyNode, trail []string)
	walk = func(nodes []model.VocabularyNode, trail []string) {
		for _, n := range nodes {
			if limit > 0 && len(out) >= limit {
				return
			}
			path := append(trail, n.Text)
			if strings.Contains(strings.ToLower(n.Text), query) ||
				strings.Contains(strings.ToLower(n.Description), query) {
				out = append(out, Match{
					Node: n,
					Path: strings.Join(path, PathSeparator),
				})
			}
			walk(n.Children, path)
		}
	}
	walk(roots, nil)
	return out
}

// Resolve finds a node by id and returns the selection entry with its
// materialized breadcrumb. The bool reports whether the node exists in the
// loaded tree.
func (s *Store) Resolve(vocab model.VocabularyType, id string) (model.SelectedKeyword, bool) {
	roots := s.Tree(vocab)

	var found *model.SelectedKeyword
	var walk func(nodes []model.VocabularyNode, trail []string) bool
	walk = func(nodes []model.VocabularyNode, trail []string) bool {
		for _, n := range nodes {
			path := append(trail, n.Text)
			if n.ID == id {
				found = &model.SelectedKeyword{
					ID:         n.ID,
					Text:       n.Text,
					Path:       strings.Join(path, PathSeparator),
					Vocabulary: vocab,
				}
				return true
			}
			if walk(n.Children, path) {
				return true
			}
		}
		return false
	}
	walk(roots, nil)

	if found == nil {
		return model.SelectedKeyword{}, false
	}
	return *found, true
}

// ResolveText finds a node whose full text equals the given value,
// case-insensitively, across the loaded trees. Used to re-resolve legacy
// markers against the current vocabularies.
func (s *Store) ResolveText(text string) (model.SelectedKeyword, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return model.SelectedKeyword{}, false
	}

	for _, vocab := range s.Loaded() {
		for _, m := range s.Search(vocab, text, 0) {
			if strings.ToLower(m.Node.Text) == text || strings.ToLower(m.Path) == text {
				return model.SelectedKeyword{
					ID:         m.Node.ID,
					Text:       m.Node.Text,
					Path:       m.Path,
					Vocabulary: vocab,
				}, true
			}
		}
	}
	return model.SelectedKeyword{}, false
}
