// Package keyword provides full-text search over book titles, authors, and genres.
package keyword

import (
	"context"

	"github.com/hyperjump/bibliodash/internal/models"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// TitleBoost multiplies the score contribution from matches in the title field.
	// Use 1.0 for no boost.
	TitleBoost float64
	// FuzzyEnabled enables fuzzy matching for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance for fuzzy matching (1 or 2).
	// Default is 1 when FuzzyEnabled is true.
	Fuzziness int
}

// KeywordIndex defines keyword search operations over the books of one dataset.
type KeywordIndex interface {
	IndexBooks(ctx context.Context, books []*models.Book) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error)
	// MatchIDs returns the IDs of every book matching query, retrying with
	// fuzzy matching when the exact query finds nothing.
	MatchIDs(ctx context.Context, query string) (map[string]struct{}, error)
	// Suggest returns query with unknown terms replaced by their closest indexed term.
	Suggest(query string) string
	DocCount() (uint64, error)
	Close() error
}

// TermDictionary exposes the indexed terms for spell checking.
type TermDictionary interface {
	// GetAllTerms returns every distinct indexed term.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the number of books containing term.
	GetTermFrequency(term string) (int, error)
}

// KeywordResult is a single keyword search hit.
type KeywordResult struct {
	ID    string
	Score float64
}
