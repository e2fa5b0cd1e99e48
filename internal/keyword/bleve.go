package keyword

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/bibliodash/internal/models"
)

const defaultTitleBoost = 3.0

// bookDoc is the indexed projection of a book.
type bookDoc struct {
	Title   string `json:"title"`
	Authors string `json:"authors"`
	Genre   string `json:"genre"`
}

// BleveIndex implements KeywordIndex using Bleve.
type BleveIndex struct {
	index   bleve.Index
	speller *SpellChecker

	termsOnce sync.Once
	terms     map[string]int
	termsErr  error
}

// NewBleveIndex creates an in-memory index. Datasets are re-indexed on every load,
// so nothing is kept on disk.
func NewBleveIndex() (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so author names match exactly.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("authors", textFieldMapping)
	docMapping.AddFieldMappingsAt("genre", textFieldMapping)
	im.AddDocumentMapping("book", docMapping)
	im.DefaultType = "book"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
	}
	b := &BleveIndex{index: index}
	b.speller = NewSpellChecker(b)
	return b, nil
}

// IndexBooks indexes books in one batch, keyed by book ID.
func (b *BleveIndex) IndexBooks(ctx context.Context, books []*models.Book) error {
	batch := b.index.NewBatch()
	for _, book := range books {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := bookDoc{Title: book.Title, Authors: book.Authors, Genre: book.Genre}
		if err := batch.Index(book.ID, doc); err != nil {
			return fmt.Errorf("index book %s: %w", book.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

// Search runs query over title, authors, and genre and returns up to limit results.
// Every query term must match (AND); title matches are boosted by opts.TitleBoost.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error) {
	titleBoost := defaultTitleBoost
	fuzziness := 0
	if opts != nil {
		if opts.TitleBoost > 0 {
			titleBoost = opts.TitleBoost
		}
		if opts.FuzzyEnabled {
			fuzziness = 1
			if opts.Fuzziness > 0 {
				fuzziness = opts.Fuzziness
			}
		}
	}
	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequest(b.buildQuery(query, titleBoost, fuzziness))
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*KeywordResult, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &KeywordResult{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// buildQuery returns a disjunction of a boosted title match and a match over all fields.
func (b *BleveIndex) buildQuery(query string, titleBoost float64, fuzziness int) blevequery.Query {
	title := bleve.NewMatchQuery(query)
	title.SetField("title")
	title.SetOperator(blevequery.MatchQueryOperatorAnd)
	title.SetBoost(titleBoost)

	fields := make([]blevequery.Query, 0, 2)
	for _, field := range []string{"authors", "genre"} {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(field)
		mq.SetOperator(blevequery.MatchQueryOperatorAnd)
		if fuzziness > 0 {
			mq.SetFuzziness(fuzziness)
		}
		fields = append(fields, mq)
	}
	if fuzziness > 0 {
		title.SetFuzziness(fuzziness)
	}

	all := bleve.NewMatchQuery(query)
	all.SetOperator(blevequery.MatchQueryOperatorAnd)
	if fuzziness > 0 {
		all.SetFuzziness(fuzziness)
	}
	return bleve.NewDisjunctionQuery(append([]blevequery.Query{title, all}, fields...)...)
}

// MatchIDs returns every matching book ID. An exact search that finds nothing is
// retried once with fuzzy matching.
func (b *BleveIndex) MatchIDs(ctx context.Context, query string) (map[string]struct{}, error) {
	count, err := b.DocCount()
	if err != nil {
		return nil, err
	}
	limit := int(count)
	if limit == 0 {
		return map[string]struct{}{}, nil
	}
	hits, err := b.Search(ctx, query, limit, nil)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		hits, err = b.Search(ctx, query, limit, &SearchOptions{FuzzyEnabled: true})
		if err != nil {
			return nil, err
		}
	}
	ids := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		ids[h.ID] = struct{}{}
	}
	return ids, nil
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of books in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Suggest returns query with unknown title or author terms replaced by their closest
// indexed term, or "" when nothing would change.
func (b *BleveIndex) Suggest(query string) string {
	return b.speller.GetSuggestedQuery(query)
}

// GetAllTerms returns every term of the title and authors fields.
func (b *BleveIndex) GetAllTerms() ([]string, error) {
	terms, err := b.dictionary()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(terms))
	for t := range terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// GetTermFrequency returns the number of books whose title or authors contain term.
func (b *BleveIndex) GetTermFrequency(term string) (int, error) {
	terms, err := b.dictionary()
	if err != nil {
		return 0, err
	}
	return terms[term], nil
}

// dictionary reads the title and authors field dictionaries once. Books are indexed
// in one batch before the index is used for queries.
func (b *BleveIndex) dictionary() (map[string]int, error) {
	b.termsOnce.Do(func() {
		b.terms = make(map[string]int)
		for _, field := range []string{"title", "authors"} {
			dict, err := b.index.FieldDict(field)
			if err != nil {
				b.termsErr = fmt.Errorf("read %s terms: %w", field, err)
				return
			}
			for {
				entry, err := dict.Next()
				if err != nil || entry == nil {
					break
				}
				b.terms[entry.Term] += int(entry.Count)
			}
			_ = dict.Close()
		}
	})
	return b.terms, b.termsErr
}

func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}
