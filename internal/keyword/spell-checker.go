package keyword

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// Suggestion is a dictionary term close to a misspelled query term.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency int
}

// SpellCheckResult is the outcome of checking a whole query.
type SpellCheckResult struct {
	OriginalQuery   string
	CorrectedQuery  string
	Suggestions     []Suggestion
	MisspelledTerms []string
	HasCorrections  bool
}

// SpellChecker suggests corrections for query terms missing from a TermDictionary.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	minTermLength  int
	maxSuggestions int
	transpositions bool

	once  sync.Once
	terms map[string]int
	err   error
}

// SpellCheckerOption configures a SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the largest edit distance a suggestion may have.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores dictionary terms found in fewer than f books.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMinTermLength leaves query terms shorter than n runes uncorrected.
func WithMinTermLength(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.minTermLength = n
		}
	}
}

// WithMaxSuggestions caps the suggestions returned per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// WithTranspositions counts a swap of adjacent letters as a single edit.
func WithTranspositions(on bool) SpellCheckerOption {
	return func(s *SpellChecker) { s.transpositions = on }
}

// NewSpellChecker creates a SpellChecker over dict. The dictionary is read once, on
// first use; book indexes never change after they are built.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		minTermLength:  3,
		maxSuggestions: 5,
		transpositions: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SpellChecker) load() (map[string]int, error) {
	s.once.Do(func() {
		all, err := s.dictionary.GetAllTerms()
		if err != nil {
			s.err = err
			return
		}
		s.terms = make(map[string]int, len(all))
		for _, term := range all {
			freq, err := s.dictionary.GetTermFrequency(term)
			if err != nil {
				s.err = err
				return
			}
			s.terms[strings.ToLower(term)] += freq
		}
	})
	return s.terms, s.err
}

// IsMisspelled reports whether term is missing from the dictionary.
func (s *SpellChecker) IsMisspelled(term string) bool {
	terms, err := s.load()
	if err != nil {
		return false
	}
	_, ok := terms[strings.ToLower(term)]
	return !ok
}

// Suggest returns dictionary terms within the maximum distance of term, closest
// first, then most frequent, then alphabetical.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	terms, err := s.load()
	if err != nil {
		return nil
	}
	want := []rune(strings.ToLower(term))
	var out []Suggestion
	for dictTerm, freq := range terms {
		if freq < s.minFreq || dictTerm == string(want) {
			continue
		}
		d := boundedDistance(want, []rune(dictTerm), s.maxDistance, s.transpositions)
		if d > s.maxDistance {
			continue
		}
		out = append(out, Suggestion{Term: dictTerm, Distance: d, Frequency: freq})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > s.maxSuggestions {
		out = out[:s.maxSuggestions]
	}
	return out
}

// Check replaces every unknown term of query with its best suggestion.
func (s *SpellChecker) Check(query string) (*SpellCheckResult, error) {
	terms, err := s.load()
	if err != nil {
		return nil, err
	}
	words := tokenizeQuery(query)
	result := &SpellCheckResult{OriginalQuery: query}
	corrected := make([]string, len(words))
	for i, w := range words {
		corrected[i] = w
		if _, ok := terms[w]; ok || utf8.RuneCountInString(w) < s.minTermLength {
			continue
		}
		suggestions := s.Suggest(w)
		if len(suggestions) == 0 {
			continue
		}
		corrected[i] = suggestions[0].Term
		result.HasCorrections = true
		result.MisspelledTerms = append(result.MisspelledTerms, w)
		result.Suggestions = append(result.Suggestions, suggestions...)
	}
	result.CorrectedQuery = strings.Join(corrected, " ")
	return result, nil
}

// GetSuggestedQuery returns the corrected query, or "" when nothing would change.
func (s *SpellChecker) GetSuggestedQuery(query string) string {
	result, err := s.Check(query)
	if err != nil || !result.HasCorrections {
		return ""
	}
	return result.CorrectedQuery
}
