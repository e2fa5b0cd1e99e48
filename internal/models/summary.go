package models

// Metrics are the headline numbers of a view. Means are nil when no value is present.
type Metrics struct {
	Count       int      `json:"count"`
	AvgScore    *float64 `json:"avg_score,omitempty"`
	AvgPrice    *float64 `json:"avg_price,omitempty"`
	AvgRating   *float64 `json:"avg_rating,omitempty"`
	TotalPrice  float64  `json:"total_price"`
	PricedBooks int      `json:"priced_books"`
	ScoredBooks int      `json:"scored_books"`
	RatedBooks  int      `json:"rated_books"`
}

// CategoryCount is one row of a value count.
type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// GroupStat is one row of a group-by over price: number of priced books and their total.
type GroupStat struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
}

// HistogramBin covers [Lo, Hi); the last bin of a histogram also includes Hi.
type HistogramBin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// ScatterPoint is one book plotted as publication year against score.
type ScatterPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Group string  `json:"group"`
}

// Page describes one page of a paginated table.
type Page struct {
	Number     int `json:"page"`
	Size       int `json:"page_size"`
	TotalRows  int `json:"total_rows"`
	TotalPages int `json:"total_pages"`
	Start      int `json:"-"`
	End        int `json:"-"`
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Range is the observed [Min, Max] of a numeric column; Valid is false when the column is empty.
type Range struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Valid bool    `json:"valid"`
}

// Options lists the choices offered by the filter widgets of a dataset.
type Options struct {
	Genres        []string        `json:"genres"`
	Nationalities []string        `json:"nationalities"`
	AgeGroups     []string        `json:"age_groups"`
	Languages     []string        `json:"languages"`
	Ranges        map[Field]Range `json:"ranges"`
}
