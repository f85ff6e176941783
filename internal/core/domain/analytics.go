package domain

// TotalKey is the synthesized quarter and category key of pivot totals.
const TotalKey = "Total"

// Segment is one category's slice of a stacked bar: [Lower, Upper).
type Segment struct {
	Category string  `json:"category"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// StackedQuarter is the stacked bar of a single quarter.
type StackedQuarter struct {
	Quarter  string    `json:"quarter"`
	Segments []Segment `json:"segments"`
}

// BarChart is the stacked bar chart view: ACV per quarter split by category.
type BarChart struct {
	Quarters   []string                      `json:"quarters"`
	Categories []string                      `json:"categories"`
	Grouped    map[string]map[string]float64 `json:"groupedData"`
	Stacked    []StackedQuarter              `json:"stackedData"`
	Max        float64                       `json:"max"`
}

// Slice is one category of the donut chart.
type Slice struct {
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Percent      float64 `json:"percent"`
	LabelVisible bool    `json:"labelVisible"`
}

// DonutChart is the ACV share per category.
type DonutChart struct {
	Slices   []Slice `json:"pieData"`
	TotalACV float64 `json:"totalACV"`
}

// Cell is one quarter x category aggregate of the pivot table.
type Cell struct {
	Count          int64   `json:"count"`
	ACV            float64 `json:"acv"`
	PercentOfTotal float64 `json:"percentOfTotal"`
}

// PivotTable is the quarter x category summary with synthesized totals.
// Quarters and Categories both end with TotalKey.
type PivotTable struct {
	Quarters   []string                   `json:"quarters"`
	Categories []string                   `json:"categories"`
	Data       map[string]map[string]Cell `json:"data"`
}

// Summary bundles every dashboard view of one dataset.
type Summary struct {
	Dataset     string     `json:"dataset"`
	RecordCount int        `json:"recordCount"`
	TotalCount  int64      `json:"totalCount"`
	TotalACV    float64    `json:"totalACV"`
	BarChart    BarChart   `json:"barChart"`
	Donut       DonutChart `json:"donut"`
	Table       PivotTable `json:"table"`
}

// CategoryTotal is the aggregate of one category across all quarters.
type CategoryTotal struct {
	Category string  `json:"category"`
	Count    int64   `json:"count"`
	ACV      float64 `json:"acv"`
}

// Ranking lists categories by ACV, largest first.
type Ranking struct {
	Items     []CategoryTotal `json:"items"`
	Remaining int             `json:"remaining"`
}
