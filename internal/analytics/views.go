package analytics

import (
	"github.com/okian/bullseye/internal/domain/model"
)

// Views is one complete rendering of an aggregate response. A new Views is
// built for every applied response and replaces the previous one whole.
type Views struct {
	Summary     SummaryView     `json:"summary"`
	Performance PerformanceView `json:"performance"`
	Comparison  ComparisonView  `json:"comparison"`
	Team        TeamView        `json:"team"`
	Scatter     ScatterView     `json:"scatter"`
	Heatmap     HeatmapView     `json:"heatmap"`
	Series      SeriesView      `json:"series"`
	Consistency []Gauge         `json:"consistency"`
	Sparklines  []SparklineRow  `json:"sparklines"`
	Table       []TableRow      `json:"table"`
}

// SummaryView holds the headline metric tiles, already formatted.
type SummaryView struct {
	Attempts       int    `json:"attempts"`
	Shots          int    `json:"shots"`
	AvgScore       string `json:"avg_score"`
	AvgShot        string `json:"avg_shot"`
	Range          string `json:"range"`
	StdDev         string `json:"stddev"`
	Delta          string `json:"delta"`
	TrainingAvg    string `json:"training_avg"`
	CompetitionAvg string `json:"competition_avg"`
}

// Line is one series of the performance chart.
type Line struct {
	Name    string        `json:"name"`
	Data    []model.Point `json:"data"`
	Dashed  bool          `json:"dashed,omitempty"`
	Visible bool          `json:"visible"`
}

// PerformanceView is the score-over-time chart.
type PerformanceView struct {
	Lines       []Line         `json:"lines"`
	Annotations []model.Marker `json:"annotations"`
}

// ComparisonView is the cross-athlete column chart.
type ComparisonView struct {
	Categories []string            `json:"categories"`
	Series     []model.ValueSeries `json:"series"`
}

// TeamView is the team rollup with drilldown into athletes.
type TeamView struct {
	Categories []string            `json:"categories"`
	Series     []model.ValueSeries `json:"series"`
	Drilldown  []model.Drilldown   `json:"drilldown"`
}

// Axis bounds of the scatter chart.
const (
	ScatterMinScore = 0
	ScatterMaxScore = 10
)

// ScatterView places each shot by score and distance from centre.
type ScatterView struct {
	Points []model.ScatterPoint `json:"points"`
	XMin   float64              `json:"x_min"`
	XMax   float64              `json:"x_max"`
}

// HeatCell is one labelled heatmap cell.
type HeatCell struct {
	Shot  string `json:"shot"`
	Score string `json:"score"`
	Count int    `json:"count"`
}

// HeatmapView counts shots by index and score.
type HeatmapView struct {
	XCategories []string   `json:"x_categories"`
	YCategories []string   `json:"y_categories"`
	Cells       []HeatCell `json:"cells"`
}

// SeriesView is the min/max range chart with the average overlaid.
type SeriesView struct {
	Categories []string     `json:"categories"`
	Ranges     [][2]float64 `json:"ranges"`
	Avg        []float64    `json:"avg"`
}

// Gauge is one consistency dial. The overall gauge always comes first.
type Gauge struct {
	Title string  `json:"title"`
	Index float64 `json:"index"`
	Sub   string  `json:"sub"`
}

// SparklineRow is one recent session with its score trail.
type SparklineRow struct {
	Name      string    `json:"name"`
	Mode      string    `json:"mode"`
	UpdatedAt string    `json:"updated_at"`
	Data      []float64 `json:"data"`
}

// Trend directions shown in the athlete table.
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// TableRow is one athlete in the comparison table.
type TableRow struct {
	Name       string `json:"name"`
	Team       string `json:"team"`
	OverallAvg string `json:"overall_avg"`
	Min        string `json:"min"`
	Max        string `json:"max"`
	StdDev     string `json:"stddev"`
	Delta      string `json:"delta"`
	Trend      string `json:"trend"`
}
