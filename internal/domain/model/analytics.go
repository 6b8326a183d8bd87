package model

// AnalyticsData is the aggregate analytics response driving every view.
type AnalyticsData struct {
	Summary               Summary         `json:"summary"`
	TrainingVsCompetition ModeAverages    `json:"training_vs_competition"`
	TimeSeries            TimeSeries      `json:"time_series"`
	Comparison            Comparison      `json:"comparison"`
	Team                  TeamRollup      `json:"team"`
	Distribution          Distribution    `json:"distribution"`
	SeriesAnalysis        SeriesAnalysis  `json:"series_analysis"`
	Consistency           Consistency     `json:"consistency"`
	Sparklines            []SparklineData `json:"sparklines"`
}

// Summary holds the headline metrics.
type Summary struct {
	Attempts     int     `json:"attempts"`
	Shots        int     `json:"shots"`
	AvgScore     float64 `json:"avg_score"`
	AvgShotScore float64 `json:"avg_shot_score"`
	MinScore     float64 `json:"min_score"`
	MaxScore     float64 `json:"max_score"`
	StdDev       float64 `json:"stddev"`
}

// ModeAverages compares training and competition averages.
type ModeAverages struct {
	TrainingAvg    float64 `json:"training_avg"`
	CompetitionAvg float64 `json:"competition_avg"`
	StandardAvg    float64 `json:"standard_avg"`
	Delta          float64 `json:"delta"`
}

// Point is an [x, y] pair; x is a unix millisecond timestamp for time series.
type Point [2]float64

// NamedSeries is one athlete's line.
type NamedSeries struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Data []Point `json:"data"`
}

// Marker labels a notable point.
type Marker struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

// TimeSeries holds per-athlete and overall score history.
type TimeSeries struct {
	Series     []NamedSeries `json:"series"`
	Overall    []Point       `json:"overall"`
	BestPoint  *Marker       `json:"best_point"`
	WorstPoint *Marker       `json:"worst_point"`
}

// ValueSeries is a named list of values aligned to categories.
type ValueSeries struct {
	Name  string    `json:"name"`
	Type  string    `json:"type,omitempty"`
	YAxis int       `json:"yAxis,omitempty"`
	Data  []float64 `json:"data"`
}

// ComparisonRow is one athlete in the comparison table.
type ComparisonRow struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Team           string  `json:"team"`
	TrainingAvg    float64 `json:"training_avg"`
	CompetitionAvg float64 `json:"competition_avg"`
	StandardAvg    float64 `json:"standard_avg"`
	OverallAvg     float64 `json:"overall_avg"`
	Delta          float64 `json:"delta"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	StdDev         float64 `json:"stddev"`
	Attempts       int     `json:"attempts"`
}

// Trend is the slope direction of an athlete's history.
type Trend struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Slope     float64 `json:"slope"`
	Direction string  `json:"direction"`
}

// Comparison is the cross-athlete view.
type Comparison struct {
	Categories []string        `json:"categories"`
	Series     []ValueSeries   `json:"series"`
	Table      []ComparisonRow `json:"table"`
	Trends     []Trend         `json:"trends"`
}

// Drilldown lists athlete averages inside a team.
type Drilldown struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Data [][]any `json:"data"`
}

// TeamRollup is the per-team averages view.
type TeamRollup struct {
	Categories []string      `json:"categories"`
	Series     []ValueSeries `json:"series"`
	Drilldown  []Drilldown   `json:"drilldown"`
}

// ScatterPoint is one shot placed by score and distance from centre.
type ScatterPoint struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Athlete   string  `json:"athlete"`
	Mode      string  `json:"mode"`
	CreatedAt *string `json:"created_at"`
}

// Heatmap counts shots by index and score.
type Heatmap struct {
	XCategories []string `json:"xCategories"`
	YCategories []string `json:"yCategories"`
	Data        [][3]int `json:"data"`
}

// Distribution groups the shot distribution views.
type Distribution struct {
	Scatter []ScatterPoint `json:"scatter"`
	Heatmap Heatmap        `json:"heatmap"`
}

// SeriesAnalysis is the min/avg/max per competition series.
type SeriesAnalysis struct {
	Categories []string  `json:"categories"`
	Avg        []float64 `json:"avg"`
	Min        []float64 `json:"min"`
	Max        []float64 `json:"max"`
}

// ConsistencyScore is a 0..100 index with its inputs.
type ConsistencyScore struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name,omitempty"`
	Index  float64 `json:"index"`
	StdDev float64 `json:"stddev"`
	Avg    float64 `json:"avg"`
}

// Consistency is the gauge view.
type Consistency struct {
	Overall ConsistencyScore   `json:"overall"`
	Items   []ConsistencyScore `json:"items"`
}

// SparklineData is one recent session's score trail.
type SparklineData struct {
	SessionID int       `json:"session_id"`
	Name      string    `json:"name"`
	Mode      string    `json:"mode"`
	UpdatedAt *string   `json:"updated_at"`
	Data      []float64 `json:"data"`
}
