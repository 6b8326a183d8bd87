package analytics

import (
	"fmt"

	"github.com/okian/bullseye/internal/domain/model"
)

const (
	overallLine    = "Overall"
	overallGauge   = "Overall"
	unassignedTeam = "Unassigned"
	notAvailable   = "N/A"
)

type renderer struct {
	name string
	fn   func(data *model.AnalyticsData, out *Views) error
}

// renderers run in this order against every applied response.
var renderers = []renderer{ //nolint:gochecknoglobals // fixed table
	{"summary", renderSummary},
	{"performance", renderPerformance},
	{"comparison", renderComparison},
	{"team", renderTeam},
	{"scatter", renderScatter},
	{"heatmap", renderHeatmap},
	{"series", renderSeries},
	{"consistency", renderConsistency},
	{"sparklines", renderSparklines},
	{"table", renderTable},
}

// Render builds every view from one response. Nothing is returned unless all
// views render, so callers never show a mix of old and new data.
func Render(data model.AnalyticsData) (Views, error) {
	var out Views
	for _, r := range renderers {
		if err := r.fn(&data, &out); err != nil {
			return Views{}, fmt.Errorf("%w: %s: %w", ErrRender, r.name, err)
		}
	}
	return out, nil
}

func renderSummary(data *model.AnalyticsData, out *Views) error {
	s, d := data.Summary, data.TrainingVsCompetition
	out.Summary = SummaryView{
		Attempts:       s.Attempts,
		Shots:          s.Shots,
		AvgScore:       fixed2(s.AvgScore),
		AvgShot:        fixed2(s.AvgShotScore),
		Range:          fmt.Sprintf("%.0f - %.0f", s.MinScore, s.MaxScore),
		StdDev:         fixed2(s.StdDev),
		Delta:          fixed2(d.Delta),
		TrainingAvg:    fixed2(d.TrainingAvg),
		CompetitionAvg: fixed2(d.CompetitionAvg),
	}
	return nil
}

// renderPerformance puts the overall line first, visible only when there are
// no athlete lines to show.
func renderPerformance(data *model.AnalyticsData, out *Views) error {
	ts := data.TimeSeries
	lines := make([]Line, 0, len(ts.Series)+1)
	if len(ts.Overall) > 0 {
		lines = append(lines, Line{
			Name:    overallLine,
			Data:    ts.Overall,
			Dashed:  true,
			Visible: len(ts.Series) == 0,
		})
	}
	for _, s := range ts.Series {
		lines = append(lines, Line{Name: s.Name, Data: s.Data, Visible: true})
	}

	var notes []model.Marker
	if ts.BestPoint != nil {
		notes = append(notes, *ts.BestPoint)
	}
	if ts.WorstPoint != nil {
		notes = append(notes, *ts.WorstPoint)
	}
	out.Performance = PerformanceView{Lines: lines, Annotations: notes}
	return nil
}

func renderComparison(data *model.AnalyticsData, out *Views) error {
	c := data.Comparison
	if err := alignedSeries(c.Categories, c.Series); err != nil {
		return err
	}
	out.Comparison = ComparisonView{Categories: c.Categories, Series: c.Series}
	return nil
}

func renderTeam(data *model.AnalyticsData, out *Views) error {
	t := data.Team
	if err := alignedSeries(t.Categories, t.Series); err != nil {
		return err
	}
	out.Team = TeamView{Categories: t.Categories, Series: t.Series, Drilldown: t.Drilldown}
	return nil
}

func renderScatter(data *model.AnalyticsData, out *Views) error {
	out.Scatter = ScatterView{
		Points: data.Distribution.Scatter,
		XMin:   ScatterMinScore,
		XMax:   ScatterMaxScore,
	}
	return nil
}

func renderHeatmap(data *model.AnalyticsData, out *Views) error {
	h := data.Distribution.Heatmap
	cells := make([]HeatCell, 0, len(h.Data))
	for _, c := range h.Data {
		x, y := c[0], c[1]
		if x < 0 || x >= len(h.XCategories) || y < 0 || y >= len(h.YCategories) {
			return fmt.Errorf("cell [%d,%d] outside %dx%d grid", x, y, len(h.XCategories), len(h.YCategories))
		}
		cells = append(cells, HeatCell{Shot: h.XCategories[x], Score: h.YCategories[y], Count: c[2]})
	}
	out.Heatmap = HeatmapView{XCategories: h.XCategories, YCategories: h.YCategories, Cells: cells}
	return nil
}

func renderSeries(data *model.AnalyticsData, out *Views) error {
	s := data.SeriesAnalysis
	if len(s.Min) != len(s.Max) || len(s.Avg) != len(s.Min) || len(s.Categories) != len(s.Min) {
		return fmt.Errorf("series lengths differ: categories %d min %d max %d avg %d",
			len(s.Categories), len(s.Min), len(s.Max), len(s.Avg))
	}
	ranges := make([][2]float64, len(s.Min))
	for i := range s.Min {
		ranges[i] = [2]float64{s.Min[i], s.Max[i]}
	}
	out.Series = SeriesView{Categories: s.Categories, Ranges: ranges, Avg: s.Avg}
	return nil
}

func renderConsistency(data *model.AnalyticsData, out *Views) error {
	c := data.Consistency
	gauges := make([]Gauge, 0, len(c.Items)+1)
	gauges = append(gauges, gauge(overallGauge, c.Overall))
	for _, item := range c.Items {
		gauges = append(gauges, gauge(item.Name, item))
	}
	out.Consistency = gauges
	return nil
}

func gauge(title string, s model.ConsistencyScore) Gauge {
	return Gauge{Title: title, Index: s.Index, Sub: "Std dev " + fixed2(s.StdDev)}
}

func renderSparklines(data *model.AnalyticsData, out *Views) error {
	rows := make([]SparklineRow, 0, len(data.Sparklines))
	for _, s := range data.Sparklines {
		updated := notAvailable
		if s.UpdatedAt != nil && *s.UpdatedAt != "" {
			updated = *s.UpdatedAt
		}
		rows = append(rows, SparklineRow{Name: s.Name, Mode: s.Mode, UpdatedAt: updated, Data: s.Data})
	}
	out.Sparklines = rows
	return nil
}

func renderTable(data *model.AnalyticsData, out *Views) error {
	trends := make(map[string]string, len(data.Comparison.Trends))
	for _, t := range data.Comparison.Trends {
		trends[t.ID] = t.Direction
	}

	rows := make([]TableRow, 0, len(data.Comparison.Table))
	for _, r := range data.Comparison.Table {
		team := r.Team
		if team == "" {
			team = unassignedTeam
		}
		rows = append(rows, TableRow{
			Name:       r.Name,
			Team:       team,
			OverallAvg: fixed2(r.OverallAvg),
			Min:        fmt.Sprintf("%.0f", r.Min),
			Max:        fmt.Sprintf("%.0f", r.Max),
			StdDev:     fixed2(r.StdDev),
			Delta:      fixed2(r.Delta),
			Trend:      direction(trends[r.ID]),
		})
	}
	out.Table = rows
	return nil
}

func direction(d string) string {
	switch d {
	case TrendUp, TrendDown:
		return d
	default:
		return TrendFlat
	}
}

func alignedSeries(categories []string, series []model.ValueSeries) error {
	for _, s := range series {
		if len(s.Data) > len(categories) {
			return fmt.Errorf("series %q has %d values for %d categories", s.Name, len(s.Data), len(categories))
		}
	}
	return nil
}

func fixed2(v float64) string { return fmt.Sprintf("%.2f", v) }
