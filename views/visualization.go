package views

import (
	"princals-dashboard/analytics"
	"princals-dashboard/db"
	"princals-dashboard/models"
)

// Visualization is the advanced charts page.
type Visualization struct {
	Sidebar      Sidebar          `json:"sidebar"`
	Scatter      []ScatterPoint   `json:"scatter"`
	Radar        Radar            `json:"radar"`
	Comparison   []Panel          `json:"comparison"`
	Distribution DistributionGrid `json:"distribution"`
}

// ScatterPoint is one student in the projection plot: PCA_1 and PCA_2 on the
// floor, IPK as height, coloured by cluster, shaped by gender, sized by attendance.
type ScatterPoint struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Cluster    int     `json:"cluster"`
	Gender     string  `json:"gender"`
	Attendance float64 `json:"attendance"`
}

// Radar is the per-cluster profile over the five mean metrics.
type Radar struct {
	Axes      []string      `json:"axes"`
	RadialMax float64       `json:"radialMax"`
	Series    []RadarSeries `json:"series"`
}

// RadarSeries is one cluster's closed polygon.
type RadarSeries struct {
	Cluster int       `json:"cluster"`
	Name    string    `json:"name"`
	Values  []float64 `json:"values"`
	Color   string    `json:"color"`
}

// Panel is one bar chart of a grid.
type Panel struct {
	Title string `json:"title"`
	Bars  []Bar  `json:"bars"`
}

// Bar is one labelled bar.
type Bar struct {
	Cluster int     `json:"cluster"`
	Value   float64 `json:"value"`
	Text    string  `json:"text"`
	Color   string  `json:"color"`
}

// DistributionGrid is five histograms split by cluster plus the cluster counts.
type DistributionGrid struct {
	Histograms []Histogram `json:"histograms"`
	Counts     Panel       `json:"counts"`
}

// Histogram holds one variable's values per cluster.
type Histogram struct {
	Variable string      `json:"variable"`
	Title    string      `json:"title"`
	Series   []HistGroup `json:"series"`
}

// HistGroup is the sample of one cluster.
type HistGroup struct {
	Cluster int       `json:"cluster"`
	Values  []float64 `json:"values"`
	Color   string    `json:"color"`
}

type metric struct {
	column string
	label  string
	agg    func(models.ClusterAggregate) models.Score
	pick   func(models.Student) models.Score
}

var profileMetrics = []metric{
	{"IPK", "IPK", func(a models.ClusterAggregate) models.Score { return a.GPA }, func(s models.Student) models.Score { return s.GPA }},
	{"PRESENSI", "Presensi", func(a models.ClusterAggregate) models.Score { return a.Attendance }, func(s models.Student) models.Score { return s.Attendance }},
	{"RATA_TEORI", "Teori", func(a models.ClusterAggregate) models.Score { return a.Theory }, func(s models.Student) models.Score { return s.Theory }},
	{"RATA_PRAKTEK", "Praktik", func(a models.ClusterAggregate) models.Score { return a.Practice }, func(s models.Student) models.Score { return s.Practice }},
	{"NA_NUMERIK", "Nilai", func(a models.ClusterAggregate) models.Score { return a.Grade }, func(s models.Student) models.Score { return s.Grade }},
}

var histogramTitles = []string{"IPK", "Presensi", "Kuisioner Teori", "Kuisioner Praktik", "Nilai"}

// BuildVisualization builds the charts page. The scatter and histograms use
// the filtered rows; radar and comparison use the aggregate table.
func BuildVisualization(ds *db.Dataset, sel analytics.Selection) Visualization {
	rows, sidebar := filtered(ds, sel)
	aggs := ds.Aggregates()

	return Visualization{
		Sidebar:      sidebar,
		Scatter:      scatterPoints(rows),
		Radar:        radar(aggs),
		Comparison:   comparison(aggs, ds.HasMembers()),
		Distribution: distribution(rows),
	}
}

func scatterPoints(rows []models.Student) []ScatterPoint {
	points := make([]ScatterPoint, 0, len(rows))
	for _, r := range rows {
		if !r.ProjectionOne.Valid() || !r.ProjectionTwo.Valid() || !r.GPA.Valid() {
			continue
		}
		var att float64
		if r.Attendance.Valid() {
			att = float64(r.Attendance)
		}
		points = append(points, ScatterPoint{
			Name:       r.Name,
			X:          float64(r.ProjectionOne),
			Y:          float64(r.ProjectionTwo),
			Z:          float64(r.GPA),
			Cluster:    r.Cluster,
			Gender:     r.Gender,
			Attendance: att,
		})
	}
	return points
}

func radar(aggs []models.ClusterAggregate) Radar {
	r := Radar{RadialMax: 4}
	for _, m := range profileMetrics {
		r.Axes = append(r.Axes, m.label)
	}
	for i, a := range aggs {
		values := make([]float64, len(profileMetrics))
		for j, m := range profileMetrics {
			if v := m.agg(a); v.Valid() {
				values[j] = float64(v)
			}
		}
		r.Series = append(r.Series, RadarSeries{
			Cluster: a.Cluster,
			Name:    ClusterLabel(a.Cluster),
			Values:  values,
			Color:   ColorAt(i),
		})
	}
	return r
}

func comparison(aggs []models.ClusterAggregate, withMembers bool) []Panel {
	panels := make([]Panel, 0, len(profileMetrics)+1)
	for _, m := range profileMetrics {
		p := Panel{Title: m.label}
		for i, a := range aggs {
			v := m.agg(a)
			if !v.Valid() {
				continue
			}
			p.Bars = append(p.Bars, Bar{
				Cluster: a.Cluster,
				Value:   float64(v),
				Text:    formatTwo(float64(v)),
				Color:   ColorAt(i),
			})
		}
		panels = append(panels, p)
	}
	if withMembers {
		p := Panel{Title: "Jumlah"}
		for i, a := range aggs {
			p.Bars = append(p.Bars, Bar{
				Cluster: a.Cluster,
				Value:   float64(a.Members),
				Text:    formatAggregate(float64(a.Members)),
				Color:   ColorAt(i),
			})
		}
		panels = append(panels, p)
	}
	return panels
}

func distribution(rows []models.Student) DistributionGrid {
	shares := analytics.Distribution(rows)
	var grid DistributionGrid

	for k, m := range profileMetrics {
		h := Histogram{Variable: m.column, Title: "Distribusi " + histogramTitles[k]}
		for i, share := range shares {
			var values []float64
			for _, r := range analytics.OfCluster(rows, share.Cluster) {
				if v := m.pick(r); v.Valid() {
					values = append(values, float64(v))
				}
			}
			h.Series = append(h.Series, HistGroup{Cluster: share.Cluster, Values: values, Color: ColorAt(i)})
		}
		grid.Histograms = append(grid.Histograms, h)
	}

	grid.Counts = Panel{Title: "Distribusi Cluster"}
	for i, share := range shares {
		grid.Counts.Bars = append(grid.Counts.Bars, Bar{
			Cluster: share.Cluster,
			Value:   float64(share.Count),
			Text:    formatAggregate(float64(share.Count)),
			Color:   ColorAt(i),
		})
	}
	return grid
}
