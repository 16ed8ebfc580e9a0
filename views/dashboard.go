package views

import (
	"princals-dashboard/analytics"
	"princals-dashboard/db"
	"princals-dashboard/models"
)

// Dashboard is the summary page.
type Dashboard struct {
	Sidebar         Sidebar           `json:"sidebar"`
	Summary         analytics.Summary `json:"summary"`
	Metrics         []Metric          `json:"metrics"`
	Aggregates      Table             `json:"aggregates"`
	Interpretations []ClusterBlock    `json:"interpretations"`
	Pie             []Slice           `json:"pie"`
	Box             []BoxGroup        `json:"box"`
}

// ClusterBlock is the expandable interpretation of one cluster, with its size
// inside the filtered set.
type ClusterBlock struct {
	Cluster        int                   `json:"cluster"`
	Heading        string                `json:"heading"`
	Interpretation models.Interpretation `json:"interpretation"`
	Count          int                   `json:"count"`
	Percent        float64               `json:"percent"`
	PercentText    string                `json:"percentText"`
}

// Slice is one pie wedge.
type Slice struct {
	Cluster int     `json:"cluster"`
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	Color   string  `json:"color"`
}

// BoxGroup is the GPA distribution of one cluster.
type BoxGroup struct {
	Cluster int                  `json:"cluster"`
	Label   string               `json:"label"`
	Stats   analytics.FiveNumber `json:"stats"`
	Color   string               `json:"color"`
	Values  []float64            `json:"-"`
}

// BuildDashboard builds the summary page for sel.
func BuildDashboard(ds *db.Dataset, sel analytics.Selection) Dashboard {
	rows, sidebar := filtered(ds, sel)
	summary := analytics.Summarize(rows)

	d := Dashboard{
		Sidebar:    sidebar,
		Summary:    summary,
		Metrics:    headline(summary, "Total Mahasiswa"),
		Aggregates: AggregateTable(ds.Aggregates(), ds.HasMembers()),
	}

	for _, id := range ds.ClusterIDs() {
		interp := analytics.Interpret(id)
		n := len(analytics.OfCluster(rows, id))
		pct := analytics.SharePercent(n, len(rows))
		d.Interpretations = append(d.Interpretations, ClusterBlock{
			Cluster:        id,
			Heading:        interp.Emoji + " " + ClusterLabel(id) + ": " + interp.Title,
			Interpretation: interp,
			Count:          n,
			Percent:        pct,
			PercentText:    analytics.Percent(pct / 100),
		})
	}

	d.Pie = pieSlices(rows)
	d.Box = boxGroups(rows)
	return d
}

func pieSlices(rows []models.Student) []Slice {
	shares := analytics.Distribution(rows)
	slices := make([]Slice, len(shares))
	for i, s := range shares {
		slices[i] = Slice{
			Cluster: s.Cluster,
			Label:   ClusterLabel(s.Cluster),
			Count:   s.Count,
			Percent: s.Percent,
			Color:   ColorAt(i),
		}
	}
	return slices
}

func boxGroups(rows []models.Student) []BoxGroup {
	var groups []BoxGroup
	for i, share := range analytics.Distribution(rows) {
		members := analytics.OfCluster(rows, share.Cluster)
		gpas := make([]models.Score, len(members))
		values := make([]float64, 0, len(members))
		for j, m := range members {
			gpas[j] = m.GPA
			if m.GPA.Valid() {
				values = append(values, float64(m.GPA))
			}
		}
		stats, ok := analytics.Stats(gpas)
		if !ok {
			continue
		}
		groups = append(groups, BoxGroup{
			Cluster: share.Cluster,
			Label:   ClusterLabel(share.Cluster),
			Stats:   stats,
			Color:   ColorAt(i),
			Values:  values,
		})
	}
	return groups
}
