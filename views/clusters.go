package views

import (
	"strconv"

	"princals-dashboard/analytics"
	"princals-dashboard/db"
	"princals-dashboard/models"
)

// AllClusters is the option value of the "every cluster" entry.
const AllClusters = "all"

// Option is one entry of a select box.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ClusterDetail is the drill-down page. Exactly one of All and Cluster is set.
type ClusterDetail struct {
	Sidebar  Sidebar      `json:"sidebar"`
	Options  []Option     `json:"options"`
	Selected string       `json:"selected"`
	All      *Table       `json:"all,omitempty"`
	Cluster  *ClusterView `json:"cluster,omitempty"`
}

// ClusterView describes one cluster within the filtered set.
type ClusterView struct {
	Cluster        int                   `json:"cluster"`
	Interpretation models.Interpretation `json:"interpretation"`
	Summary        analytics.Summary     `json:"summary"`
	Metrics        []Metric              `json:"metrics"`
	Detail         []models.DetailField  `json:"detail,omitempty"`
	Members        Table                 `json:"members"`
}

// BuildClusterDetail builds the drill-down page. A nil cluster lists every
// filtered student ordered by cluster.
func BuildClusterDetail(ds *db.Dataset, sel analytics.Selection, cluster *int) ClusterDetail {
	rows, sidebar := filtered(ds, sel)

	d := ClusterDetail{
		Sidebar:  sidebar,
		Options:  []Option{{Value: AllClusters, Label: "📊 Semua"}},
		Selected: AllClusters,
	}
	for _, id := range ds.ClusterIDs() {
		d.Options = append(d.Options, Option{Value: strconv.Itoa(id), Label: ClusterLabel(id)})
	}

	if cluster == nil {
		all := StudentTable(analytics.SortByCluster(rows), ClusterListColumns)
		d.All = &all
		return d
	}

	id := *cluster
	members := analytics.OfCluster(rows, id)
	summary := analytics.Summarize(members)
	view := &ClusterView{
		Cluster:        id,
		Interpretation: analytics.Interpret(id),
		Summary:        summary,
		Metrics:        headline(summary, "Jumlah"),
		Members:        StudentTable(members, MemberColumns),
	}
	view.Metrics[1].Label = "IPK"
	view.Metrics[2].Label = "Presensi"
	view.Metrics[3].Label = "Kuisioner"
	if detail, ok := ds.Detail(id); ok {
		view.Detail = detail
	}

	d.Selected = strconv.Itoa(id)
	d.Cluster = view
	return d
}
