// Package views turns the loaded dataset and the current filter/navigation
// state into render-ready view models for the four dashboard pages.
package views

import (
	"errors"
	"fmt"
	"strconv"

	"princals-dashboard/analytics"
	"princals-dashboard/db"
	"princals-dashboard/models"
)

// ErrUnknownPage is returned by Render for a page it does not know.
var ErrUnknownPage = errors.New("unknown page")

// Page is a navigation target.
type Page string

const (
	PageDashboard     Page = "dashboard"
	PageVisualization Page = "visualization"
	PageClusters      Page = "clusters"
	PageExplorer      Page = "explorer"
)

// Pages lists the navigation entries in menu order.
var Pages = []Page{PageDashboard, PageVisualization, PageClusters, PageExplorer}

// Title returns the menu label of p.
func (p Page) Title() string {
	switch p {
	case PageDashboard:
		return "📊 Dashboard"
	case PageVisualization:
		return "📈 Visualisasi"
	case PageClusters:
		return "👥 Detail Cluster"
	case PageExplorer:
		return "🔍 Data Explorer"
	}
	return string(p)
}

// Request is the full interaction state: filters plus navigation plus the
// controls of the selected page.
type Request struct {
	Page      Page
	Selection analytics.Selection
	Cluster   *int   // clusters page; nil shows every cluster
	Search    string // explorer
	SortBy    string // explorer; empty means IPK
}

// Render builds the view model of req.Page.
func Render(ds *db.Dataset, req Request) (any, error) {
	switch req.Page {
	case PageDashboard, "":
		return BuildDashboard(ds, req.Selection), nil
	case PageVisualization:
		return BuildVisualization(ds, req.Selection), nil
	case PageClusters:
		return BuildClusterDetail(ds, req.Selection, req.Cluster), nil
	case PageExplorer:
		return BuildExplorer(ds, req.Selection, req.Search, req.SortBy)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPage, req.Page)
}

// Sidebar is the filter panel state shown on every page.
type Sidebar struct {
	Options  analytics.Selection `json:"options"`
	Selected analytics.Selection `json:"selected"`
	Shown    int                 `json:"shown"`
	Total    int                 `json:"total"`
}

// Info is the "n of N students" line.
func (s Sidebar) Info() string {
	return fmt.Sprintf("Data: %d dari %d mahasiswa", s.Shown, s.Total)
}

// filtered applies sel and returns the rows with the sidebar describing them.
func filtered(ds *db.Dataset, sel analytics.Selection) ([]models.Student, Sidebar) {
	rows := analytics.Filter(ds.Students(), sel)
	return rows, Sidebar{
		Options:  ds.Observed(),
		Selected: sel,
		Shown:    len(rows),
		Total:    ds.Len(),
	}
}

// Metric is one headline number.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func headline(s analytics.Summary, countLabel string) []Metric {
	return []Metric{
		{Label: countLabel, Value: strconv.Itoa(s.Count)},
		{Label: "Rata-rata IPK", Value: s.GPAText()},
		{Label: "Rata-rata Presensi", Value: s.AttendanceText()},
		{Label: "Rata-rata Kuisioner", Value: s.QuestionnaireText()},
	}
}

// Palette holds the cluster colours, applied by position in the cluster list.
var Palette = []string{"#10b981", "#f59e0b", "#ef4444"}

// ColorAt returns the palette colour for position i.
func ColorAt(i int) string {
	return Palette[i%len(Palette)]
}

// ClusterLabel is the display name of a cluster id.
func ClusterLabel(id int) string {
	return fmt.Sprintf("Cluster %d", id)
}
