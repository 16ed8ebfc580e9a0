package handlers

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"princals-dashboard/analytics"
	"princals-dashboard/views"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"cellColor": func(t views.Table, row, col int) string {
			if row < len(t.Colors) && col < len(t.Colors[row]) {
				return t.Colors[row][col]
			}
			return ""
		},
	}).ParseFS(templateFS, "templates/*.html"))
}

type navEntry struct {
	Title  string
	Href   string
	Active bool
}

type section struct {
	Heading string
	Table   views.Table
}

type pageData struct {
	Title     string
	Nav       []navEntry
	Sidebar   views.Sidebar
	Metrics   []views.Metric
	Sections  []section
	Blocks    []views.ClusterBlock
	Cluster   *views.ClusterView
	Options   []views.Option
	Selected  string
	Charts    []string
	ExportURL string
	Filters   url.Values
	Search    string
	SortBy    string
	SortKeys  []string
}

// GetPage handles GET / and renders the page named by ?page=.
func (h *APIHandler) GetPage(c *gin.Context) {
	sel, err := h.selection(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	cluster, err := clusterParam(c.Query("detail"))
	if err != nil {
		badRequest(c, err)
		return
	}

	req := views.Request{
		Page:      views.Page(c.Query("page")),
		Selection: sel,
		Cluster:   cluster,
		Search:    c.Query("q"),
		SortBy:    c.Query("sort"),
	}
	view, err := views.Render(h.Dataset, req)
	switch {
	case errors.Is(err, views.ErrUnknownPage):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, analytics.ErrUnknownSortKey):
		badRequest(c, err)
		return
	case err != nil:
		h.Logger.Error("Error in GetPage handler", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render page"})
		return
	}

	filters := filterQuery(sel)
	data := pageData{Nav: navigation(req.Page, filters), Filters: filters}

	switch v := view.(type) {
	case views.Dashboard:
		data.Title = views.PageDashboard.Title()
		data.Sidebar = v.Sidebar
		data.Metrics = v.Metrics
		data.Sections = []section{{Heading: "Statistik per Cluster", Table: v.Aggregates}}
		data.Blocks = v.Interpretations
		data.Charts = chartURLs(filters, "pie", "box")
	case views.Visualization:
		data.Title = views.PageVisualization.Title()
		data.Sidebar = v.Sidebar
		data.Charts = chartURLs(filters, "scatter", "radar", "comparison", "distribution")
	case views.ClusterDetail:
		data.Title = views.PageClusters.Title()
		data.Sidebar = v.Sidebar
		data.Options = v.Options
		data.Selected = v.Selected
		if v.All != nil {
			data.Sections = []section{{Heading: "Semua Mahasiswa", Table: *v.All}}
		}
		if v.Cluster != nil {
			data.Cluster = v.Cluster
			data.Metrics = v.Cluster.Metrics
			data.Sections = []section{{Heading: "Anggota " + views.ClusterLabel(v.Cluster.Cluster), Table: v.Cluster.Members}}
		}
	case views.Explorer:
		data.Title = views.PageExplorer.Title()
		data.Sidebar = v.Sidebar
		data.Search = v.Search
		data.SortBy = v.SortBy
		data.SortKeys = v.SortKeys
		data.Sections = []section{{Heading: "Data Mahasiswa (" + strconv.Itoa(v.Count) + ")", Table: v.Table}}
		q := url.Values{}
		for k, vs := range filters {
			q[k] = vs
		}
		q.Set("q", v.Search)
		q.Set("sort", v.SortBy)
		data.ExportURL = "/api/explorer/export?" + q.Encode()
	}

	c.HTML(http.StatusOK, "index.html", data)
}

// filterQuery encodes sel so that links reproduce it exactly, including
// empty selections.
func filterQuery(sel analytics.Selection) url.Values {
	q := url.Values{}
	clusters := make([]string, len(sel.Clusters))
	for i, id := range sel.Clusters {
		clusters[i] = strconv.Itoa(id)
	}
	q["cluster"] = orEmpty(clusters)
	q["cohort"] = orEmpty(sel.Cohorts)
	q["gender"] = orEmpty(sel.Genders)
	return q
}

func orEmpty(values []string) []string {
	if len(values) == 0 {
		return []string{""}
	}
	return values
}

func navigation(current views.Page, filters url.Values) []navEntry {
	if current == "" {
		current = views.PageDashboard
	}
	nav := make([]navEntry, len(views.Pages))
	for i, p := range views.Pages {
		q := url.Values{"page": {string(p)}}
		for k, vs := range filters {
			q[k] = vs
		}
		nav[i] = navEntry{Title: p.Title(), Href: "/?" + q.Encode(), Active: p == current}
	}
	return nav
}

func chartURLs(filters url.Values, names ...string) []string {
	encoded := filters.Encode()
	urls := make([]string, len(names))
	for i, n := range names {
		urls[i] = "/api/charts/" + n + "?" + encoded
	}
	return urls
}
