package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"princals-dashboard/analytics"
	"princals-dashboard/charts"
	"princals-dashboard/db"
	"princals-dashboard/views"
)

// APIHandler holds the dependencies for API handlers: the loaded dataset and,
// when caching is on, the Redis service.
type APIHandler struct {
	Dataset      *db.Dataset
	RedisService *db.RedisService
	Logger       *zap.Logger
}

// NewAPIHandler creates a new APIHandler. service may be nil.
func NewAPIHandler(ds *db.Dataset, service *db.RedisService, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		Dataset:      ds,
		RedisService: service,
		Logger:       logger,
	}
}

// selection reads the cluster, cohort and gender filters. An absent parameter
// selects every observed value; a present but empty one selects nothing.
func (h *APIHandler) selection(c *gin.Context) (analytics.Selection, error) {
	sel := h.Dataset.Observed()

	if raw, ok := queryList(c, "cluster"); ok {
		sel.Clusters = make([]int, 0, len(raw))
		for _, v := range raw {
			id, err := strconv.Atoi(v)
			if err != nil {
				return analytics.Selection{}, fmt.Errorf("invalid cluster %q", v)
			}
			sel.Clusters = append(sel.Clusters, id)
		}
	}
	if raw, ok := queryList(c, "cohort"); ok {
		sel.Cohorts = make([]string, len(raw))
		for i, v := range raw {
			sel.Cohorts[i] = db.NormalizeLabel(v)
		}
	}
	if raw, ok := queryList(c, "gender"); ok {
		sel.Genders = raw
	}
	return sel, nil
}

// queryList accepts both ?k=a&k=b and ?k=a,b.
func queryList(c *gin.Context, key string) ([]string, bool) {
	values, ok := c.GetQueryArray(key)
	if !ok {
		return nil, false
	}
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out, true
}

// clusterParam parses a cluster id; "all" and "" mean every cluster.
func clusterParam(raw string) (*int, error) {
	if raw == "" || raw == views.AllClusters {
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid cluster id %q", raw)
	}
	return &id, nil
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// --- Page Handlers ---

// GetFilters handles GET /api/filters
func (h *APIHandler) GetFilters(c *gin.Context) {
	pages := make([]gin.H, len(views.Pages))
	for i, p := range views.Pages {
		pages[i] = gin.H{"value": p, "title": p.Title()}
	}
	c.JSON(http.StatusOK, gin.H{
		"options":  h.Dataset.Observed(),
		"defaults": h.Dataset.Observed(),
		"total":    h.Dataset.Len(),
		"pages":    pages,
		"sortKeys": analytics.SortKeys,
		"charts":   charts.Names,
	})
}

// GetDashboard handles GET /api/dashboard
func (h *APIHandler) GetDashboard(c *gin.Context) {
	sel, err := h.selection(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, views.BuildDashboard(h.Dataset, sel))
}

// GetVisualization handles GET /api/visualization
func (h *APIHandler) GetVisualization(c *gin.Context) {
	sel, err := h.selection(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, views.BuildVisualization(h.Dataset, sel))
}

// GetClusters handles GET /api/clusters
func (h *APIHandler) GetClusters(c *gin.Context) {
	sel, err := h.selection(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, views.BuildClusterDetail(h.Dataset, sel, nil))
}

// GetClusterByID handles GET /api/clusters/:clusterId
func (h *APIHandler) GetClusterByID(c *gin.Context) {
	sel, err := h.selection(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	cluster, err := clusterParam(c.Param("clusterId"))
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, views.BuildClusterDetail(h.Dataset, sel, cluster))
}

// GetExplorer handles GET /api/explorer
func (h *APIHandler) GetExplorer(c *gin.Context) {
	ex, ok := h.explorer(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ex)
}

// ExportExplorer handles GET /api/explorer/export
func (h *APIHandler) ExportExplorer(c *gin.Context) {
	ex, ok := h.explorer(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := views.WriteCSV(&buf, ex.Rows); err != nil {
		h.Logger.Error("Error in ExportExplorer handler", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export data"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", views.ExportFilename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *APIHandler) explorer(c *gin.Context) (views.Explorer, bool) {
	sel, err := h.selection(c)
	if err != nil {
		badRequest(c, err)
		return views.Explorer{}, false
	}
	ex, err := views.BuildExplorer(h.Dataset, sel, c.Query("q"), c.Query("sort"))
	if err != nil {
		if errors.Is(err, analytics.ErrUnknownSortKey) {
			badRequest(c, err)
		} else {
			h.Logger.Error("Error in explorer handler", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build explorer"})
		}
		return views.Explorer{}, false
	}
	return ex, true
}

// --- Chart Handler ---

// GetChart handles GET /api/charts/:name
func (h *APIHandler) GetChart(c *gin.Context) {
	sel, err := h.selection(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	name := c.Param("name")
	img, err := charts.Render(name, h.Dataset, sel)
	switch {
	case errors.Is(err, charts.ErrUnknownChart):
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("chart %q not found", name)})
	case errors.Is(err, charts.ErrNoData):
		c.Status(http.StatusNoContent)
	case err != nil:
		h.Logger.Error("Error in GetChart handler", zap.String("chart", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render chart"})
	default:
		c.Data(http.StatusOK, "image/png", img)
	}
}

// --- Ping Handler ---

// Ping handles GET /api/ping and reports the cache state.
func (h *APIHandler) Ping(c *gin.Context) {
	resp := gin.H{"message": "Pong!", "students": h.Dataset.Len(), "redis": "disabled"}
	if h.RedisService == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	ctx := c.Request.Context()
	if err := h.RedisService.Ping(ctx); err != nil {
		h.Logger.Warn("Redis ping failed", zap.Error(err))
		resp["redis"] = "unreachable"
		c.JSON(http.StatusOK, resp)
		return
	}
	resp["redis"] = "ok"
	if sheets, err := h.RedisService.CachedSheets(ctx); err == nil {
		resp["cachedSheets"] = len(sheets)
	}
	c.JSON(http.StatusOK, resp)
}
