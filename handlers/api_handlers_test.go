package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"princals-dashboard/analytics"
	"princals-dashboard/db"
	"princals-dashboard/models"
	"princals-dashboard/views"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clusters := []int{0, 0, 1, 1, 1, 2, 2, 0, 1, 2}
	students := make([]models.Student, len(clusters))
	for i, c := range clusters {
		gender := "L"
		if i%2 == 1 {
			gender = "P"
		}
		students[i] = models.Student{
			ID:            fmt.Sprintf("S%02d", i),
			Name:          fmt.Sprintf("Mahasiswa %02d", i),
			Cohort:        fmt.Sprint(2020 + i%2),
			Gender:        gender,
			Cluster:       c,
			GPA:           models.Score(2.5 + float64(i)/10),
			Attendance:    models.Score(0.8),
			Theory:        3,
			Practice:      3.5,
			Grade:         models.Score(60 + i),
			ProjectionOne: models.Score(float64(i)),
			ProjectionTwo: models.Score(float64(-i)),
		}
	}
	aggs := []models.ClusterAggregate{
		{Cluster: 0, GPA: 3.3, Attendance: 0.9, Theory: 3.8, Practice: 4, Grade: 80},
		{Cluster: 1, GPA: 3, Attendance: 0.8, Theory: 3.2, Practice: 3.3, Grade: 70},
		{Cluster: 2, GPA: 2.8, Attendance: 0.7, Theory: 2.9, Practice: 3, Grade: 60},
	}
	ds := db.NewDataset(students, aggs, nil)
	return NewRouter(NewAPIHandler(ds, nil, zap.NewNop()))
}

func get(t *testing.T, router *gin.Engine, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestSelectionParams(t *testing.T) {
	router := testRouter(t)

	tests := []struct {
		name  string
		query string
		count int
	}{
		{"absent selects everything", "", 10},
		{"comma separated", "?cluster=0,2", 6},
		{"repeated", "?cluster=0&cluster=2", 6},
		{"present but empty", "?cluster=", 0},
		{"combined dimensions", "?cluster=0,2&gender=L", 2},
		{"unknown value", "?cohort=1999", 0},
		{"cohort written as float", "?cohort=2021.0", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d views.Dashboard
			decode(t, get(t, router, "/api/dashboard"+tt.query), &d)
			assert.Equal(t, tt.count, d.Summary.Count)
			assert.Equal(t, tt.count, d.Sidebar.Shown)
			assert.Equal(t, 10, d.Sidebar.Total)
		})
	}
}

func TestSelectionParams_InvalidCluster(t *testing.T) {
	w := get(t, testRouter(t), "/api/dashboard?cluster=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid cluster")
}

func TestGetDashboard_EmptySelectionIsGuarded(t *testing.T) {
	var d views.Dashboard
	decode(t, get(t, testRouter(t), "/api/dashboard?gender="), &d)
	assert.True(t, d.Summary.Empty)
	assert.Equal(t, "-", d.Metrics[1].Value)
}

func TestGetFilters(t *testing.T) {
	var body struct {
		Options  analytics.Selection `json:"options"`
		Total    int                 `json:"total"`
		SortKeys []string            `json:"sortKeys"`
	}
	decode(t, get(t, testRouter(t), "/api/filters"), &body)
	assert.Equal(t, []int{0, 1, 2}, body.Options.Clusters)
	assert.Equal(t, []string{"2020", "2021"}, body.Options.Cohorts)
	assert.Equal(t, []string{"L", "P"}, body.Options.Genders)
	assert.Equal(t, 10, body.Total)
	assert.Equal(t, analytics.SortKeys, body.SortKeys)
}

func TestGetVisualization(t *testing.T) {
	var v views.Visualization
	decode(t, get(t, testRouter(t), "/api/visualization?cluster=1"), &v)
	assert.Len(t, v.Scatter, 4)
	assert.Len(t, v.Radar.Series, 3)
	assert.Len(t, v.Comparison, 5)
}

func TestGetClusters(t *testing.T) {
	router := testRouter(t)

	var all views.ClusterDetail
	decode(t, get(t, router, "/api/clusters"), &all)
	require.NotNil(t, all.All)
	assert.Nil(t, all.Cluster)
	assert.Len(t, all.All.Rows, 10)

	var one views.ClusterDetail
	decode(t, get(t, router, "/api/clusters/1"), &one)
	require.NotNil(t, one.Cluster)
	assert.Equal(t, 1, one.Cluster.Cluster)
	assert.Equal(t, 4, one.Cluster.Summary.Count)
	assert.Equal(t, "1", one.Selected)

	var unknown views.ClusterDetail
	decode(t, get(t, router, "/api/clusters/7"), &unknown)
	require.NotNil(t, unknown.Cluster)
	assert.Equal(t, analytics.Interpret(1), unknown.Cluster.Interpretation)
	assert.Equal(t, 0, unknown.Cluster.Summary.Count)

	w := get(t, router, "/api/clusters/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetExplorer(t *testing.T) {
	router := testRouter(t)

	var ex views.Explorer
	decode(t, get(t, router, "/api/explorer?q=mahasiswa%200&sort=NA_NUMERIK"), &ex)
	assert.Equal(t, 10, ex.Count)
	assert.Equal(t, "NA_NUMERIK", ex.SortBy)
	assert.Equal(t, "S09", ex.Table.Rows[0][0])

	w := get(t, router, "/api/explorer?sort=NAMA")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportExplorer(t *testing.T) {
	w := get(t, testRouter(t), "/api/explorer/export?cluster=0")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="data_mahasiswa.csv"`, w.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, views.AllColumns, records[0])
	assert.Equal(t, []string{"S07", "S01", "S00"}, []string{records[1][0], records[2][0], records[3][0]})
}

func TestGetChart(t *testing.T) {
	router := testRouter(t)

	w := get(t, router, "/api/charts/pie")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = get(t, router, "/api/charts/pie?cluster=")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = get(t, router, "/api/charts/heatmap")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPing_WithoutRedis(t *testing.T) {
	var body map[string]any
	decode(t, get(t, testRouter(t), "/api/ping"), &body)
	assert.Equal(t, "Pong!", body["message"])
	assert.Equal(t, "disabled", body["redis"])
	assert.EqualValues(t, 10, body["students"])
}

func TestGetPage(t *testing.T) {
	router := testRouter(t)

	w := get(t, router, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Data: 10 dari 10 mahasiswa")
	assert.Contains(t, body, "/api/charts/pie?")
	assert.Contains(t, body, "Statistik per Cluster")

	w = get(t, router, "/?page=explorer&cluster=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Data: 3 dari 10 mahasiswa")
	assert.Contains(t, w.Body.String(), "/api/explorer/export?")

	w = get(t, router, "/?page=clusters&detail=0")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Anggota Cluster 0")

	w = get(t, router, "/?page=settings")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFilterQuery_KeepsEmptySelections(t *testing.T) {
	q := filterQuery(analytics.Selection{Clusters: []int{0, 2}, Genders: []string{"P"}})
	assert.Equal(t, "cluster=0&cluster=2&cohort=&gender=P", q.Encode())
}
