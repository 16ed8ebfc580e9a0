package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"go.uber.org/zap"

	"princals-dashboard/config"
	"princals-dashboard/models"
)

// ErrMissingColumn is returned when a workbook lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Column headers of the pipeline's workbooks.
const (
	colID         = "NIM"
	colName       = "NAMA"
	colCohort     = "ANGKATAN"
	colGender     = "JKEL"
	colStatus     = "STATUS"
	colCluster    = "CLUSTER"
	colGPA        = "IPK"
	colAttendance = "PRESENSI"
	colTheory     = "RATA_TEORI"
	colPractice   = "RATA_PRAKTEK"
	colGrade      = "NA_NUMERIK"
	colPCA1       = "PCA_1"
	colPCA2       = "PCA_2"
	colMembers    = "JUMLAH_MAHASISWA"
)

var requiredStudentColumns = []string{
	colName, colCohort, colGender, colCluster, colGPA, colAttendance, colTheory, colPractice,
}

// Loader builds a Dataset from the three workbooks.
type Loader struct {
	Source SheetSource
	Logger *zap.Logger
}

// NewLoader creates a new Loader
func NewLoader(source SheetSource, logger *zap.Logger) *Loader {
	return &Loader{Source: source, Logger: logger}
}

// Load reads the student, aggregate and detail workbooks. Any error is meant to
// be fatal for the caller; only a missing detail workbook is tolerated, and
// only when cfg.DetailOptional is set.
func (l *Loader) Load(ctx context.Context, cfg config.DataConfig) (*Dataset, error) {
	studentRows, err := l.Source.Rows(ctx, cfg.StudentsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load student table: %w", err)
	}
	students, err := l.parseStudents(studentRows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.StudentsFile, err)
	}

	aggregateRows, err := l.Source.Rows(ctx, cfg.AggregatePath())
	if err != nil {
		return nil, fmt.Errorf("failed to load cluster aggregates: %w", err)
	}
	aggregates, err := l.parseAggregates(aggregateRows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.AggregateFile, err)
	}

	var detail *DetailTable
	detailRows, err := l.Source.Rows(ctx, cfg.DetailPath())
	switch {
	case err == nil:
		detail, err = NewDetailTable(detailRows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.DetailFile, err)
		}
		if !detail.Keyed() {
			l.Logger.Warn("Detail workbook has no CLUSTER column, detail rows are hidden",
				zap.String("path", cfg.DetailPath()))
		}
	case cfg.DetailOptional && errors.Is(err, fs.ErrNotExist):
		l.Logger.Warn("Detail workbook not found, continuing without it", zap.String("path", cfg.DetailPath()))
	default:
		return nil, fmt.Errorf("failed to load cluster details: %w", err)
	}

	l.Logger.Info("Loaded dataset",
		zap.Int("students", len(students)),
		zap.Int("clusters", len(aggregates)),
		zap.Bool("detail", detail != nil))
	return NewDataset(students, aggregates, detail), nil
}

func (l *Loader) parseStudents(rows [][]string) ([]models.Student, error) {
	idx := columnIndex(rows[0])
	for _, col := range requiredStudentColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	students := make([]models.Student, 0, len(rows)-1)
	// Skip the header row
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		cluster, ok := parseCluster(cell(row, idx, colCluster))
		if !ok {
			l.Logger.Warn("Skipping student row with unreadable cluster",
				zap.Int("row", i+2), zap.String("value", cell(row, idx, colCluster)))
			continue
		}
		students = append(students, models.Student{
			ID:            cell(row, idx, colID),
			Name:          cell(row, idx, colName),
			Cohort:        NormalizeLabel(cell(row, idx, colCohort)),
			Gender:        cell(row, idx, colGender),
			Status:        cell(row, idx, colStatus),
			Cluster:       cluster,
			GPA:           parseScore(cell(row, idx, colGPA)),
			Attendance:    parseScore(cell(row, idx, colAttendance)),
			Theory:        parseScore(cell(row, idx, colTheory)),
			Practice:      parseScore(cell(row, idx, colPractice)),
			Grade:         parseScore(cell(row, idx, colGrade)),
			ProjectionOne: parseScore(cell(row, idx, colPCA1)),
			ProjectionTwo: parseScore(cell(row, idx, colPCA2)),
		})
	}
	return students, nil
}

func (l *Loader) parseAggregates(rows [][]string) ([]models.ClusterAggregate, error) {
	idx := columnIndex(rows[0])
	// A saved dataframe index has no CLUSTER header; it is then the first column.
	key, ok := idx[colCluster]
	if !ok {
		key = 0
	}
	_, hasMembers := idx[colMembers]

	aggregates := make([]models.ClusterAggregate, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		var raw string
		if key < len(row) {
			raw = strings.TrimSpace(row[key])
		}
		cluster, ok := parseCluster(raw)
		if !ok {
			l.Logger.Warn("Skipping aggregate row with unreadable cluster",
				zap.Int("row", i+2), zap.String("value", raw))
			continue
		}
		agg := models.ClusterAggregate{
			Cluster:    cluster,
			GPA:        parseScore(cell(row, idx, colGPA)),
			Attendance: parseScore(cell(row, idx, colAttendance)),
			Theory:     parseScore(cell(row, idx, colTheory)),
			Practice:   parseScore(cell(row, idx, colPractice)),
			Grade:      parseScore(cell(row, idx, colGrade)),
			HasMembers: hasMembers,
		}
		if hasMembers {
			if n := parseScore(cell(row, idx, colMembers)); n.Valid() {
				agg.Members = int(math.Round(float64(n)))
			}
		}
		aggregates = append(aggregates, agg)
	}
	if len(aggregates) == 0 {
		return nil, errors.New("no cluster rows")
	}
	return aggregates, nil
}

// DetailTable holds the extended per-cluster statistics.
type DetailTable struct {
	header    []string
	df        dataframe.DataFrame // zero when the sheet has no data rows
	byCluster map[int]int         // first row index per cluster
	keyed     bool
}

// NewDetailTable builds a DetailTable from raw rows, header first. A sheet
// with no data rows or no CLUSTER column gives a table where Row always misses.
func NewDetailTable(rows [][]string) (*DetailTable, error) {
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("COL_%d", i)
		}
		header[i] = h
	}

	records := [][]string{header}
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		padded := make([]string, len(header))
		copy(padded, row)
		records = append(records, padded)
	}

	t := &DetailTable{header: header, byCluster: make(map[int]int)}
	for _, name := range header {
		t.keyed = t.keyed || strings.EqualFold(name, colCluster)
	}
	if len(records) == 1 {
		return t, nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to build detail table: %w", df.Err)
	}

	t.df = df
	key := ""
	for _, name := range df.Names() {
		if strings.EqualFold(name, colCluster) {
			key = name
			break
		}
	}
	if key == "" {
		return t, nil
	}
	for i, v := range df.Col(key).Records() {
		if c, ok := parseCluster(v); ok {
			if _, seen := t.byCluster[c]; !seen {
				t.byCluster[c] = i
			}
		}
	}
	return t, nil
}

// Row returns the first statistics row of a cluster as ordered column/value pairs.
func (t *DetailTable) Row(cluster int) ([]models.DetailField, bool) {
	i, ok := t.byCluster[cluster]
	if !ok {
		return nil, false
	}
	records := t.df.Subset([]int{i}).Records()
	fields := make([]models.DetailField, len(records[0]))
	for c, name := range records[0] {
		fields[c] = models.DetailField{Column: name, Value: records[1][c]}
	}
	return fields, true
}

// Columns returns the detail table header.
func (t *DetailTable) Columns() []string {
	return slices.Clone(t.header)
}

// Keyed reports whether the sheet has a CLUSTER column to look rows up by.
func (t *DetailTable) Keyed() bool { return t.keyed }

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToUpper(strings.TrimSpace(h))
		if _, dup := idx[key]; !dup && key != "" {
			idx[key] = i
		}
	}
	return idx
}

func cell(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseScore(raw string) models.Score {
	if raw == "" {
		return models.Missing
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// decimal comma, as some locales write it
		f, err = strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			return models.Missing
		}
	}
	if math.IsInf(f, 0) {
		return models.Missing
	}
	return models.Score(f)
}

func parseCluster(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	// -MinInt is 2^63, the first float past the int range
	if f < float64(math.MinInt) || f >= -float64(math.MinInt) {
		return 0, false
	}
	return int(f), true
}

// NormalizeLabel turns "2021.0" into "2021" so cohorts read as years.
func NormalizeLabel(raw string) string {
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return raw
}
