package db

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"princals-dashboard/config"
)

func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func writeFixtures(t *testing.T, withDetail bool) config.DataConfig {
	t.Helper()
	cfg := config.DefaultConfig().Data
	cfg.Dir = t.TempDir()

	writeWorkbook(t, cfg.StudentsPath(), [][]interface{}{
		{"NIM", "NAMA", "ANGKATAN", "JKEL", "STATUS", "CLUSTER", "IPK", "PRESENSI", "RATA_TEORI", "RATA_PRAKTEK", "NA_NUMERIK", "PCA_1", "PCA_2"},
		{"001", "Andi", 2021, "L", "Aktif", 0, 3.82, 0.97, 4.1, 4.3, 88, 1.2, 0.4},
		{"002", "Bunga", 2020, "P", "Aktif", 1, 3.21, 0.9, 3.5, "", 76, -0.1, 0.2},
		{},
		{"003", "Citra", 2021, "P", "Cuti", "x", 2.9, 0.8, 3, 3, 60, 0, 0},
		{"004", "Dodi", 2022, "L", "Aktif", 2, 2.61, 0.78, 2.8, 2.9, 58, -1.3, -0.9},
	})
	writeWorkbook(t, cfg.AggregatePath(), [][]interface{}{
		{"CLUSTER", "IPK", "PRESENSI", "RATA_TEORI", "RATA_PRAKTEK", "NA_NUMERIK", "JUMLAH_MAHASISWA"},
		{2, 2.61, 0.78, 2.8, 2.9, 58, 1},
		{0, 3.82, 0.97, 4.1, 4.3, 88, 1},
		{1, 3.21, 0.9, 3.5, 3.6, 76, 1},
	})
	if withDetail {
		writeWorkbook(t, cfg.DetailPath(), [][]interface{}{
			{"CLUSTER", "IPK_STD", "IPK_MIN", "IPK_MAX"},
			{0, 0.1, 3.7, 3.9},
			{1, 0.2, 3.0, 3.4},
		})
	}
	return cfg
}

func newTestLoader() *Loader {
	return NewLoader(NewExcelSource(zap.NewNop()), zap.NewNop())
}

func TestLoad_ReadsAllThreeWorkbooks(t *testing.T) {
	cfg := writeFixtures(t, true)

	ds, err := newTestLoader().Load(context.Background(), cfg)
	require.NoError(t, err)

	// the blank row and the row with an unreadable cluster are skipped
	students := ds.Students()
	require.Len(t, students, 3)
	assert.Equal(t, "Andi", students[0].Name)
	assert.Equal(t, "2021", students[0].Cohort)
	assert.Equal(t, 0, students[0].Cluster)
	assert.InDelta(t, 3.82, float64(students[0].GPA), 1e-9)
	assert.InDelta(t, 1.2, float64(students[0].ProjectionOne), 1e-9)
	assert.False(t, students[1].Practice.Valid(), "empty cell is missing")
	assert.Equal(t, "Dodi", students[2].Name)

	assert.Equal(t, []int{0, 1, 2}, ds.ClusterIDs())
	assert.True(t, ds.HasMembers())
	agg, ok := ds.Aggregate(2)
	require.True(t, ok)
	assert.Equal(t, 1, agg.Members)

	row, ok := ds.Detail(1)
	require.True(t, ok)
	require.Len(t, row, 4)
	assert.Equal(t, "IPK_STD", row[1].Column)
	assert.Equal(t, "0.2", row[1].Value)

	_, ok = ds.Detail(2)
	assert.False(t, ok, "cluster without a detail row")

	sel := ds.Observed()
	assert.Equal(t, []int{0, 1, 2}, sel.Clusters)
	assert.Equal(t, []string{"2020", "2021", "2022"}, sel.Cohorts)
	assert.Equal(t, []string{"L", "P"}, sel.Genders)
}

func TestLoad_MissingDetailIsTolerated(t *testing.T) {
	cfg := writeFixtures(t, false)

	ds, err := newTestLoader().Load(context.Background(), cfg)
	require.NoError(t, err)

	_, ok := ds.Detail(0)
	assert.False(t, ok)
}

func TestLoad_HeaderOnlyDetailIsTolerated(t *testing.T) {
	cfg := writeFixtures(t, false)
	writeWorkbook(t, cfg.DetailPath(), [][]interface{}{
		{"CLUSTER", "IPK_STD"},
	})

	ds, err := newTestLoader().Load(context.Background(), cfg)
	require.NoError(t, err)

	_, ok := ds.Detail(0)
	assert.False(t, ok)
}

func TestLoad_DetailWithoutClusterColumnIsTolerated(t *testing.T) {
	cfg := writeFixtures(t, false)
	writeWorkbook(t, cfg.DetailPath(), [][]interface{}{
		{"IPK_STD", "IPK_MIN"},
		{0.1, 3.7},
	})

	ds, err := newTestLoader().Load(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())

	for _, id := range ds.ClusterIDs() {
		_, ok := ds.Detail(id)
		assert.False(t, ok, "cluster %d", id)
	}
}

func TestNewDetailTable_EmptyAndUnkeyed(t *testing.T) {
	empty, err := NewDetailTable([][]string{{"CLUSTER", "IPK_STD"}})
	require.NoError(t, err)
	assert.True(t, empty.Keyed())
	assert.Equal(t, []string{"CLUSTER", "IPK_STD"}, empty.Columns())
	_, ok := empty.Row(0)
	assert.False(t, ok)

	unkeyed, err := NewDetailTable([][]string{{"IPK_STD"}, {"0.1"}})
	require.NoError(t, err)
	assert.False(t, unkeyed.Keyed())
	_, ok = unkeyed.Row(0)
	assert.False(t, ok)
}

func TestLoad_MissingDetailFailsWhenRequired(t *testing.T) {
	cfg := writeFixtures(t, false)
	cfg.DetailOptional = false

	_, err := newTestLoader().Load(context.Background(), cfg)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoad_MissingStudentsIsFatal(t *testing.T) {
	cfg := writeFixtures(t, true)
	require.NoError(t, os.Remove(cfg.StudentsPath()))

	_, err := newTestLoader().Load(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoad_MissingRequiredColumn(t *testing.T) {
	cfg := writeFixtures(t, true)
	writeWorkbook(t, cfg.StudentsPath(), [][]interface{}{
		{"NAMA", "ANGKATAN", "JKEL", "CLUSTER", "IPK"},
		{"Andi", 2021, "L", 0, 3.5},
	})

	_, err := newTestLoader().Load(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoad_AggregateIndexWithoutHeader(t *testing.T) {
	cfg := writeFixtures(t, false)
	writeWorkbook(t, cfg.AggregatePath(), [][]interface{}{
		{"", "IPK", "PRESENSI", "RATA_TEORI", "RATA_PRAKTEK", "NA_NUMERIK"},
		{0, 3.8, 0.97, 4.1, 4.3, 88},
		{1, 3.2, 0.9, 3.5, 3.6, 76},
	})

	ds, err := newTestLoader().Load(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, ds.ClusterIDs())
	assert.False(t, ds.HasMembers())
}

func TestDataset_AccessorsReturnCopies(t *testing.T) {
	cfg := writeFixtures(t, false)
	ds, err := newTestLoader().Load(context.Background(), cfg)
	require.NoError(t, err)

	students := ds.Students()
	students[0].Name = "changed"
	assert.Equal(t, "Andi", ds.Students()[0].Name)

	sel := ds.Observed()
	sel.Clusters[0] = 99
	assert.Equal(t, 0, ds.Observed().Clusters[0])
}

func TestParseHelpers(t *testing.T) {
	assert.False(t, parseScore("").Valid())
	assert.False(t, parseScore("n/a").Valid())
	assert.InDelta(t, 3.5, float64(parseScore("3,5")), 1e-9)

	c, ok := parseCluster("2.0")
	assert.True(t, ok)
	assert.Equal(t, 2, c)
	_, ok = parseCluster("2.5")
	assert.False(t, ok)
	_, ok = parseCluster("1e30")
	assert.False(t, ok)
	_, ok = parseCluster("-1e30")
	assert.False(t, ok)
	_, ok = parseCluster("9223372036854775808")
	assert.False(t, ok)

	assert.Equal(t, "2021", NormalizeLabel("2021.0"))
	assert.Equal(t, "L", NormalizeLabel("L"))
}

type memoryStore struct {
	sheets map[string][][]string
	gets   int
	puts   int
	err    error
}

func (m *memoryStore) GetSheet(_ context.Context, fp string) ([][]string, bool, error) {
	m.gets++
	if m.err != nil {
		return nil, false, m.err
	}
	rows, ok := m.sheets[fp]
	return rows, ok, nil
}

func (m *memoryStore) PutSheet(_ context.Context, fp string, rows [][]string, _ time.Duration) error {
	m.puts++
	if m.err != nil {
		return m.err
	}
	m.sheets[fp] = rows
	return nil
}

type countingSource struct {
	next  SheetSource
	calls int
}

func (c *countingSource) Rows(ctx context.Context, path string) ([][]string, error) {
	c.calls++
	return c.next.Rows(ctx, path)
}

func TestCachedSource_ServesSecondReadFromStore(t *testing.T) {
	cfg := writeFixtures(t, true)
	store := &memoryStore{sheets: map[string][][]string{}}
	excel := &countingSource{next: NewExcelSource(zap.NewNop())}
	src := NewCachedSource(store, excel, time.Hour, zap.NewNop())

	first, err := src.Rows(context.Background(), cfg.AggregatePath())
	require.NoError(t, err)
	second, err := src.Rows(context.Background(), cfg.AggregatePath())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, excel.calls)
	assert.Equal(t, 1, store.puts)
}

func TestCachedSource_StoreFailureFallsThrough(t *testing.T) {
	cfg := writeFixtures(t, true)
	store := &memoryStore{sheets: map[string][][]string{}, err: errors.New("connection refused")}
	src := NewCachedSource(store, NewExcelSource(zap.NewNop()), time.Hour, zap.NewNop())

	ds, err := NewLoader(src, zap.NewNop()).Load(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
}

func TestCachedSource_MissingFile(t *testing.T) {
	store := &memoryStore{sheets: map[string][][]string{}}
	src := NewCachedSource(store, NewExcelSource(zap.NewNop()), time.Hour, zap.NewNop())

	_, err := src.Rows(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Zero(t, store.gets)
}

func TestFingerprintChangesWithFile(t *testing.T) {
	now := time.Now()
	a := fingerprint("/data/a.xlsx", 100, now)
	assert.Equal(t, a, fingerprint("/data/a.xlsx", 100, now))
	assert.NotEqual(t, a, fingerprint("/data/a.xlsx", 101, now))
	assert.NotEqual(t, a, fingerprint("/data/a.xlsx", 100, now.Add(time.Second)))
}
