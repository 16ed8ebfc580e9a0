package views

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"princals-dashboard/analytics"
	"princals-dashboard/db"
	"princals-dashboard/models"
)

// ExportFilename is the suggested name of the explorer download.
const ExportFilename = "data_mahasiswa.csv"

// Explorer is the searchable, sortable table page.
type Explorer struct {
	Sidebar  Sidebar          `json:"sidebar"`
	Search   string           `json:"search"`
	SortBy   string           `json:"sortBy"`
	SortKeys []string         `json:"sortKeys"`
	Count    int              `json:"count"`
	Table    Table            `json:"table"`
	Rows     []models.Student `json:"-"`
}

// BuildExplorer filters by sel, keeps names containing search and sorts by
// sortBy, largest first. An empty sortBy sorts by IPK.
func BuildExplorer(ds *db.Dataset, sel analytics.Selection, search, sortBy string) (Explorer, error) {
	if sortBy == "" {
		sortBy = analytics.SortGPA
	}
	rows, sidebar := filtered(ds, sel)
	rows = analytics.Search(rows, search)
	rows, err := analytics.SortDesc(rows, sortBy)
	if err != nil {
		return Explorer{}, err
	}

	return Explorer{
		Sidebar:  sidebar,
		Search:   search,
		SortBy:   sortBy,
		SortKeys: analytics.SortKeys,
		Count:    len(rows),
		Table:    StudentTable(rows, AllColumns),
		Rows:     rows,
	}, nil
}

// WriteCSV writes rows as UTF-8 CSV with a header, in the given order.
func WriteCSV(w io.Writer, rows []models.Student) error {
	if len(rows) == 0 {
		// a dataframe needs at least one row; write the bare header
		cw := csv.NewWriter(w)
		if err := cw.Write(AllColumns); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
		cw.Flush()
		return cw.Error()
	}

	records := append([][]string{AllColumns}, StudentTable(rows, AllColumns).Rows...)
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return fmt.Errorf("failed to build export table: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
