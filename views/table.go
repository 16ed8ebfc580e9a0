package views

import (
	"fmt"
	"math"
	"strconv"

	"princals-dashboard/models"
)

// Table is a render-ready grid. Colors, when present, has one background
// colour per cell ("" for none).
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Colors  [][]string `json:"colors,omitempty"`
}

// Student table columns.
var (
	ClusterListColumns = []string{"NAMA", "ANGKATAN", "JKEL", "STATUS", "CLUSTER", "IPK", "PRESENSI", "RATA_TEORI", "RATA_PRAKTEK"}
	MemberColumns      = []string{"NAMA", "ANGKATAN", "JKEL", "IPK", "PRESENSI", "RATA_TEORI", "RATA_PRAKTEK"}
	AllColumns         = []string{"NIM", "NAMA", "ANGKATAN", "JKEL", "STATUS", "CLUSTER", "IPK", "PRESENSI", "RATA_TEORI", "RATA_PRAKTEK", "NA_NUMERIK", "PCA_1", "PCA_2"}
)

func studentCell(s models.Student, column string) string {
	switch column {
	case "NIM":
		return s.ID
	case "NAMA":
		return s.Name
	case "ANGKATAN":
		return s.Cohort
	case "JKEL":
		return s.Gender
	case "STATUS":
		return s.Status
	case "CLUSTER":
		return strconv.Itoa(s.Cluster)
	case "IPK":
		return s.GPA.String()
	case "PRESENSI":
		return s.Attendance.String()
	case "RATA_TEORI":
		return s.Theory.String()
	case "RATA_PRAKTEK":
		return s.Practice.String()
	case "NA_NUMERIK":
		return s.Grade.String()
	case "PCA_1":
		return s.ProjectionOne.String()
	case "PCA_2":
		return s.ProjectionTwo.String()
	}
	return ""
}

// StudentTable projects rows onto columns.
func StudentTable(rows []models.Student, columns []string) Table {
	t := Table{Columns: columns, Rows: make([][]string, len(rows))}
	for i, r := range rows {
		cells := make([]string, len(columns))
		for c, col := range columns {
			cells[c] = studentCell(r, col)
		}
		t.Rows[i] = cells
	}
	return t
}

// AggregateTable renders the per-cluster means with a red-yellow-green
// background scaled per column.
func AggregateTable(aggs []models.ClusterAggregate, withMembers bool) Table {
	columns := []string{"CLUSTER", "IPK", "PRESENSI", "RATA_TEORI", "RATA_PRAKTEK", "NA_NUMERIK"}
	if withMembers {
		columns = append(columns, "JUMLAH_MAHASISWA")
	}

	values := make([][]models.Score, len(aggs))
	for i, a := range aggs {
		values[i] = []models.Score{a.GPA, a.Attendance, a.Theory, a.Practice, a.Grade}
		if withMembers {
			values[i] = append(values[i], models.Score(a.Members))
		}
	}

	numeric := len(columns) - 1
	lo := make([]float64, numeric)
	hi := make([]float64, numeric)
	for c := 0; c < numeric; c++ {
		lo[c], hi[c] = math.Inf(1), math.Inf(-1)
		for _, row := range values {
			if v := row[c]; v.Valid() {
				lo[c] = math.Min(lo[c], float64(v))
				hi[c] = math.Max(hi[c], float64(v))
			}
		}
	}

	t := Table{Columns: columns}
	for i, a := range aggs {
		cells := []string{strconv.Itoa(a.Cluster)}
		colors := []string{""}
		for c, v := range values[i] {
			if !v.Valid() {
				cells = append(cells, "")
				colors = append(colors, "")
				continue
			}
			cells = append(cells, formatAggregate(float64(v)))
			colors = append(colors, Gradient(float64(v), lo[c], hi[c]))
		}
		t.Rows = append(t.Rows, cells)
		t.Colors = append(t.Colors, colors)
	}
	return t
}

func formatAggregate(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Gradient maps v in [lo, hi] onto a red, yellow, green scale.
func Gradient(v, lo, hi float64) string {
	t := 0.5
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	t = math.Max(0, math.Min(1, t))

	red := [3]float64{0xd7, 0x30, 0x27}
	yellow := [3]float64{0xff, 0xff, 0xbf}
	green := [3]float64{0x1a, 0x98, 0x50}

	from, to, f := red, yellow, t*2
	if t > 0.5 {
		from, to, f = yellow, green, (t-0.5)*2
	}
	var rgb [3]int
	for i := range rgb {
		rgb[i] = int(math.Round(from[i] + (to[i]-from[i])*f))
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
}

func formatTwo(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
