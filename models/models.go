package models

import (
	"encoding/json"
	"math"
	"strconv"
)

// Score is a numeric spreadsheet cell. NaN marks an empty or unparseable cell.
type Score float64

// Missing is the Score used for empty cells.
var Missing = Score(math.NaN())

// Valid reports whether the cell held a number.
func (s Score) Valid() bool { return !math.IsNaN(float64(s)) }

// MarshalJSON writes missing cells as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(s))
}

// UnmarshalJSON reads null back as a missing cell.
func (s *Score) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Missing
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Score(f)
	return nil
}

// String formats the cell the way it is exported; missing cells are empty.
func (s Score) String() string {
	if !s.Valid() {
		return ""
	}
	return strconv.FormatFloat(float64(s), 'f', -1, 64)
}

// Student is one row of the clustered student table
type Student struct {
	ID            string `json:"id,omitempty"`  // NIM, when the sheet has one
	Name          string `json:"name"`          // NAMA
	Cohort        string `json:"cohort"`        // ANGKATAN (intake year)
	Gender        string `json:"gender"`        // JKEL
	Status        string `json:"status"`        // STATUS
	Cluster       int    `json:"cluster"`       // CLUSTER, assigned upstream
	GPA           Score  `json:"gpa"`           // IPK
	Attendance    Score  `json:"attendance"`    // PRESENSI, ratio 0..1
	Theory        Score  `json:"theory"`        // RATA_TEORI questionnaire average
	Practice      Score  `json:"practice"`      // RATA_PRAKTEK questionnaire average
	Grade         Score  `json:"grade"`         // NA_NUMERIK
	ProjectionOne Score  `json:"pca1"`          // PCA_1
	ProjectionTwo Score  `json:"pca2"`          // PCA_2
}

// ClusterAggregate is one row of the per-cluster means table
type ClusterAggregate struct {
	Cluster    int   `json:"cluster"`
	GPA        Score `json:"gpa"`
	Attendance Score `json:"attendance"`
	Theory     Score `json:"theory"`
	Practice   Score `json:"practice"`
	Grade      Score `json:"grade"`
	Members    int   `json:"members,omitempty"` // JUMLAH_MAHASISWA
	HasMembers bool  `json:"hasMembers"`        // false when the sheet has no count column
}

// DetailField is one column of an extended per-cluster statistics row
type DetailField struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Interpretation is the fixed human-readable description of a cluster profile
type Interpretation struct {
	Emoji           string   `json:"emoji"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Characteristics []string `json:"characteristics"`
	Recommendation  string   `json:"recommendation"`
}
