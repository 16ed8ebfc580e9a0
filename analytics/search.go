package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"princals-dashboard/models"
)

// ErrUnknownSortKey is returned by SortDesc for a column it cannot sort on.
var ErrUnknownSortKey = errors.New("unknown sort key")

// Sort keys offered by the data explorer.
const (
	SortGPA        = "IPK"
	SortAttendance = "PRESENSI"
	SortCluster    = "CLUSTER"
	SortTheory     = "RATA_TEORI"
	SortPractice   = "RATA_PRAKTEK"
	SortGrade      = "NA_NUMERIK"
)

// SortKeys lists the accepted sort keys, default first.
var SortKeys = []string{SortGPA, SortAttendance, SortCluster, SortTheory, SortPractice, SortGrade}

// Search keeps rows whose name contains q, ignoring case. An empty q keeps
// everything; whitespace is matched as typed.
func Search(rows []models.Student, q string) []models.Student {
	q = strings.ToLower(q)
	if q == "" {
		return rows
	}
	out := make([]models.Student, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r)
		}
	}
	return out
}

// SortDesc returns a copy of rows sorted by key, largest first. Ties keep
// their order and missing values go last.
func SortDesc(rows []models.Student, key string) ([]models.Student, error) {
	pick, err := sortValue(key)
	if err != nil {
		return nil, err
	}
	out := append([]models.Student(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := pick(out[i]), pick(out[j])
		if !b.Valid() {
			return a.Valid()
		}
		if !a.Valid() {
			return false
		}
		return a > b
	})
	return out, nil
}

// SortByCluster returns a copy of rows ordered by ascending cluster id.
func SortByCluster(rows []models.Student) []models.Student {
	out := append([]models.Student(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cluster < out[j].Cluster })
	return out
}

func sortValue(key string) (func(models.Student) models.Score, error) {
	switch strings.ToUpper(strings.TrimSpace(key)) {
	case SortGPA:
		return func(s models.Student) models.Score { return s.GPA }, nil
	case SortAttendance:
		return func(s models.Student) models.Score { return s.Attendance }, nil
	case SortCluster:
		return func(s models.Student) models.Score { return models.Score(s.Cluster) }, nil
	case SortTheory:
		return func(s models.Student) models.Score { return s.Theory }, nil
	case SortPractice:
		return func(s models.Student) models.Score { return s.Practice }, nil
	case SortGrade:
		return func(s models.Student) models.Score { return s.Grade }, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSortKey, key)
}
