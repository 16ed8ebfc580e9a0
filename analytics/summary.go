package analytics

import (
	"fmt"
	"math"
	"sort"

	"princals-dashboard/models"
)

// Summary holds the headline metrics of a set of students.
// Empty is set instead of producing NaN means for an empty set.
type Summary struct {
	Count             int     `json:"count"`
	MeanGPA           float64 `json:"meanGpa"`
	MeanAttendance    float64 `json:"meanAttendance"`
	MeanQuestionnaire float64 `json:"meanQuestionnaire"`
	Empty             bool    `json:"empty"`
}

// Summarize computes count and means over rows. The questionnaire metric is the
// mean of the RATA_TEORI and RATA_PRAKTEK column means.
func Summarize(rows []models.Student) Summary {
	if len(rows) == 0 {
		return Summary{Empty: true}
	}
	theory := Mean(rows, func(s models.Student) models.Score { return s.Theory })
	practice := Mean(rows, func(s models.Student) models.Score { return s.Practice })

	return Summary{
		Count:             len(rows),
		MeanGPA:           zeroNaN(Mean(rows, func(s models.Student) models.Score { return s.GPA })),
		MeanAttendance:    zeroNaN(Mean(rows, func(s models.Student) models.Score { return s.Attendance })),
		MeanQuestionnaire: zeroNaN(meanOf(theory, practice)),
	}
}

// GPAText formats the GPA mean with two decimals.
func (s Summary) GPAText() string {
	if s.Empty {
		return "-"
	}
	return fmt.Sprintf("%.2f", s.MeanGPA)
}

// AttendanceText formats the attendance ratio as a percentage with one decimal.
func (s Summary) AttendanceText() string {
	if s.Empty {
		return "-"
	}
	return Percent(s.MeanAttendance)
}

// QuestionnaireText formats the questionnaire mean with two decimals.
func (s Summary) QuestionnaireText() string {
	if s.Empty {
		return "-"
	}
	return fmt.Sprintf("%.2f", s.MeanQuestionnaire)
}

// Percent formats a ratio such as 0.953 as "95.3%".
func Percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// Mean averages the valid values picked from rows. It returns NaN when no
// value is valid.
func Mean(rows []models.Student, pick func(models.Student) models.Score) float64 {
	var total float64
	var n int
	for _, r := range rows {
		v := pick(r)
		if !v.Valid() {
			continue
		}
		total += float64(v)
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return total / float64(n)
}

// meanOf averages the non-NaN arguments.
func meanOf(values ...float64) float64 {
	var total float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		total += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return total / float64(n)
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// Share is the size of one cluster within a set of students.
type Share struct {
	Cluster int     `json:"cluster"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"` // 0..100
}

// Distribution counts rows per cluster, ordered by cluster id.
func Distribution(rows []models.Student) []Share {
	counts := make(map[int]int)
	for _, r := range rows {
		counts[r.Cluster]++
	}
	shares := make([]Share, 0, len(counts))
	for c, n := range counts {
		shares = append(shares, Share{Cluster: c, Count: n, Percent: SharePercent(n, len(rows))})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].Cluster < shares[j].Cluster })
	return shares
}

// SharePercent returns part/total as a percentage, or 0 when total is 0.
func SharePercent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// FiveNumber is the box plot summary of a sample.
type FiveNumber struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	N      int     `json:"n"`
}

// Stats computes the five-number summary of the valid values, using linear
// interpolation between order statistics. ok is false when no value is valid.
func Stats(values []models.Score) (FiveNumber, bool) {
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Valid() {
			xs = append(xs, float64(v))
		}
	}
	if len(xs) == 0 {
		return FiveNumber{}, false
	}
	sort.Float64s(xs)
	return FiveNumber{
		Min:    xs[0],
		Q1:     quantile(xs, 0.25),
		Median: quantile(xs, 0.5),
		Q3:     quantile(xs, 0.75),
		Max:    xs[len(xs)-1],
		N:      len(xs),
	}, true
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
