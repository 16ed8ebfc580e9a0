package analytics

import (
	"sort"
	"strconv"

	"princals-dashboard/models"
)

// Selection is the sidebar filter state. A row passes when its cluster, cohort
// and gender are each in the corresponding list (OR within a dimension, AND
// across dimensions). An empty list selects nothing.
type Selection struct {
	Clusters []int    `json:"clusters"`
	Cohorts  []string `json:"cohorts"`
	Genders  []string `json:"genders"`
}

// Observed returns every distinct cluster, cohort and gender in students, sorted.
// It is the default Selection.
func Observed(students []models.Student) Selection {
	clusters := make(map[int]bool)
	cohorts := make(map[string]bool)
	genders := make(map[string]bool)
	for _, s := range students {
		clusters[s.Cluster] = true
		cohorts[s.Cohort] = true
		genders[s.Gender] = true
	}

	sel := Selection{
		Clusters: make([]int, 0, len(clusters)),
		Cohorts:  make([]string, 0, len(cohorts)),
		Genders:  make([]string, 0, len(genders)),
	}
	for c := range clusters {
		sel.Clusters = append(sel.Clusters, c)
	}
	for c := range cohorts {
		sel.Cohorts = append(sel.Cohorts, c)
	}
	for g := range genders {
		sel.Genders = append(sel.Genders, g)
	}
	sort.Ints(sel.Clusters)
	SortLabels(sel.Cohorts)
	sort.Strings(sel.Genders)
	return sel
}

// Filter returns the rows matched by sel, in source order.
func Filter(students []models.Student, sel Selection) []models.Student {
	clusters := make(map[int]bool, len(sel.Clusters))
	for _, c := range sel.Clusters {
		clusters[c] = true
	}
	cohorts := toSet(sel.Cohorts)
	genders := toSet(sel.Genders)

	out := make([]models.Student, 0, len(students))
	for _, s := range students {
		if clusters[s.Cluster] && cohorts[s.Cohort] && genders[s.Gender] {
			out = append(out, s)
		}
	}
	return out
}

// OfCluster returns the rows assigned to cluster id.
func OfCluster(students []models.Student, id int) []models.Student {
	out := make([]models.Student, 0)
	for _, s := range students {
		if s.Cluster == id {
			out = append(out, s)
		}
	}
	return out
}

// SortLabels sorts numerically when every label is a number, lexically otherwise.
func SortLabels(labels []string) {
	numeric := true
	for _, l := range labels {
		if _, err := strconv.ParseFloat(l, 64); err != nil {
			numeric = false
			break
		}
	}
	if !numeric {
		sort.Strings(labels)
		return
	}
	sort.Slice(labels, func(i, j int) bool {
		a, _ := strconv.ParseFloat(labels[i], 64)
		b, _ := strconv.ParseFloat(labels[j], 64)
		return a < b
	})
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
