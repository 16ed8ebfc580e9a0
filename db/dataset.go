package db

import (
	"slices"
	"sort"

	"princals-dashboard/analytics"
	"princals-dashboard/models"
)

// Dataset is the read-only handle over the loaded tables. It is built once at
// startup and shared by every request; accessors return copies.
type Dataset struct {
	students   []models.Student
	aggregates []models.ClusterAggregate
	detail     *DetailTable
	observed   analytics.Selection
}

// NewDataset wraps already parsed tables. detail may be nil.
func NewDataset(students []models.Student, aggregates []models.ClusterAggregate, detail *DetailTable) *Dataset {
	ds := &Dataset{
		students:   slices.Clone(students),
		aggregates: slices.Clone(aggregates),
		detail:     detail,
	}
	sort.SliceStable(ds.aggregates, func(i, j int) bool {
		return ds.aggregates[i].Cluster < ds.aggregates[j].Cluster
	})
	ds.observed = analytics.Observed(ds.students)
	return ds
}

// Len returns the number of students.
func (d *Dataset) Len() int { return len(d.students) }

// Students returns a copy of the full student table in source order.
func (d *Dataset) Students() []models.Student {
	return slices.Clone(d.students)
}

// Aggregates returns the per-cluster means ordered by cluster id.
func (d *Dataset) Aggregates() []models.ClusterAggregate {
	return slices.Clone(d.aggregates)
}

// Aggregate returns the means of one cluster.
func (d *Dataset) Aggregate(cluster int) (models.ClusterAggregate, bool) {
	for _, a := range d.aggregates {
		if a.Cluster == cluster {
			return a, true
		}
	}
	return models.ClusterAggregate{}, false
}

// ClusterIDs returns the ids present in the aggregate table, ascending.
func (d *Dataset) ClusterIDs() []int {
	ids := make([]int, len(d.aggregates))
	for i, a := range d.aggregates {
		ids[i] = a.Cluster
	}
	return ids
}

// HasMembers reports whether the aggregate table carries member counts.
func (d *Dataset) HasMembers() bool {
	return len(d.aggregates) > 0 && d.aggregates[0].HasMembers
}

// Detail returns the extended statistics row of a cluster, if any.
func (d *Dataset) Detail(cluster int) ([]models.DetailField, bool) {
	if d.detail == nil {
		return nil, false
	}
	return d.detail.Row(cluster)
}

// Observed returns every distinct filter value in the student table. It is the
// default filter selection.
func (d *Dataset) Observed() analytics.Selection {
	return analytics.Selection{
		Clusters: slices.Clone(d.observed.Clusters),
		Cohorts:  slices.Clone(d.observed.Cohorts),
		Genders:  slices.Clone(d.observed.Genders),
	}
}
