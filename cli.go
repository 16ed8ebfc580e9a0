package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"princals-dashboard/analytics"
	"princals-dashboard/db"
	"princals-dashboard/views"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print headline metrics and the cluster distribution",
	Example: `  dashboard summary
  dashboard summary --cluster 0,2 --gender P`,
	RunE: runSummary,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the explorer table as CSV",
	Example: `  dashboard export --sort IPK --out data_mahasiswa.csv
  dashboard export --q budi --cluster 1`,
	RunE: runExport,
}

func init() {
	for _, cmd := range []*cobra.Command{summaryCmd, exportCmd} {
		cmd.Flags().IntSlice("cluster", nil, "Clusters to include (default: all)")
		cmd.Flags().StringSlice("cohort", nil, "Cohorts (ANGKATAN) to include (default: all)")
		cmd.Flags().StringSlice("gender", nil, "Genders (JKEL) to include (default: all)")
	}
	exportCmd.Flags().String("q", "", "Case-insensitive name filter")
	exportCmd.Flags().String("sort", analytics.SortGPA, "Sort column, largest first")
	exportCmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")
}

// selectionFlags overrides the parts of defaults whose flag was given.
func selectionFlags(cmd *cobra.Command, defaults analytics.Selection) (analytics.Selection, error) {
	sel := defaults
	flags := cmd.Flags()
	if flags.Changed("cluster") {
		v, err := flags.GetIntSlice("cluster")
		if err != nil {
			return sel, err
		}
		sel.Clusters = v
	}
	if flags.Changed("cohort") {
		v, err := flags.GetStringSlice("cohort")
		if err != nil {
			return sel, err
		}
		sel.Cohorts = make([]string, len(v))
		for i, c := range v {
			sel.Cohorts[i] = db.NormalizeLabel(c)
		}
	}
	if flags.Changed("gender") {
		v, err := flags.GetStringSlice("gender")
		if err != nil {
			return sel, err
		}
		sel.Genders = v
	}
	return sel, nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	ds, service, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	defer closeService(service)
	sel, err := selectionFlags(cmd, ds.Observed())
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), views.BuildDashboard(ds, sel))
	return nil
}

func printSummary(w io.Writer, d views.Dashboard) {
	fmt.Fprintln(w, d.Sidebar.Info())

	metrics := tablewriter.NewWriter(w)
	metrics.SetHeader([]string{"Metrik", "Nilai"})
	for _, m := range d.Metrics {
		metrics.Append([]string{m.Label, m.Value})
	}
	metrics.Render()

	dist := tablewriter.NewWriter(w)
	dist.SetHeader([]string{"Cluster", "Profil", "Jumlah", "Persentase"})
	for _, b := range d.Interpretations {
		dist.Append([]string{
			strconv.Itoa(b.Cluster),
			b.Interpretation.Title,
			strconv.Itoa(b.Count),
			b.PercentText,
		})
	}
	dist.Render()
}

func runExport(cmd *cobra.Command, args []string) error {
	ds, service, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	defer closeService(service)
	sel, err := selectionFlags(cmd, ds.Observed())
	if err != nil {
		return err
	}
	q, _ := cmd.Flags().GetString("q")
	sortBy, _ := cmd.Flags().GetString("sort")
	out, _ := cmd.Flags().GetString("out")

	ex, err := views.BuildExplorer(ds, sel, q, sortBy)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}
	if err := views.WriteCSV(w, ex.Rows); err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", ex.Count, out)
	}
	return nil
}
