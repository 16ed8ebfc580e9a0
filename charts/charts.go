// Package charts renders the dashboard view models to PNG.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"princals-dashboard/views"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to plot")

const (
	width  = 8 * vg.Inch
	height = 6 * vg.Inch
)

// Pie draws the cluster share of the filtered students.
func Pie(slices []views.Slice) ([]byte, error) {
	values := make([]chart.Value, 0, len(slices))
	for _, s := range slices {
		if s.Count == 0 {
			continue
		}
		fill := drawing.ColorFromHex(strings.TrimPrefix(s.Color, "#"))
		values = append(values, chart.Value{
			Value: float64(s.Count),
			Label: fmt.Sprintf("%s (%.1f%%)", s.Label, s.Percent),
			Style: chart.Style{FillColor: fill, StrokeColor: drawing.ColorWhite, StrokeWidth: 2},
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := chart.PieChart{
		Title:  "Distribusi Cluster",
		Width:  640,
		Height: 640,
		Values: values,
	}
	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render pie chart: %w", err)
	}
	return buf.Bytes(), nil
}

// Box draws GPA per cluster as box plots.
func Box(groups []views.BoxGroup) ([]byte, error) {
	if len(groups) == 0 {
		return nil, ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Distribusi IPK per Cluster"
	p.X.Label.Text = "CLUSTER"
	p.Y.Label.Text = "IPK"

	labels := make([]string, len(groups))
	for i, g := range groups {
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(i), plotter.Values(g.Values))
		if err != nil {
			return nil, fmt.Errorf("failed to build box for %s: %w", g.Label, err)
		}
		box.FillColor = hexColor(g.Color)
		p.Add(box)
		labels[i] = g.Label
	}
	p.NominalX(labels...)
	p.Add(plotter.NewGrid())
	return save(p, width, height)
}

// Scatter draws the PCA projection. Colour follows the cluster, glyph the
// gender and radius the attendance ratio.
func Scatter(points []views.ScatterPoint) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Distribusi Mahasiswa (PCA)"
	p.X.Label.Text = "PCA_1"
	p.Y.Label.Text = "PCA_2"
	p.Legend.Top = true

	clusters := make(map[int]int)
	genders := make(map[string]int)
	for _, pt := range points {
		clusters[pt.Cluster] = 0
		genders[pt.Gender] = 0
	}
	clusterOrder := sortedInts(clusters)
	genderOrder := sortedStrings(genders)
	for i, c := range clusterOrder {
		clusters[c] = i
	}
	for i, g := range genderOrder {
		genders[g] = i
	}
	shapes := []draw.GlyphDrawer{draw.CircleGlyph{}, draw.TriangleGlyph{}, draw.SquareGlyph{}, draw.PyramidGlyph{}}

	for _, pt := range points {
		s, err := plotter.NewScatter(plotter.XYs{{X: pt.X, Y: pt.Y}})
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = hexColor(views.ColorAt(clusters[pt.Cluster]))
		s.GlyphStyle.Shape = shapes[genders[pt.Gender]%len(shapes)]
		s.GlyphStyle.Radius = vg.Points(2 + 6*math.Max(0, math.Min(1, pt.Attendance)))
		p.Add(s)
	}

	for i, c := range clusterOrder {
		swatch, err := plotter.NewScatter(plotter.XYs{})
		if err != nil {
			return nil, err
		}
		swatch.GlyphStyle.Color = hexColor(views.ColorAt(i))
		swatch.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Legend.Add(views.ClusterLabel(c), swatch)
	}
	for i, g := range genderOrder {
		swatch, err := plotter.NewScatter(plotter.XYs{})
		if err != nil {
			return nil, err
		}
		swatch.GlyphStyle.Shape = shapes[i%len(shapes)]
		p.Legend.Add("JKEL "+g, swatch)
	}
	p.Add(plotter.NewGrid())
	return save(p, 10*vg.Inch, 8*vg.Inch)
}

// Radar draws each cluster's profile on a polar grid. Values beyond the radial
// range are clipped to the rim.
func Radar(r views.Radar) ([]byte, error) {
	if len(r.Series) == 0 || len(r.Axes) < 3 {
		return nil, ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Karakteristik Cluster"
	p.HideAxes()
	p.Legend.Top = true

	n := len(r.Axes)
	at := func(k int, radius float64) plotter.XY {
		theta := math.Pi/2 - 2*math.Pi*float64(k)/float64(n)
		return plotter.XY{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}
	}

	for ring := 1.0; ring <= r.RadialMax; ring++ {
		pts := make(plotter.XYs, n+1)
		for k := 0; k <= n; k++ {
			pts[k] = at(k%n, ring)
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		l.Color = color.Gray{Y: 200}
		p.Add(l)
	}

	spokes := make(plotter.XYs, n)
	for k := range r.Axes {
		spoke, err := plotter.NewLine(plotter.XYs{{}, at(k, r.RadialMax)})
		if err != nil {
			return nil, err
		}
		spoke.Color = color.Gray{Y: 200}
		p.Add(spoke)
		spokes[k] = at(k, r.RadialMax*1.12)
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: spokes, Labels: r.Axes})
	if err != nil {
		return nil, err
	}
	p.Add(labels)

	for _, s := range r.Series {
		pts := make(plotter.XYs, n)
		for k := 0; k < n && k < len(s.Values); k++ {
			pts[k] = at(k, math.Max(0, math.Min(r.RadialMax, s.Values[k])))
		}
		poly, err := plotter.NewPolygon(pts)
		if err != nil {
			return nil, err
		}
		c := hexColor(s.Color)
		poly.Color = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 70}
		poly.LineStyle.Color = c
		poly.LineStyle.Width = vg.Points(2)
		p.Add(poly)
		p.Legend.Add(s.Name, poly)
	}

	lim := r.RadialMax * 1.3
	p.X.Min, p.X.Max = -lim, lim
	p.Y.Min, p.Y.Max = -lim, lim
	return save(p, 8*vg.Inch, 8*vg.Inch)
}

// Comparison draws the per-cluster means as a 2x3 grid of bar charts.
func Comparison(panels []views.Panel) ([]byte, error) {
	bars := 0
	for _, p := range panels {
		bars += len(p.Bars)
	}
	if bars == 0 {
		return nil, ErrNoData
	}
	plots := make([]*plot.Plot, 6)
	for i := range plots {
		if i < len(panels) {
			bp, err := barPlot(panels[i])
			if err != nil {
				return nil, err
			}
			plots[i] = bp
			continue
		}
		plots[i] = emptyPlot()
	}
	return saveGrid(plots, "Perbandingan Cluster")
}

// Distribution draws five histograms split by cluster plus the cluster counts.
func Distribution(grid views.DistributionGrid) ([]byte, error) {
	if len(grid.Counts.Bars) == 0 {
		return nil, ErrNoData
	}
	plots := make([]*plot.Plot, 0, 6)
	for _, h := range grid.Histograms {
		hp, err := histogramPlot(h)
		if err != nil {
			return nil, err
		}
		plots = append(plots, hp)
	}
	counts, err := barPlot(grid.Counts)
	if err != nil {
		return nil, err
	}
	plots = append(plots, counts)
	for len(plots) < 6 {
		plots = append(plots, emptyPlot())
	}
	return saveGrid(plots[:6], "")
}

func barPlot(panel views.Panel) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = panel.Title
	p.Y.Min = 0

	labels := make([]string, len(panel.Bars))
	tops := make(plotter.XYs, len(panel.Bars))
	texts := make([]string, len(panel.Bars))
	var top float64
	for i, b := range panel.Bars {
		bars, err := plotter.NewBarChart(plotter.Values{b.Value}, vg.Points(28))
		if err != nil {
			return nil, fmt.Errorf("failed to build bar %s/%d: %w", panel.Title, b.Cluster, err)
		}
		bars.XMin = float64(i)
		bars.Color = hexColor(b.Color)
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)

		labels[i] = strconv.Itoa(b.Cluster)
		tops[i] = plotter.XY{X: float64(i), Y: b.Value}
		texts[i] = b.Text
		top = math.Max(top, b.Value)
	}
	if len(panel.Bars) > 0 {
		l, err := plotter.NewLabels(plotter.XYLabels{XYs: tops, Labels: texts})
		if err != nil {
			return nil, err
		}
		p.Add(l)
		p.NominalX(labels...)
		p.Y.Max = math.Max(top*1.15, 1)
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

func histogramPlot(h views.Histogram) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = h.Title
	p.X.Label.Text = h.Variable
	p.Legend.Top = true

	for _, s := range h.Series {
		if len(s.Values) == 0 {
			continue
		}
		hist, err := plotter.NewHist(plotter.Values(s.Values), 10)
		if err != nil {
			return nil, fmt.Errorf("failed to build histogram %s: %w", h.Variable, err)
		}
		c := hexColor(s.Color)
		hist.FillColor = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 140}
		hist.LineStyle.Color = c
		p.Add(hist)
		p.Legend.Add(strconv.Itoa(s.Cluster), hist)
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

func emptyPlot() *plot.Plot {
	p := plot.New()
	p.HideAxes()
	return p
}

func save(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode plot: %w", err)
	}
	return buf.Bytes(), nil
}

func saveGrid(plots []*plot.Plot, title string) ([]byte, error) {
	const rows, cols = 2, 3
	grid := make([][]*plot.Plot, rows)
	for r := 0; r < rows; r++ {
		grid[r] = plots[r*cols : (r+1)*cols]
	}

	img := vgimg.New(18*vg.Inch, 10*vg.Inch)
	dc := draw.New(img)
	if title != "" {
		fnt := plot.DefaultFont
		fnt.Size = vg.Points(16)
		dc.FillText(draw.TextStyle{
			Color:   color.Black,
			Font:    fnt,
			Handler: plot.DefaultTextHandler,
			XAlign:  draw.XCenter,
			YAlign:  draw.YTop,
		}, vg.Point{X: dc.Max.X / 2, Y: dc.Max.Y}, title)
		dc = draw.Crop(dc, 0, 0, 0, -vg.Points(24))
	}

	tiles := draw.Tiles{Rows: rows, Cols: cols, PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2, PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2}
	canvases := plot.Align(grid, tiles, dc)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			grid[r][c].Draw(canvases[r][c])
		}
	}

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode grid: %w", err)
	}
	return buf.Bytes(), nil
}

// hexColor parses "#rrggbb". Anything else is grey.
func hexColor(hex string) color.RGBA {
	hex = strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || len(hex) != 6 {
		return color.RGBA{R: 128, G: 128, B: 128, A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

func sortedInts(m map[int]int) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func sortedStrings(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
