package charts

import (
	"errors"

	"princals-dashboard/analytics"
	"princals-dashboard/db"
	"princals-dashboard/views"
)

// ErrUnknownChart is returned for a chart name not in Names.
var ErrUnknownChart = errors.New("unknown chart")

// Names lists the charts Render knows, in page order.
var Names = []string{"pie", "box", "scatter", "radar", "comparison", "distribution"}

// Render builds the view a chart belongs to and draws it.
func Render(name string, ds *db.Dataset, sel analytics.Selection) ([]byte, error) {
	switch name {
	case "pie":
		return Pie(views.BuildDashboard(ds, sel).Pie)
	case "box":
		return Box(views.BuildDashboard(ds, sel).Box)
	case "scatter":
		return Scatter(views.BuildVisualization(ds, sel).Scatter)
	case "radar":
		return Radar(views.BuildVisualization(ds, sel).Radar)
	case "comparison":
		return Comparison(views.BuildVisualization(ds, sel).Comparison)
	case "distribution":
		return Distribution(views.BuildVisualization(ds, sel).Distribution)
	}
	return nil, ErrUnknownChart
}
