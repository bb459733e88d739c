package server

import (
	"fmt"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/senselab/hindcast/dashboard"
)

// gap is the echarts marker for a missing sample, leaving a hole in the line
// instead of dropping to zero.
const gap = "-"

// overlayChart renders one view as a multi-line chart: observed history up to
// the cutoff, the forecast beyond it, and any held-out actuals on the same
// axis.
func overlayChart(view *dashboard.View) *charts.Line {
	title := fmt.Sprintf("%s / %s", view.Room, view.Meta.DisplayName)
	subtitle := fmt.Sprintf("model %s, cutoff %s", view.Model, view.Cutoff.Format(time.RFC3339))
	if view.Validation != nil && view.Validation.Defined {
		subtitle = fmt.Sprintf("%s, MAE %.2f, RMSE %.2f", subtitle, view.Validation.MAE, view.Validation.RMSE)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	nHist := len(view.History)
	nFuture := len(view.Forecast)

	axis := make([]string, 0, nHist+nFuture)
	histData := make([]opts.LineData, 0, nHist+nFuture)
	forecastData := make([]opts.LineData, 0, nHist+nFuture)
	actualData := make([]opts.LineData, 0, nHist+nFuture)

	actuals := make(map[int64]float64, len(view.ActualFuture))
	for _, o := range view.ActualFuture {
		actuals[o.Timestamp.Round(view.Interval).UnixNano()] = o.Value
	}

	for _, o := range view.History {
		axis = append(axis, o.Timestamp.Format("2006-01-02 15:04"))
		histData = append(histData, opts.LineData{Value: o.Value})
		forecastData = append(forecastData, opts.LineData{Value: gap})
		actualData = append(actualData, opts.LineData{Value: gap})
	}
	for _, p := range view.Forecast {
		axis = append(axis, p.Timestamp.Format("2006-01-02 15:04"))
		histData = append(histData, opts.LineData{Value: gap})
		forecastData = append(forecastData, opts.LineData{Value: p.Predicted})

		if v, ok := actuals[p.Timestamp.Round(view.Interval).UnixNano()]; ok {
			actualData = append(actualData, opts.LineData{Value: v})
		} else {
			actualData = append(actualData, opts.LineData{Value: gap})
		}
	}

	line.SetXAxis(axis).
		AddSeries("History", histData, charts.WithItemStyleOpts(opts.ItemStyle{Color: view.Meta.Color})).
		AddSeries("Forecast", forecastData).
		AddSeries("Actual", actualData)
	return line
}
