package app

import (
	"github.com/agvkit/loadtrack/internal/pose"
)

// Series is a scalar pose channel over time.
type Series struct {
	Times  []float64
	Values []float64
}

// ChartData holds everything needed to draw one channel panel: the raw
// localization channel as a line and the synchronized samples as markers,
// with shared axis bounds.
type ChartData struct {
	Title  string
	Unit   string
	Raw    Series
	Synced Series

	TimeMin, TimeMax   float64
	ValueMin, ValueMax float64
}

type channelSpec struct {
	name   string
	unit   string
	sample func(pose.Pose2D) float64
}

var channelSpecs = []channelSpec{
	{ChannelX, "m", func(p pose.Pose2D) float64 { return float64(p.X) }},
	{ChannelY, "m", func(p pose.Pose2D) float64 { return float64(p.Y) }},
	{ChannelTheta, "rad", func(p pose.Pose2D) float64 { return float64(p.Orientation) }},
}

// BuildCharts extracts the requested channel (or all three) from the
// archived pose streams.
func BuildCharts(channel string, raw, synced []pose.TimedRobotPose) []ChartData {
	var charts []ChartData
	for _, spec := range channelSpecs {
		if channel != ChannelAll && channel != spec.name {
			continue
		}

		chart := ChartData{
			Title:  spec.name,
			Unit:   spec.unit,
			Raw:    extractSeries(raw, spec.sample),
			Synced: extractSeries(synced, spec.sample),
		}
		chart.computeBounds()
		charts = append(charts, chart)
	}
	return charts
}

func extractSeries(poses []pose.TimedRobotPose, sample func(pose.Pose2D) float64) Series {
	s := Series{
		Times:  make([]float64, len(poses)),
		Values: make([]float64, len(poses)),
	}
	for i, p := range poses {
		s.Times[i] = p.Time
		s.Values[i] = sample(p.Pose)
	}
	return s
}

func (c *ChartData) computeBounds() {
	first := true
	for _, s := range []Series{c.Raw, c.Synced} {
		for i := range s.Times {
			if first {
				c.TimeMin, c.TimeMax = s.Times[i], s.Times[i]
				c.ValueMin, c.ValueMax = s.Values[i], s.Values[i]
				first = false
				continue
			}
			c.TimeMin = min(c.TimeMin, s.Times[i])
			c.TimeMax = max(c.TimeMax, s.Times[i])
			c.ValueMin = min(c.ValueMin, s.Values[i])
			c.ValueMax = max(c.ValueMax, s.Values[i])
		}
	}

	// A flat channel or a single sample still needs a drawable range.
	if c.TimeMax == c.TimeMin {
		c.TimeMax = c.TimeMin + 1
	}
	if c.ValueMax == c.ValueMin {
		c.ValueMin -= 1
		c.ValueMax += 1
	}
}
