// Package timesync aligns the robot localization stream onto the
// timestamps of the load-carrier detection stream.
package timesync

import (
	"fmt"

	"github.com/agvkit/loadtrack/internal/interp"
	"github.com/agvkit/loadtrack/internal/pose"
)

// Channels holds the robot pose stream decomposed into parallel scalar
// series. All slices have the same length and preserve stream order.
type Channels struct {
	Time        []float64
	X           []float64
	Y           []float64
	Orientation []float64
}

// Extract decomposes a robot pose stream into per-channel series in a
// single pass. No filtering, no deduplication.
func Extract(poses []pose.TimedRobotPose) Channels {
	ch := Channels{
		Time:        make([]float64, len(poses)),
		X:           make([]float64, len(poses)),
		Y:           make([]float64, len(poses)),
		Orientation: make([]float64, len(poses)),
	}
	for i, p := range poses {
		ch.Time[i] = p.Time
		ch.X[i] = float64(p.Pose.X)
		ch.Y[i] = float64(p.Pose.Y)
		ch.Orientation[i] = float64(p.Pose.Orientation)
	}
	return ch
}

// QueryTimes returns the detection timestamps in stream order. The
// result is the common reference grid for all interpolated channels.
func QueryTimes(detections []pose.TimedDetectionPoses) []float64 {
	times := make([]float64, len(detections))
	for i, d := range detections {
		times[i] = d.Time
	}
	return times
}

// Synchronize resamples the x, y and orientation channels onto the
// query timestamps and reassembles them into robot poses, one per
// query timestamp, in query order. The three channels are interpolated
// independently against the same time base.
//
// Pose fields are narrowed from float64 to float32 with Go's standard
// conversion (round to nearest even), identically for all channels.
func Synchronize(ch Channels, queryTimes []float64) ([]pose.TimedRobotPose, error) {
	x, err := interp.Linear(ch.Time, ch.X, queryTimes)
	if err != nil {
		return nil, fmt.Errorf("interpolating x channel: %w", err)
	}
	y, err := interp.Linear(ch.Time, ch.Y, queryTimes)
	if err != nil {
		return nil, fmt.Errorf("interpolating y channel: %w", err)
	}
	orientation, err := interp.Linear(ch.Time, ch.Orientation, queryTimes)
	if err != nil {
		return nil, fmt.Errorf("interpolating orientation channel: %w", err)
	}

	synced := make([]pose.TimedRobotPose, len(queryTimes))
	for i, t := range queryTimes {
		synced[i] = pose.TimedRobotPose{
			Time: t,
			Pose: pose.Pose2D{
				X:           float32(x[i]),
				Y:           float32(y[i]),
				Orientation: float32(orientation[i]),
			},
		}
	}
	return synced, nil
}
