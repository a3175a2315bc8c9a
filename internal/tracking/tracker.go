// Package tracking computes load-carrier poses in the global coordinate
// system from time-synchronized robot poses and detections.
package tracking

import (
	"math"
	"slices"

	"github.com/agvkit/loadtrack/internal/pose"
)

// Tracker consumes synchronized robot poses together with the detection
// stream and produces load-carrier poses in the global coordinate
// system. The three operations form a fixed protocol: Update, then
// ProduceDetectionPosesInGlobalCs, then GetLoadCarriersPosesInCsGlobal.
type Tracker interface {
	Update(robotPoses []pose.TimedRobotPose, detections []pose.TimedDetectionPoses)
	ProduceDetectionPosesInGlobalCs()
	GetLoadCarriersPosesInCsGlobal() []pose.TimedGlobalPoses
}

// ObjectTracker transforms each detection from the robot frame into the
// global frame using the synchronized robot pose at the same timestamp.
// Robot poses and detection frames are matched by index, which is why
// the robot stream must already be resampled onto detection time.
type ObjectTracker struct {
	robotPoses []pose.TimedRobotPose
	detections []pose.TimedDetectionPoses
	results    []pose.TimedGlobalPoses
}

var _ Tracker = (*ObjectTracker)(nil)

// NewObjectTracker returns a tracker with no recorded state.
func NewObjectTracker() *ObjectTracker {
	return &ObjectTracker{}
}

// Update records the synchronized input for the next production pass.
// Inputs are copied; the caller keeps ownership of its slices.
func (t *ObjectTracker) Update(robotPoses []pose.TimedRobotPose, detections []pose.TimedDetectionPoses) {
	t.robotPoses = slices.Clone(robotPoses)
	t.detections = slices.Clone(detections)
	t.results = nil
}

// ProduceDetectionPosesInGlobalCs computes the global-frame pose of
// every detection. Each detection frame pairs with the robot pose at
// the same index; extra records on either stream are ignored.
func (t *ObjectTracker) ProduceDetectionPosesInGlobalCs() {
	n := min(len(t.robotPoses), len(t.detections))

	results := make([]pose.TimedGlobalPoses, n)
	for i := 0; i < n; i++ {
		robot := t.robotPoses[i].Pose
		frame := t.detections[i]

		sin, cos := math.Sincos(float64(robot.Orientation))
		poses := make([]pose.GlobalPose, len(frame.Detections))
		for j, d := range frame.Detections {
			dx, dy := float64(d.Pose.X), float64(d.Pose.Y)
			poses[j] = pose.GlobalPose{
				X:     float64(robot.X) + dx*cos - dy*sin,
				Y:     float64(robot.Y) + dx*sin + dy*cos,
				Theta: normalizeAngle(float64(robot.Orientation) + float64(d.Pose.Orientation)),
			}
		}

		results[i] = pose.TimedGlobalPoses{Time: frame.Time, Poses: poses}
	}

	t.results = results
}

// GetLoadCarriersPosesInCsGlobal returns the results of the last
// production pass, or nil if none has run since the last Update.
func (t *ObjectTracker) GetLoadCarriersPosesInCsGlobal() []pose.TimedGlobalPoses {
	return t.results
}

// normalizeAngle wraps an angle into (-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
