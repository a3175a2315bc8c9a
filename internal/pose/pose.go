package pose

// Pose2D is a position and heading on the warehouse floor plane.
// Orientation is in radians, measured counter-clockwise from the X axis.
type Pose2D struct {
	X           float32 `json:"x"`
	Y           float32 `json:"y"`
	Orientation float32 `json:"orientation"`
}

// TimedRobotPose is a single localization fix produced by the robot.
// Time is seconds since the start of the recording.
type TimedRobotPose struct {
	Time float64 `json:"time"`
	Pose Pose2D  `json:"pose"`
}

// DetectionPose is one load carrier detected by the onboard camera,
// expressed in the robot coordinate system.
type DetectionPose struct {
	Pose       Pose2D  `json:"pose"`
	Type       string  `json:"type,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// TimedDetectionPoses groups the load carriers detected in a single
// camera frame. The detection stream runs on its own clock and is not
// aligned with the localization stream.
type TimedDetectionPoses struct {
	Time       float64         `json:"time"`
	Detections []DetectionPose `json:"detections"`
}

// GlobalPose is a load carrier pose transformed into the global
// (warehouse map) coordinate system.
type GlobalPose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// TimedGlobalPoses holds the global-frame poses computed for one
// detection frame.
type TimedGlobalPoses struct {
	Time  float64      `json:"time"`
	Poses []GlobalPose `json:"poses"`
}
