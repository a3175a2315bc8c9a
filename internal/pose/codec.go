package pose

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// InputDocument mirrors a recorded sensor capture file: the robot
// localization stream and the load-carrier detection stream, each on
// its own time base.
type InputDocument struct {
	RobotPoses []TimedRobotPose      `json:"robotPoses"`
	Detections []TimedDetectionPoses `json:"detections"`
}

// ReadInput loads a capture file from disk.
func ReadInput(path string) (*InputDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()

	var doc InputDocument
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return &doc, nil
}

// robotPoseRecord is the flattened on-disk form of a synchronized pose.
// Field names are part of the artifact contract consumed by downstream
// visualization tooling.
type robotPoseRecord struct {
	Time  float64 `json:"time"`
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
	Theta float32 `json:"theta"`
}

type robotPosesDocument struct {
	RobotPose []robotPoseRecord `json:"robotPose"`
}

type detectionsDocument struct {
	Detections []TimedDetectionPoses `json:"detections"`
}

type globalPosesDocument struct {
	Detections []TimedGlobalPoses `json:"detections"`
}

// WriteRobotPoses persists synchronized robot poses, one record per
// detection timestamp.
func WriteRobotPoses(poses []TimedRobotPose, path string) error {
	doc := robotPosesDocument{RobotPose: make([]robotPoseRecord, len(poses))}
	for i, p := range poses {
		doc.RobotPose[i] = robotPoseRecord{
			Time:  p.Time,
			X:     p.Pose.X,
			Y:     p.Pose.Y,
			Theta: p.Pose.Orientation,
		}
	}
	return writeJSON(path, doc)
}

// WriteDetectionPoses persists the detection stream unchanged.
func WriteDetectionPoses(detections []TimedDetectionPoses, path string) error {
	return writeJSON(path, detectionsDocument{Detections: detections})
}

// WriteGlobalPoses persists tracker results in the global coordinate system.
func WriteGlobalPoses(results []TimedGlobalPoses, path string) error {
	return writeJSON(path, globalPosesDocument{Detections: results})
}

func writeJSON(path string, doc any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err = enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return nil
}
