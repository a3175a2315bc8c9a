package timesync

import (
	"errors"
	"math"
	"testing"

	"github.com/agvkit/loadtrack/internal/interp"
	"github.com/agvkit/loadtrack/internal/pose"
)

func robotPose(t float64, x, y, orientation float32) pose.TimedRobotPose {
	return pose.TimedRobotPose{
		Time: t,
		Pose: pose.Pose2D{X: x, Y: y, Orientation: orientation},
	}
}

func TestExtract(t *testing.T) {
	poses := []pose.TimedRobotPose{
		robotPose(0.5, 1, 2, 0.1),
		robotPose(1.0, 3, 4, 0.2),
		robotPose(1.5, 5, 6, 0.3),
	}

	ch := Extract(poses)

	if len(ch.Time) != 3 || len(ch.X) != 3 || len(ch.Y) != 3 || len(ch.Orientation) != 3 {
		t.Fatalf("expected 3 samples per channel, got %d/%d/%d/%d",
			len(ch.Time), len(ch.X), len(ch.Y), len(ch.Orientation))
	}
	for i, p := range poses {
		if ch.Time[i] != p.Time {
			t.Errorf("time[%d]: expected %v, got %v", i, p.Time, ch.Time[i])
		}
		if ch.X[i] != float64(p.Pose.X) {
			t.Errorf("x[%d]: expected %v, got %v", i, p.Pose.X, ch.X[i])
		}
		if ch.Y[i] != float64(p.Pose.Y) {
			t.Errorf("y[%d]: expected %v, got %v", i, p.Pose.Y, ch.Y[i])
		}
		if ch.Orientation[i] != float64(p.Pose.Orientation) {
			t.Errorf("orientation[%d]: expected %v, got %v", i, p.Pose.Orientation, ch.Orientation[i])
		}
	}
}

func TestExtract_Empty(t *testing.T) {
	ch := Extract(nil)
	if len(ch.Time) != 0 {
		t.Fatalf("expected empty channels, got %d time samples", len(ch.Time))
	}
}

func TestQueryTimes(t *testing.T) {
	detections := []pose.TimedDetectionPoses{
		{Time: 2.5},
		{Time: 1.0}, // misordered and duplicated timestamps pass through untouched
		{Time: 1.0},
	}

	got := QueryTimes(detections)

	expected := []float64{2.5, 1.0, 1.0}
	if len(got) != len(expected) {
		t.Fatalf("expected %d timestamps, got %d", len(expected), len(got))
	}
	for i, want := range expected {
		if got[i] != want {
			t.Errorf("timestamp %d: expected %v, got %v", i, want, got[i])
		}
	}
}

func TestSynchronize_ConstantSpeed(t *testing.T) {
	// Robot travels along x at constant speed; detections arrive between fixes.
	ch := Extract([]pose.TimedRobotPose{
		robotPose(0, 0, 0, 0),
		robotPose(1, 10, 0, 0),
		robotPose(2, 20, 0, 0),
	})

	synced, err := Synchronize(ch, []float64{0.5, 1.5})
	if err != nil {
		t.Fatalf("Synchronize returned error: %v", err)
	}

	if len(synced) != 2 {
		t.Fatalf("expected 2 synchronized poses, got %d", len(synced))
	}
	expectedX := []float32{5, 15}
	for i, want := range expectedX {
		if synced[i].Pose.X != want {
			t.Errorf("pose %d: expected x=%v, got %v", i, want, synced[i].Pose.X)
		}
	}
}

func TestSynchronize_LengthInvariant(t *testing.T) {
	ch := Extract([]pose.TimedRobotPose{robotPose(0, 1, 2, 3)})

	for _, q := range [][]float64{nil, {0}, {0, 1, 2, 3, 4}} {
		synced, err := Synchronize(ch, q)
		if err != nil {
			t.Fatalf("Synchronize(%d queries) returned error: %v", len(q), err)
		}
		if len(synced) != len(q) {
			t.Errorf("expected %d poses, got %d", len(q), len(synced))
		}
	}
}

func TestSynchronize_OutputTimesMatchQueries(t *testing.T) {
	ch := Extract([]pose.TimedRobotPose{
		robotPose(0, 0, 0, 0),
		robotPose(10, 100, -100, 1),
	})
	queries := []float64{7, 3, 0, 10}

	synced, err := Synchronize(ch, queries)
	if err != nil {
		t.Fatalf("Synchronize returned error: %v", err)
	}
	for i, q := range queries {
		if synced[i].Time != q {
			t.Errorf("pose %d: expected time %v, got %v", i, q, synced[i].Time)
		}
	}
}

func TestSynchronize_AllChannelsInterpolated(t *testing.T) {
	ch := Extract([]pose.TimedRobotPose{
		robotPose(0, 0, 100, -1),
		robotPose(2, 20, 0, 1),
	})

	synced, err := Synchronize(ch, []float64{1})
	if err != nil {
		t.Fatalf("Synchronize returned error: %v", err)
	}

	p := synced[0].Pose
	if math.Abs(float64(p.X)-10) > 1e-6 {
		t.Errorf("expected x=10, got %v", p.X)
	}
	if math.Abs(float64(p.Y)-50) > 1e-6 {
		t.Errorf("expected y=50, got %v", p.Y)
	}
	if math.Abs(float64(p.Orientation)) > 1e-6 {
		t.Errorf("expected orientation=0, got %v", p.Orientation)
	}
}

func TestSynchronize_EmptyRobotStream(t *testing.T) {
	_, err := Synchronize(Extract(nil), []float64{1})
	if !errors.Is(err, interp.ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
}
