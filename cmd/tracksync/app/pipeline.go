package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/agvkit/loadtrack/internal/pose"
	"github.com/agvkit/loadtrack/internal/storage"
	"github.com/agvkit/loadtrack/internal/timesync"
	"github.com/agvkit/loadtrack/internal/tracking"
)

// Artifact file names, consumed by downstream visualization tooling.
const (
	robotPosesFile       = "robot_poses.json"
	detectionsFile       = "detections.json"
	detectionsOutputFile = "detections_output.json"
)

// WithTracker overrides the tracker implementation.
func WithTracker(t tracking.Tracker) func(*Pipeline) {
	return func(p *Pipeline) {
		p.tracker = t
	}
}

// WithArchive records the run in the given store.
func WithArchive(store *storage.Store) func(*Pipeline) {
	return func(p *Pipeline) {
		p.store = store
	}
}

// Pipeline drives one batch run: synchronize the robot localization
// stream onto detection time, hand both streams to the tracker, and
// persist the artifacts. All side effects of a run live here; the
// synchronization stages are pure.
type Pipeline struct {
	logger    *slog.Logger
	tracker   tracking.Tracker
	store     *storage.Store
	outputDir string
}

// NewPipeline creates a pipeline writing artifacts into outputDir.
func NewPipeline(outputDir string, logger *slog.Logger, options ...func(*Pipeline)) *Pipeline {
	p := Pipeline{
		logger:    logger,
		tracker:   tracking.NewObjectTracker(),
		outputDir: outputDir,
	}

	for _, option := range options {
		option(&p)
	}

	return &p
}

// Run executes the full pipeline over one capture document. Any stage
// failure aborts the run; downstream consumers rely on the artifact
// record count matching the detection count, so there is no partial
// output.
func (p *Pipeline) Run(ctx context.Context, inputPath string, doc *pose.InputDocument) error {
	queryTimes := timesync.QueryTimes(doc.Detections)
	channels := timesync.Extract(doc.RobotPoses)

	synced, err := timesync.Synchronize(channels, queryTimes)
	if err != nil {
		return fmt.Errorf("synchronizing robot poses: %w", err)
	}

	p.logger.Info("synchronized robot localization onto detection time",
		slog.String("robotPoses", humanize.Comma(int64(len(doc.RobotPoses)))),
		slog.String("detectionFrames", humanize.Comma(int64(len(doc.Detections)))))

	if err = pose.WriteRobotPoses(synced, filepath.Join(p.outputDir, robotPosesFile)); err != nil {
		return fmt.Errorf("writing synchronized robot poses: %w", err)
	}
	if err = pose.WriteDetectionPoses(doc.Detections, filepath.Join(p.outputDir, detectionsFile)); err != nil {
		return fmt.Errorf("writing detections: %w", err)
	}

	p.tracker.Update(synced, doc.Detections)
	p.tracker.ProduceDetectionPosesInGlobalCs()
	results := p.tracker.GetLoadCarriersPosesInCsGlobal()

	if err = pose.WriteGlobalPoses(results, filepath.Join(p.outputDir, detectionsOutputFile)); err != nil {
		return fmt.Errorf("writing global poses: %w", err)
	}

	p.logger.Info("tracker results written",
		slog.String("destination", p.outputDir),
		slog.String("resultFrames", humanize.Comma(int64(len(results)))))

	if p.store == nil {
		return nil
	}
	if err = p.archive(ctx, inputPath, doc, synced, results); err != nil {
		return fmt.Errorf("archiving run: %w", err)
	}
	return nil
}

func (p *Pipeline) archive(ctx context.Context, inputPath string, doc *pose.InputDocument, synced []pose.TimedRobotPose, results []pose.TimedGlobalPoses) error {
	runID, err := p.store.CreateRun(ctx, inputPath, len(doc.RobotPoses), len(doc.Detections))
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}

	if err = p.store.StoreRobotPoses(ctx, runID, false, doc.RobotPoses); err != nil {
		return fmt.Errorf("storing raw robot poses: %w", err)
	}
	if err = p.store.StoreRobotPoses(ctx, runID, true, synced); err != nil {
		return fmt.Errorf("storing synchronized robot poses: %w", err)
	}
	if err = p.store.StoreDetections(ctx, runID, doc.Detections); err != nil {
		return fmt.Errorf("storing detections: %w", err)
	}
	if err = p.store.StoreGlobalPoses(ctx, runID, results); err != nil {
		return fmt.Errorf("storing global poses: %w", err)
	}

	p.logger.Info("run archived", slog.Int64("runID", runID))
	return nil
}
