package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/agvkit/loadtrack/internal/pose"
	"github.com/agvkit/loadtrack/internal/storage"
)

const (
	archiveDir  = "data"
	archiveFile = "loadtrack.sqlite"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	doc, err := pose.ReadInput(config.InputPath)
	if err != nil {
		return fmt.Errorf("reading capture file '%s': %w", config.InputPath, err)
	}

	logger.Info("capture file loaded",
		slog.String("path", config.InputPath),
		slog.Int("robotPoses", len(doc.RobotPoses)),
		slog.Int("detectionFrames", len(doc.Detections)))

	outputDir := config.Output.Directory
	if outputDir == "" {
		outputDir = filepath.Dir(config.InputPath)
	}
	if err = os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var options []func(*Pipeline)
	if config.Archive.Enabled {
		store, err := createArchive(&config.Archive)
		if err != nil {
			return fmt.Errorf("creating run archive: %w", err)
		}
		defer store.Close()

		options = append(options, WithArchive(store))
	}

	pipeline := NewPipeline(outputDir, logger, options...)
	return pipeline.Run(ctx, config.InputPath, doc)
}

func createArchive(config *ArchiveConfig) (*storage.Store, error) {
	dir := config.DataDirectory
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current working directory: %w", err)
		}
		dir = filepath.Join(wd, archiveDir)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory '%s': %w", dir, err)
	}

	return storage.New(filepath.Join(dir, archiveFile)), nil
}
