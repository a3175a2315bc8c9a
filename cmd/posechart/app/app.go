package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/agvkit/loadtrack/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.New(config.DBPath)
	defer store.Close()

	return renderRun(ctx, store, config, logger)
}

func renderRun(ctx context.Context, store *storage.Store, config *Config, logger *slog.Logger) error {
	runID := config.RunID
	if runID == 0 {
		var err error
		if runID, err = store.LatestRunID(ctx); err != nil {
			return fmt.Errorf("resolving latest run: %w", err)
		}
	}

	run, err := store.Run(ctx, runID)
	if err != nil {
		return fmt.Errorf("loading run %d: %w", runID, err)
	}

	raw, err := store.RobotPoses(ctx, runID, false)
	if err != nil {
		return fmt.Errorf("reading raw robot poses: %w", err)
	}
	synced, err := store.RobotPoses(ctx, runID, true)
	if err != nil {
		return fmt.Errorf("reading synchronized robot poses: %w", err)
	}
	if len(raw) == 0 && len(synced) == 0 {
		return fmt.Errorf("run %d has no archived pose samples", runID)
	}

	logger.Info("run loaded",
		slog.Group("run",
			slog.Int64("id", run.ID),
			slog.String("input", run.InputPath),
			slog.String("rawPoses", humanize.Comma(int64(len(raw)))),
			slog.String("syncedPoses", humanize.Comma(int64(len(synced)))),
		))

	charts := BuildCharts(config.Channel, raw, synced)

	renderer, err := NewChartRenderer(RenderConfig{FontPath: config.FontPath})
	if err != nil {
		return fmt.Errorf("creating chart renderer: %w", err)
	}

	logger.Info("rendering channels",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("channel", config.Channel),
			slog.Int("panels", len(charts)),
		))

	img, err := renderer.Render(charts)
	if err != nil {
		return fmt.Errorf("rendering channels: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}
