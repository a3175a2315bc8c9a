package storage

import (
	_ "embed"
)

const (
	insertRunSQL = `
INSERT INTO runs (
                  created_at,
                  input_path,
                  robot_pose_count,
                  detection_count)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?)`

	selectRunSQL = `
SELECT
    id,
    created_at,
    input_path,
    robot_pose_count,
    detection_count
FROM runs
WHERE
    id = ?`

	selectLatestRunSQL = `
SELECT
    id
FROM runs
ORDER BY id DESC
LIMIT 1`

	insertRobotPoseSQL = `
INSERT INTO robot_poses (run_id,
                         synchronized,
                         time,
                         x,
                         y,
                         theta)
VALUES (?, ?, ?, ?, ?, ?)`

	selectRobotPosesSQL = `
SELECT
    time,
    x,
    y,
    theta
FROM robot_poses
WHERE
    run_id = ?
    AND synchronized = ?
ORDER BY id`

	insertDetectionSQL = `
INSERT INTO detections (run_id,
                        frame_time,
                        x,
                        y,
                        theta,
                        type,
                        confidence)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	insertGlobalPoseSQL = `
INSERT INTO global_poses (run_id,
                          frame_time,
                          x,
                          y,
                          theta)
VALUES (?, ?, ?, ?, ?)`

	selectGlobalPosesSQL = `
SELECT
    frame_time,
    x,
    y,
    theta
FROM global_poses
WHERE
    run_id = ?
ORDER BY id`
)

//go:embed schema.sql
var schemaSQL string
