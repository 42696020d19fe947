package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/teslashibe/go-markerpose/pkg/bridge"
)

// Environment variables read by ApplyEnv.
const (
	EnvCamera             = "POSE_CAMERA"
	EnvCalibration        = "POSE_CALIBRATION"
	EnvRequireCalibration = "POSE_REQUIRE_CALIBRATION"
	EnvOnFailure          = "POSE_ON_FAILURE"
	EnvScaleByDelta       = "POSE_SCALE_BY_DELTA"
	EnvInterval           = "POSE_INTERVAL"
	EnvDictionary         = "POSE_DICTIONARY"
	EnvMarkerLength       = "POSE_MARKER_LENGTH"
	EnvPort               = "POSE_PORT"
	EnvLogLevel           = "POSE_LOG_LEVEL"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from POSE_* variables found by lookup.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}

	if v, ok := get(EnvCamera); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError(EnvCamera, v, err)
		}
		c.Bridge.CameraIndex = n
	}
	if v, ok := get(EnvCalibration); ok {
		c.Bridge.CalibrationFile = v
	}
	if v, ok := get(EnvRequireCalibration); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError(EnvRequireCalibration, v, err)
		}
		c.Bridge.RequireCalibration = b
	}
	if v, ok := get(EnvOnFailure); ok {
		c.Bridge.OnFailure = bridge.FailurePolicy(v)
	}
	if v, ok := get(EnvScaleByDelta); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError(EnvScaleByDelta, v, err)
		}
		c.Bridge.ScaleMoveByDelta = b
	}
	if v, ok := get(EnvInterval); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError(EnvInterval, v, err)
		}
		c.Bridge.FrameInterval = d
	}
	if v, ok := get(EnvDictionary); ok {
		c.Vision.Dictionary = v
	}
	if v, ok := get(EnvMarkerLength); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return envError(EnvMarkerLength, v, err)
		}
		c.Vision.MarkerLength = f
	}
	if v, ok := get(EnvPort); ok {
		c.Server.Port = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.LogLevel = v
	}
	return nil
}

func envError(key, value string, err error) error {
	return fmt.Errorf("config: %s=%q: %w", key, value, err)
}
