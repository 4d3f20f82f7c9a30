// Package flatten decodes structured sensor payloads into compact JSON
// rows for per-channel store entries. Decoding is best effort: a payload
// that fails to decode is skipped for structured output but still counts
// toward episode inclusion upstream.
package flatten

import (
	"encoding/json"
	"strings"

	"github.com/reductstore/ros-reductstore-demo/errors"
)

type vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

type header struct {
	FrameID string `json:"frame_id"`
}

// Row is one flattened message bound for a JSON entry. Fields marshals to
// the row object written into the batch array.
type Row struct {
	Channel string
	TsNs    int64
	Fields  any
}

type imuRow struct {
	TsNs               int64      `json:"ts_ns"`
	FrameID            string     `json:"frame_id"`
	Orientation        quaternion `json:"orientation"`
	AngularVelocity    vector3    `json:"angular_velocity"`
	LinearAcceleration vector3    `json:"linear_acceleration"`
}

type magneticFieldRow struct {
	TsNs          int64   `json:"ts_ns"`
	FrameID       string  `json:"frame_id"`
	MagneticField vector3 `json:"magnetic_field"`
}

type pressureRow struct {
	TsNs     int64   `json:"ts_ns"`
	FrameID  string  `json:"frame_id"`
	Pressure float64 `json:"pressure"`
	Variance float64 `json:"variance"`
}

type temperatureRow struct {
	TsNs        int64   `json:"ts_ns"`
	FrameID     string  `json:"frame_id"`
	Temperature float64 `json:"temperature"`
	Variance    float64 `json:"variance"`
}

type cameraInfoRow struct {
	TsNs            int64  `json:"ts_ns"`
	FrameID         string `json:"frame_id"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	DistortionModel string `json:"distortion_model"`
}

// Flatten converts a structured payload into a row keyed by its declared
// type. It returns ErrUnsupportedPayload for types without a flattener and
// ErrDecodeFailed for payloads that do not parse as their declared type.
func Flatten(channel, declaredType string, payload []byte, tsNs int64) (*Row, error) {
	var fields any

	switch {
	case strings.HasSuffix(declaredType, "sensor_msgs/msg/Imu"):
		var msg struct {
			Header             header     `json:"header"`
			Orientation        quaternion `json:"orientation"`
			AngularVelocity    vector3    `json:"angular_velocity"`
			LinearAcceleration vector3    `json:"linear_acceleration"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "flatten", "Flatten",
				"decode imu payload on "+channel)
		}
		fields = imuRow{
			TsNs:               tsNs,
			FrameID:            msg.Header.FrameID,
			Orientation:        msg.Orientation,
			AngularVelocity:    msg.AngularVelocity,
			LinearAcceleration: msg.LinearAcceleration,
		}

	case strings.HasSuffix(declaredType, "sensor_msgs/msg/MagneticField"):
		var msg struct {
			Header        header  `json:"header"`
			MagneticField vector3 `json:"magnetic_field"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "flatten", "Flatten",
				"decode magnetic field payload on "+channel)
		}
		fields = magneticFieldRow{TsNs: tsNs, FrameID: msg.Header.FrameID, MagneticField: msg.MagneticField}

	case strings.HasSuffix(declaredType, "sensor_msgs/msg/FluidPressure"):
		var msg struct {
			Header        header  `json:"header"`
			FluidPressure float64 `json:"fluid_pressure"`
			Variance      float64 `json:"variance"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "flatten", "Flatten",
				"decode pressure payload on "+channel)
		}
		fields = pressureRow{TsNs: tsNs, FrameID: msg.Header.FrameID, Pressure: msg.FluidPressure, Variance: msg.Variance}

	case strings.HasSuffix(declaredType, "sensor_msgs/msg/Temperature"):
		var msg struct {
			Header      header  `json:"header"`
			Temperature float64 `json:"temperature"`
			Variance    float64 `json:"variance"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "flatten", "Flatten",
				"decode temperature payload on "+channel)
		}
		fields = temperatureRow{TsNs: tsNs, FrameID: msg.Header.FrameID, Temperature: msg.Temperature, Variance: msg.Variance}

	case strings.HasSuffix(declaredType, "sensor_msgs/msg/CameraInfo"):
		var msg struct {
			Header          header `json:"header"`
			Width           int    `json:"width"`
			Height          int    `json:"height"`
			DistortionModel string `json:"distortion_model"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "flatten", "Flatten",
				"decode camera info payload on "+channel)
		}
		fields = cameraInfoRow{
			TsNs:            tsNs,
			FrameID:         msg.Header.FrameID,
			Width:           msg.Width,
			Height:          msg.Height,
			DistortionModel: msg.DistortionModel,
		}

	default:
		return nil, errors.WrapInvalid(errors.ErrUnsupportedPayload, "flatten", "Flatten",
			"flatten "+declaredType)
	}

	return &Row{Channel: channel, TsNs: tsNs, Fields: fields}, nil
}
