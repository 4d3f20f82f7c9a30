package flatten

import "strings"

// DefaultChannelEntries maps well-known channels to short entry names.
// Channels outside the map fall back to a sanitized "json__" name.
var DefaultChannelEntries = map[string]string{
	"/rsense/color/camera_info_restamped": "camera_info",
	"/vectornav/Mag_restamped":            "magnetic_field",
	"/vectornav/Pres_restamped":           "pressure",
	"/vectornav/Temp_restamped":           "temperature",
	"/vectornav/IMU_restamped":            "imu",
}

// Namer resolves a channel to its destination entry name.
type Namer struct {
	overrides map[string]string
}

// NewNamer builds a namer; a nil overrides map uses DefaultChannelEntries.
func NewNamer(overrides map[string]string) *Namer {
	if overrides == nil {
		overrides = DefaultChannelEntries
	}
	return &Namer{overrides: overrides}
}

// EntryName maps a channel to its entry. Unmapped channels get a stable
// derived name with path separators and restamp suffixes stripped.
func (n *Namer) EntryName(channel string) string {
	if name, ok := n.overrides[channel]; ok {
		return name
	}
	name := strings.TrimPrefix(channel, "/")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.TrimSuffix(name, "_restamped")
	return "json__" + name
}
