package models

import "strings"

// DeviceProfile describes one supported IoT device type: the columns its classifier
// needs, in the order the classifier was trained on, and where its artifact lives.
type DeviceProfile struct {
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	RequiredFeatures []string `json:"required_features"`
	ModelRef         string   `json:"-"`
}

// Features returns a copy of the required feature list.
func (p DeviceProfile) Features() []string {
	out := make([]string, len(p.RequiredFeatures))
	copy(out, p.RequiredFeatures)
	return out
}

// Slugify turns a device name into its lower_snake form: "Garage Door" -> "garage_door".
func Slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
