// Package registry holds the fixed set of supported device profiles.
package registry

import (
	"fmt"
	"path/filepath"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/models"
)

// Device names accepted by Lookup.
const (
	GarageDoor = "Garage Door"
	GPSTracker = "GPS Tracker"
	Weather    = "Weather"
	Thermostat = "Thermostat"
	Fridge     = "Fridge"
)

// Derived columns every profile starts with.
const (
	DateNumeric = "date_numeric"
	TimeNumeric = "time_numeric"
	Label       = "label"
)

type definition struct {
	name     string
	features []string
	artifact string
}

// Declaration order is the order devices are presented to users.
var definitions = []definition{
	{GarageDoor, []string{DateNumeric, TimeNumeric, "door_state", "sphone_signal", Label}, "garage_door_model.json"},
	{GPSTracker, []string{DateNumeric, TimeNumeric, "latitude", "longitude", Label}, "gps_tracker_model.json"},
	{Weather, []string{DateNumeric, TimeNumeric, "temperature", "humidity", Label}, "weather_model.json"},
	{Thermostat, []string{DateNumeric, TimeNumeric, "temp_set", "temp_actual", Label}, "thermostat_model.json"},
	{Fridge, []string{DateNumeric, TimeNumeric, "temp_inside", "door_open", Label}, "fridge_model.json"},
}

// UnknownDeviceError is returned for a device name outside the registry.
type UnknownDeviceError struct {
	Device string
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("unknown device %q", e.Device)
}

// Registry is immutable once built; share it freely between goroutines.
type Registry struct {
	profiles []models.DeviceProfile
	byName   map[string]int
	bySlug   map[string]int
}

// New builds the registry, resolving each model artifact under modelDir.
func New(modelDir string) *Registry {
	r := &Registry{
		profiles: make([]models.DeviceProfile, 0, len(definitions)),
		byName:   make(map[string]int, len(definitions)),
		bySlug:   make(map[string]int, len(definitions)),
	}

	for i, d := range definitions {
		p := models.DeviceProfile{
			Name:             d.name,
			Slug:             models.Slugify(d.name),
			RequiredFeatures: append([]string(nil), d.features...),
			ModelRef:         filepath.Join(modelDir, d.artifact),
		}
		r.profiles = append(r.profiles, p)
		r.byName[p.Name] = i
		r.bySlug[p.Slug] = i
	}

	return r
}

// Lookup returns the profile for an exact device name.
func (r *Registry) Lookup(name string) (models.DeviceProfile, error) {
	i, ok := r.byName[name]
	if !ok {
		return models.DeviceProfile{}, &UnknownDeviceError{Device: name}
	}
	return clone(r.profiles[i]), nil
}

// LookupSlug returns the profile for a slug such as "garage_door".
func (r *Registry) LookupSlug(slug string) (models.DeviceProfile, error) {
	i, ok := r.bySlug[slug]
	if !ok {
		return models.DeviceProfile{}, &UnknownDeviceError{Device: slug}
	}
	return clone(r.profiles[i]), nil
}

// Devices returns every profile in declaration order.
func (r *Registry) Devices() []models.DeviceProfile {
	out := make([]models.DeviceProfile, len(r.profiles))
	for i, p := range r.profiles {
		out[i] = clone(p)
	}
	return out
}

// Names returns the supported device names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.profiles))
	for i, p := range r.profiles {
		out[i] = p.Name
	}
	return out
}

func clone(p models.DeviceProfile) models.DeviceProfile {
	p.RequiredFeatures = p.Features()
	return p
}
