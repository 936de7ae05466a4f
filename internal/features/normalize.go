package features

import (
	"math"
	"strconv"
	"strings"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/registry"
)

// Coercion converts one raw cell to a number, NaN when it cannot.
type Coercion func(string) float64

// ColumnCoercion binds a coercion to a column.
type ColumnCoercion struct {
	Column string
	Coerce Coercion
}

var doorStates = map[string]float64{
	"closed": 0,
	"open":   1,
}

var deviceCoercions = map[string][]ColumnCoercion{
	registry.GarageDoor: {{"door_state", DoorState}, {"sphone_signal", Numeric}},
	registry.GPSTracker: {{"latitude", Numeric}, {"longitude", Numeric}},
	registry.Weather:    {{"temperature", Numeric}, {"humidity", Numeric}},
	registry.Thermostat: {{"temp_set", Numeric}, {"temp_actual", Numeric}},
	registry.Fridge:     {{"temp_inside", Numeric}, {"door_open", DoorState}},
}

// Numeric parses a decimal number, NaN on failure.
func Numeric(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// DoorState maps "closed"/"open" in any case to 0/1. Other text is left to Numeric,
// so a value that is already numeric survives and anything else becomes NaN.
func DoorState(s string) float64 {
	if v, ok := doorStates[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v
	}
	return Numeric(s)
}

// CoercionsFor returns the column coercions applied for a device.
func CoercionsFor(device string) []ColumnCoercion {
	return deviceCoercions[device]
}

// Normalize applies the device's coercions, storing each result as a numeric
// column. Unparseable cells become NaN.
func Normalize(device string, f *Frame) {
	for _, cc := range deviceCoercions[device] {
		raw, ok := f.Strings(cc.Column)
		if !ok {
			continue
		}
		values := make([]float64, len(raw))
		for i, s := range raw {
			values[i] = cc.Coerce(s)
		}
		f.SetNumeric(cc.Column, values)
	}
}
