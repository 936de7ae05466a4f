package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/registry"
)

func TestDoorState(t *testing.T) {
	for _, s := range []string{"open", "OPEN", "  Open ", "\topen\n"} {
		assert.Equal(t, 1.0, DoorState(s), "value %q", s)
	}
	for _, s := range []string{"closed", "Closed", " CLOSED "} {
		assert.Equal(t, 0.0, DoorState(s), "value %q", s)
	}
	for _, s := range []string{"ajar", "", "opened", "nan-ish"} {
		assert.True(t, math.IsNaN(DoorState(s)), "value %q", s)
	}
	assert.Equal(t, 1.0, DoorState("1"))
}

func TestNumeric(t *testing.T) {
	assert.Equal(t, -85.0, Numeric("-85"))
	assert.Equal(t, 21.5, Numeric(" 21.5 "))
	assert.Equal(t, 1e3, Numeric("1e3"))
	assert.True(t, math.IsNaN(Numeric("")))
	assert.True(t, math.IsNaN(Numeric("warm")))
}

func TestNormalizeGarageDoor(t *testing.T) {
	f, err := ReadCSV([]byte("door_state,sphone_signal\nopen,-85\nCLOSED,weak\nstuck,-70\n"))
	require.NoError(t, err)

	Normalize(registry.GarageDoor, f)

	doors, ok := f.Numeric("door_state")
	require.True(t, ok)
	assert.Equal(t, 1.0, doors[0])
	assert.Equal(t, 0.0, doors[1])
	assert.True(t, math.IsNaN(doors[2]))

	signal, ok := f.Numeric("sphone_signal")
	require.True(t, ok)
	assert.Equal(t, -85.0, signal[0])
	assert.True(t, math.IsNaN(signal[1]))
	assert.Equal(t, -70.0, signal[2])

	raw, _ := f.Strings("door_state")
	assert.Equal(t, []string{"open", "CLOSED", "stuck"}, raw)
}

func TestNormalizeOnlyTouchesDeviceColumns(t *testing.T) {
	f, err := ReadCSV([]byte("temp_inside,door_open,humidity\n4.5,open,40\n"))
	require.NoError(t, err)

	Normalize(registry.Fridge, f)

	_, ok := f.Numeric("humidity")
	assert.False(t, ok)
	doors, ok := f.Numeric("door_open")
	require.True(t, ok)
	assert.Equal(t, 1.0, doors[0])
}

func TestCoercionTableCoversEveryDevice(t *testing.T) {
	r := registry.New("")
	for _, p := range r.Devices() {
		coercions := CoercionsFor(p.Name)
		require.Len(t, coercions, 2, p.Name)
		for _, cc := range coercions {
			assert.Contains(t, p.RequiredFeatures, cc.Column, p.Name)
		}
	}
	assert.Empty(t, CoercionsFor("Toaster"))
}
