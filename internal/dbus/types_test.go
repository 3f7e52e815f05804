package dbus

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"

	"github.com/scrawl-tools/scrawl/internal/model"
)

func TestRemoveReasonString(t *testing.T) {
	tests := []struct {
		reason   RemoveReason
		expected string
	}{
		{RemoveReasonResolved, "resolved"},
		{RemoveReasonArchived, "archived"},
		{RemoveReasonRemoved, "removed"},
		{RemoveReasonReplaced, "replaced"},
		{RemoveReason(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.reason.String())
		})
	}
}

func TestAnnotateRequestPriority(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected int
	}{
		{
			name:     "no hint",
			hints:    nil,
			expected: model.PriorityNormal,
		},
		{
			name:     "low priority byte",
			hints:    map[string]dbus.Variant{"priority": dbus.MakeVariant(byte(0))},
			expected: model.PriorityLow,
		},
		{
			name:     "high priority int32",
			hints:    map[string]dbus.Variant{"priority": dbus.MakeVariant(int32(2))},
			expected: model.PriorityHigh,
		},
		{
			name:     "uint32 value",
			hints:    map[string]dbus.Variant{"priority": dbus.MakeVariant(uint32(1))},
			expected: model.PriorityNormal,
		},
		{
			name:     "out of range returns normal",
			hints:    map[string]dbus.Variant{"priority": dbus.MakeVariant(int32(7))},
			expected: model.PriorityNormal,
		},
		{
			name:     "wrong type returns normal",
			hints:    map[string]dbus.Variant{"priority": dbus.MakeVariant("high")},
			expected: model.PriorityNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &AnnotateRequest{Hints: tt.hints}
			assert.Equal(t, tt.expected, r.Priority())
		})
	}
}

func TestAnnotateRequestMonitor(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected int
	}{
		{
			name:     "no hint",
			hints:    nil,
			expected: 0,
		},
		{
			name:     "int32 value",
			hints:    map[string]dbus.Variant{"monitor": dbus.MakeVariant(int32(1))},
			expected: 1,
		},
		{
			name:     "wrong type defaults to primary",
			hints:    map[string]dbus.Variant{"monitor": dbus.MakeVariant("DP-1")},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &AnnotateRequest{Hints: tt.hints}
			assert.Equal(t, tt.expected, r.Monitor())
		})
	}
}

func TestAnnotateRequestColor(t *testing.T) {
	r := &AnnotateRequest{
		Hints: map[string]dbus.Variant{
			"color": dbus.MakeVariant("#ff4400"),
		},
	}
	assert.Equal(t, "#ff4400", r.Color())

	r.Hints = nil
	assert.Equal(t, "", r.Color())
}

func TestAnnotateRequestSource(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected string
	}{
		{
			name:     "no hint defaults to dbus",
			hints:    nil,
			expected: "dbus",
		},
		{
			name:     "cli source",
			hints:    map[string]dbus.Variant{"source": dbus.MakeVariant("cli")},
			expected: "cli",
		},
		{
			name:     "empty string defaults to dbus",
			hints:    map[string]dbus.Variant{"source": dbus.MakeVariant("")},
			expected: "dbus",
		},
		{
			name:     "wrong type defaults to dbus",
			hints:    map[string]dbus.Variant{"source": dbus.MakeVariant(1)},
			expected: "dbus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &AnnotateRequest{Hints: tt.hints}
			assert.Equal(t, tt.expected, r.Source())
		})
	}
}

func TestAnnotateRequestTag(t *testing.T) {
	r := &AnnotateRequest{
		Hints: map[string]dbus.Variant{
			"tag": dbus.MakeVariant("layout-review"),
		},
	}
	assert.Equal(t, "layout-review", r.Tag())

	r.Hints = nil
	assert.Equal(t, "", r.Tag())
}

func TestAnnotateRequestSoundFile(t *testing.T) {
	r := &AnnotateRequest{
		Hints: map[string]dbus.Variant{
			"sound-file": dbus.MakeVariant("/usr/share/sounds/click.wav"),
		},
	}
	assert.Equal(t, "/usr/share/sounds/click.wav", r.SoundFile())

	r.Hints = nil
	assert.Equal(t, "", r.SoundFile())
}

func TestAnnotateRequestSuppressSound(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected bool
	}{
		{
			name:     "no hint",
			hints:    nil,
			expected: false,
		},
		{
			name:     "suppress true",
			hints:    map[string]dbus.Variant{"suppress-sound": dbus.MakeVariant(true)},
			expected: true,
		},
		{
			name:     "wrong type",
			hints:    map[string]dbus.Variant{"suppress-sound": dbus.MakeVariant("yes")},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &AnnotateRequest{Hints: tt.hints}
			assert.Equal(t, tt.expected, r.SuppressSound())
		})
	}
}

func TestAnnotateRequestTransient(t *testing.T) {
	r := &AnnotateRequest{
		Hints: map[string]dbus.Variant{
			"transient": dbus.MakeVariant(true),
		},
	}
	assert.True(t, r.Transient())

	r.Hints = nil
	assert.False(t, r.Transient())
}

func TestAnnotateRequestOpenEditor(t *testing.T) {
	r := &AnnotateRequest{
		Hints: map[string]dbus.Variant{
			"open-editor": dbus.MakeVariant(true),
		},
	}
	assert.True(t, r.OpenEditor())

	r.Hints = nil
	assert.False(t, r.OpenEditor())
}

func TestDefaultServerInfo(t *testing.T) {
	info := DefaultServerInfo()
	assert.Equal(t, "scrawld", info.Name)
	assert.Equal(t, "scrawl", info.Vendor)
	assert.Equal(t, "1", info.ProtoVersion)
	assert.NotEmpty(t, info.Version)
}

func TestServerCapabilities(t *testing.T) {
	assert.Contains(t, ServerCapabilities, "note")
	assert.Contains(t, ServerCapabilities, "priority")
	assert.Contains(t, ServerCapabilities, "tag")
	assert.Contains(t, ServerCapabilities, "persistence")
	assert.Contains(t, ServerCapabilities, "sound")
}
