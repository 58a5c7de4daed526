package device

import "time"

// DeviceRecord represents a known device in the diagnostic session.
//
// Records are owned by the Registry: upserted on discovery or refresh and
// replaced wholesale on a full re-sync, never partially deleted
// mid-session.
type DeviceRecord struct {
	// Identity
	ID   string `json:"id"`
	Name string `json:"name"`

	// Room is the room the device is assigned to (free text, may be empty).
	Room string `json:"room,omitempty"`

	// Capabilities lists what the device can do.
	Capabilities []Capability `json:"capabilities"`

	// Online is the liveness flag from the last refresh.
	Online bool `json:"online"`

	// LastSeen is when the device last reported (UTC).
	LastSeen time.Time `json:"last_seen"`

	// Metadata
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
}

// Copy returns an independent copy of the record.
// The capabilities slice is cloned so modifications to the copy do not
// affect registry state.
func (d DeviceRecord) Copy() DeviceRecord {
	cpy := d
	if d.Capabilities != nil {
		cpy.Capabilities = make([]Capability, len(d.Capabilities))
		copy(cpy.Capabilities, d.Capabilities)
	}
	return cpy
}

// HasCapability reports whether the device lists the given capability.
func (d DeviceRecord) HasCapability(cap Capability) bool {
	for _, c := range d.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// Capability represents what a device can do.
type Capability string

// Control capabilities.
const (
	CapOnOff    Capability = "on_off"
	CapDim      Capability = "dim"
	CapPosition Capability = "position"
	CapSpeed    Capability = "speed"
)

// Reading capabilities.
const (
	CapTemperatureRead Capability = "temperature_read"
	CapHumidityRead    Capability = "humidity_read"
	CapPowerRead       Capability = "power_read"
	CapEnergyRead      Capability = "energy_read"
)

// Detection capabilities.
const (
	CapMotionDetect   Capability = "motion_detect"
	CapPresenceDetect Capability = "presence_detect"
	CapContactState   Capability = "contact_state"
	CapLeakDetect     Capability = "leak_detect"
)

// Security capabilities.
const (
	CapLockUnlock Capability = "lock_unlock"
	CapArmDisarm  Capability = "arm_disarm"
)

// AllCapabilities returns all valid capability values.
func AllCapabilities() []Capability {
	return []Capability{
		CapOnOff, CapDim, CapPosition, CapSpeed,
		CapTemperatureRead, CapHumidityRead, CapPowerRead, CapEnergyRead,
		CapMotionDetect, CapPresenceDetect, CapContactState, CapLeakDetect,
		CapLockUnlock, CapArmDisarm,
	}
}
