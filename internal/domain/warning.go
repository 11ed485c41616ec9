package domain

import (
	"errors"
	"time"
)

// ErrNoSource is returned when neither a NINA entity prefix nor a DWD device is configured.
var ErrNoSource = errors.New("at least one NINA entity prefix or DWD device is required")

// Variant tags which feed a Warning came from. The two feeds share a common
// shape but rank severity differently.
type Variant int

const (
	// VariantNINA is a warning read from a NINA binary sensor (Source A).
	VariantNINA Variant = iota + 1
	// VariantDWD is a warning read from a DWD warning-level sensor (Source B).
	VariantDWD
)

func (v Variant) String() string {
	switch v {
	case VariantNINA:
		return "nina"
	case VariantDWD:
		return "dwd"
	default:
		return "unknown"
	}
}

// MarshalText renders the variant as its lower-case name.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses a variant name; unknown names decode to the zero value.
func (v *Variant) UnmarshalText(b []byte) error {
	switch string(b) {
	case "nina":
		*v = VariantNINA
	case "dwd":
		*v = VariantDWD
	default:
		*v = 0
	}
	return nil
}

// Severity is the CAP severity name NINA publishes.
type Severity string

const (
	SeverityMinor    Severity = "Minor"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
	SeverityExtreme  Severity = "Extreme"
	SeverityUnknown  Severity = "Unknown"
)

// Warning is the common representation of a NINA or DWD warning.
//
// Start and End are zero when the feed did not provide them or provided a value
// that could not be parsed. End holds "expires" for NINA and "end" for DWD.
type Warning struct {
	Variant     Variant   `json:"variant"`
	Headline    string    `json:"headline"`
	Description string    `json:"description"`
	Instruction string    `json:"instruction,omitempty"`
	SourceID    string    `json:"source_id"`
	Start       time.Time `json:"start,omitzero"`
	End         time.Time `json:"end,omitzero"`

	// NINA only.
	Severity Severity `json:"severity,omitempty"`
	Sender   string   `json:"sender,omitempty"`

	// DWD only.
	Level     int  `json:"level,omitempty"`
	EventCode *int `json:"event_code,omitempty"`
}

// IsDWD reports whether the warning carries the DWD identity (numeric level and event code).
func (w Warning) IsDWD() bool {
	return w.Variant == VariantDWD
}

// clone returns a copy that shares no pointers with w.
func (w Warning) clone() Warning {
	if w.EventCode != nil {
		code := *w.EventCode
		w.EventCode = &code
	}
	return w
}

// EntityState is one Home Assistant entity state as read from the REST API.
type EntityState struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// Snapshot is a point-in-time view of the Home Assistant entities the
// collector reads. DeviceEntities maps a device id to the entity ids
// registered on that device.
type Snapshot struct {
	States         map[string]EntityState `json:"states"`
	DeviceEntities map[string][]string    `json:"device_entities,omitempty"`
}

// Sources selects which feeds to collect from.
type Sources struct {
	NINAPrefix string `json:"nina_entity_prefix,omitempty" toml:"nina_entity_prefix"`
	DWDDevice  string `json:"dwd_device,omitempty" toml:"dwd_device"`
}

// Validate returns ErrNoSource when no feed is selected.
func (s Sources) Validate() error {
	if s.NINAPrefix == "" && s.DWDDevice == "" {
		return ErrNoSource
	}
	return nil
}

// Key identifies the source selection, used as the publish key.
func (s Sources) Key() string {
	return s.NINAPrefix + "|" + s.DWDDevice
}

// Collected holds the warnings read from each feed, in feed order.
type Collected struct {
	NINA       []Warning
	DWDCurrent []Warning
	DWDAdvance []Warning
}

// All returns NINA, current DWD and advance DWD warnings concatenated in that order.
func (c Collected) All() []Warning {
	out := make([]Warning, 0, len(c.NINA)+len(c.DWDCurrent)+len(c.DWDAdvance))
	out = append(out, c.NINA...)
	out = append(out, c.DWDCurrent...)
	out = append(out, c.DWDAdvance...)
	return out
}

// Len returns the total number of collected warnings.
func (c Collected) Len() int {
	return len(c.NINA) + len(c.DWDCurrent) + len(c.DWDAdvance)
}
