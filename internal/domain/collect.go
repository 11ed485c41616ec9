package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// ninaSlots is the number of numbered NINA sensors checked per prefix.
	ninaSlots = 10
	// dwdSlots is the highest warning_<i>_* attribute index read from a DWD sensor.
	dwdSlots = 20
)

var (
	dwdCurrentSuffixes = []string{"_aktuelle_warnstufe", "_current_warning_level"}
	dwdAdvanceSuffixes = []string{"_vorwarnstufe", "_advance_warning_level"}

	timestampLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
	}
)

// Collect reads NINA and DWD warnings for the selected sources from a snapshot.
// Missing entities, switched-off sensors and attribute gaps yield fewer
// warnings; Collect never fails.
func Collect(snap Snapshot, src Sources) Collected {
	var c Collected
	if src.NINAPrefix != "" {
		c.NINA = CollectNINA(snap, src.NINAPrefix)
	}
	if src.DWDDevice != "" {
		current, advance := ResolveDWDEntities(snap, src.DWDDevice)
		c.DWDCurrent = CollectDWD(snap, current)
		c.DWDAdvance = CollectDWD(snap, advance)
	}
	return c
}

// CollectNINA reads the numbered NINA sensors <prefix>_1 … <prefix>_10. A
// sensor contributes a warning when it is "on" and has a headline.
func CollectNINA(snap Snapshot, prefix string) []Warning {
	var warnings []Warning
	for i := 1; i <= ninaSlots; i++ {
		entityID := fmt.Sprintf("%s_%d", prefix, i)
		st, ok := snap.States[entityID]
		if !ok || st.State != "on" {
			continue
		}
		headline := attrString(st.Attributes, "headline")
		if headline == "" {
			continue
		}
		instruction := attrString(st.Attributes, "instruction")
		if instruction == "" {
			instruction = attrString(st.Attributes, "recommended_actions")
		}
		warnings = append(warnings, Warning{
			Variant:     VariantNINA,
			Headline:    headline,
			Description: attrString(st.Attributes, "description"),
			Instruction: instruction,
			SourceID:    entityID,
			Start:       parseTimestamp(attrString(st.Attributes, "start")),
			End:         parseTimestamp(attrString(st.Attributes, "expires")),
			Severity:    Severity(attrString(st.Attributes, "severity")),
			Sender:      attrString(st.Attributes, "sender"),
		})
	}
	return warnings
}

// ResolveDWDEntities finds the current and advance warning-level sensors
// registered on a DWD device, matching entity ids by suffix.
func ResolveDWDEntities(snap Snapshot, deviceID string) (current, advance string) {
	if deviceID == "" {
		return "", ""
	}
	ids := append([]string(nil), snap.DeviceEntities[deviceID]...)
	sort.Strings(ids)
	for _, id := range ids {
		switch {
		case hasAnySuffix(id, dwdCurrentSuffixes):
			current = id
		case hasAnySuffix(id, dwdAdvanceSuffixes):
			advance = id
		}
	}
	return current, advance
}

// CollectDWD reads warning_<i>_* attribute bundles from a DWD warning-level
// sensor. The sensor state is the highest active level, not a count, so
// reading stops at the first index without a headline.
func CollectDWD(snap Snapshot, entityID string) []Warning {
	if entityID == "" {
		return nil
	}
	st, ok := snap.States[entityID]
	if !ok || !dwdActive(st.State) {
		return nil
	}

	var warnings []Warning
	for i := 1; i <= dwdSlots; i++ {
		attr := func(name string) string { return fmt.Sprintf("warning_%d_%s", i, name) }

		headline := attrString(st.Attributes, attr("headline"))
		if headline == "" {
			break
		}
		level, _ := attrInt(st.Attributes, attr("level"))
		w := Warning{
			Variant:     VariantDWD,
			Headline:    headline,
			Description: attrString(st.Attributes, attr("description")),
			Instruction: attrString(st.Attributes, attr("instruction")),
			SourceID:    entityID,
			Start:       parseTimestamp(attrString(st.Attributes, attr("start"))),
			End:         parseTimestamp(attrString(st.Attributes, attr("end"))),
			Level:       level,
		}
		if code, ok := attrInt(st.Attributes, attr("type")); ok {
			w.EventCode = &code
		}
		warnings = append(warnings, w)
	}
	return warnings
}

func dwdActive(state string) bool {
	switch strings.TrimSpace(state) {
	case "", "0", "unavailable", "unknown":
		return false
	default:
		return true
	}
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

// attrString returns a string attribute, formatting numbers; other types yield "".
func attrString(attrs map[string]any, key string) string {
	switch v := attrs[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// attrInt returns an integral attribute. Home Assistant serializes numbers as
// JSON numbers, but some integrations store them as strings.
func attrInt(attrs map[string]any, key string) (int, bool) {
	switch v := attrs[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// parseTimestamp parses an ISO-8601 timestamp. Empty or malformed input
// yields the zero time, which the reconciler treats as absent.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
