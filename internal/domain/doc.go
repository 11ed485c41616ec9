// Package domain reconciles official warnings from the two German warning
// feeds exposed by Home Assistant into one ranked display list.
//
// # Data Sources
//
// NINA (Source A) is the federal civil-protection warning app. The Home
// Assistant integration creates numbered binary sensors per region:
//
//	binary_sensor.<prefix>_1 … binary_sensor.<prefix>_10
//
// A sensor is "on" while it holds a warning. Attributes carry the CAP fields
// headline, description, instruction (older releases: recommended_actions),
// sender, severity, start and expires.
//
// DWD (Source B) is the Deutscher Wetterdienst weather-warnings integration.
// Each configured region is a device with two sensors, found by entity id
// suffix:
//
//	current: _aktuelle_warnstufe | _current_warning_level
//	advance: _vorwarnstufe       | _advance_warning_level
//
// The sensor state is the highest active warning level (0 = none), not a
// count. Warnings are flattened into numbered attributes:
//
//	warning_<i>_headline, warning_<i>_description, warning_<i>_instruction,
//	warning_<i>_level, warning_<i>_type, warning_<i>_start, warning_<i>_end
//
// for i = 1 … 20, with no gaps; the first missing headline ends the list.
// warning_<i>_type is the DWD event code (e.g. 31 thunderstorm, 52 storm gusts)
// and selects the display icon.
//
// # Severity
//
// Both feeds are ranked on one 0–4 scale:
//
//	NINA severity: Minor 1 | Moderate 2 | Severe 3 | Extreme 4 | Unknown 0
//	DWD level:     used as-is (0–4)
//
// # Deduplication
//
// Most DWD warnings also reach NINA, formatted differently: NINA headlines
// carry an "Amtliche Warnung vor …" prefix, and NINA lists instructions as
// "·" bullets on separate lines where DWD uses semicolons. [Normalizer]
// removes those differences. [Reconcile] groups warnings by normalized
// headline, merges members with equal description and instruction into one
// representative spanning all their time ranges, and prefers the DWD identity
// (level, event code, entity) for merged entries.
package domain
