package domain

// Severity scores on the common ranking scale.
const (
	ScoreNone     = 0
	ScoreMinor    = 1
	ScoreModerate = 2
	ScoreSevere   = 3
	ScoreExtreme  = 4
)

// Score maps a warning's native severity onto the common 0–4 scale.
//
//	NINA: Extreme 4 | Severe 3 | Moderate 2 | Minor 1 | anything else 0
//	DWD:  the warning level, clamped to 0–4
func Score(w Warning) int {
	switch w.Variant {
	case VariantNINA:
		return scoreSeverity(w.Severity)
	case VariantDWD:
		return clampScore(w.Level)
	default:
		return ScoreNone
	}
}

func scoreSeverity(s Severity) int {
	switch s {
	case SeverityExtreme:
		return ScoreExtreme
	case SeveritySevere:
		return ScoreSevere
	case SeverityModerate:
		return ScoreModerate
	case SeverityMinor:
		return ScoreMinor
	default:
		return ScoreNone
	}
}

func clampScore(level int) int {
	switch {
	case level < ScoreNone:
		return ScoreNone
	case level > ScoreExtreme:
		return ScoreExtreme
	default:
		return level
	}
}
