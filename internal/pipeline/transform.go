package pipeline

import (
	"context"

	"github.com/couchcryptid/weather-warning-service/internal/domain"
)

// translateBoard replaces the texts of every board warning with their
// translation. Scores, colors and icons do not depend on text and are kept.
func translateBoard(ctx context.Context, t Translator, lang string, b domain.Board) domain.Board {
	b.Current = translateSection(ctx, t, lang, b.Current)
	b.Advance = translateSection(ctx, t, lang, b.Advance)
	return b
}

func translateSection(ctx context.Context, t Translator, lang string, section []domain.Display) []domain.Display {
	if len(section) == 0 {
		return section
	}
	warnings := make([]domain.Warning, len(section))
	for i, d := range section {
		warnings[i] = d.Warning
	}

	translated := t.Translate(ctx, lang, warnings)

	out := make([]domain.Display, len(section))
	for i, d := range section {
		if i < len(translated) {
			d.Warning = translated[i]
		}
		out[i] = d
	}
	return out
}
