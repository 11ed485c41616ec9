package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/couchcryptid/weather-warning-service/internal/domain"
)

// Card holds the display settings of a warning card file. Unset keys leave
// the corresponding setting to the environment or its default.
//
//	nina_entity_prefix = "binary_sensor.nina_warnung"
//	dwd_device = "5f0d2c…"
//	max_warnings = 5
//	hide_on_level_below = 2
//	separate_advance_warnings = true
//
//	[color_overrides]
//	severe = "#d32f2f"
type Card struct {
	NINAPrefix              *string               `toml:"nina_entity_prefix"`
	DWDDevice               *string               `toml:"dwd_device"`
	MaxWarnings             *int                  `toml:"max_warnings"`
	HideOnLevelBelow        *int                  `toml:"hide_on_level_below"`
	IgnoreInstructions      *bool                 `toml:"merge_ignore_instructions"`
	SeparateAdvanceWarnings *bool                 `toml:"separate_advance_warnings"`
	HideInstructions        *bool                 `toml:"hide_instructions"`
	MirrorSender            *string               `toml:"mirror_sender"`
	PrefixPattern           *string               `toml:"warning_prefix_pattern"`
	ColorOverrides          domain.ColorOverrides `toml:"color_overrides"`
}

// LoadCard decodes a card file. Unknown keys are rejected.
func LoadCard(path string) (*Card, error) {
	var card Card
	md, err := toml.DecodeFile(path, &card)
	if err != nil {
		return nil, fmt.Errorf("read card file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("card file %s: unknown key %q", path, undecoded[0].String())
	}
	return &card, nil
}

// Sources returns the feed selection named in the card.
func (c *Card) Sources() domain.Sources {
	return domain.Sources{NINAPrefix: strOr(c.NINAPrefix, ""), DWDDevice: strOr(c.DWDDevice, "")}
}

// BoardOptions returns the card's display settings, using the service
// defaults for unset keys.
func (c *Card) BoardOptions() (domain.BoardOptions, error) {
	normalizer, err := domain.NewNormalizer(strOr(c.PrefixPattern, ""))
	if err != nil {
		return domain.BoardOptions{}, fmt.Errorf("invalid warning_prefix_pattern: %w", err)
	}
	mirror := strOr(c.MirrorSender, domain.MirrorSenderDWD)
	if strings.EqualFold(mirror, mirrorSenderOff) {
		mirror = ""
	}
	return domain.BoardOptions{
		Options: domain.Options{
			HideBelowLevel:     intOr(c.HideOnLevelBelow, 0),
			MaxCount:           intOr(c.MaxWarnings, defaultMaxWarnings),
			IgnoreInstructions: boolOr(c.IgnoreInstructions, false),
			MirrorSender:       mirror,
			Normalizer:         normalizer,
		},
		SeparateAdvance:  boolOr(c.SeparateAdvanceWarnings, false),
		HideInstructions: boolOr(c.HideInstructions, false),
		Colors:           c.ColorOverrides,
	}, nil
}

func strOr(p *string, fallback string) string {
	if p != nil {
		return *p
	}
	return fallback
}

func intOr(p *int, fallback int) int {
	if p != nil {
		return *p
	}
	return fallback
}

func boolOr(p *bool, fallback bool) bool {
	if p != nil {
		return *p
	}
	return fallback
}
