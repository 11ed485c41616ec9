package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultIcon is shown when a warning has no mapped event code.
const DefaultIcon = "mdi:alert-circle-outline"

const unmappedColor = "#999999"

var severityColors = map[int]string{
	ScoreNone:     "#c5e566",
	ScoreMinor:    "#ffeb3b",
	ScoreModerate: "#fb8c00",
	ScoreSevere:   "#e53935",
	ScoreExtreme:  "#880e4f",
}

// ColorOverrides replaces the default color of individual severity levels.
type ColorOverrides struct {
	NoWarning string `json:"no_warning,omitempty" toml:"no_warning"`
	Minor     string `json:"minor,omitempty" toml:"minor"`
	Moderate  string `json:"moderate,omitempty" toml:"moderate"`
	Severe    string `json:"severe,omitempty" toml:"severe"`
	Extreme   string `json:"extreme,omitempty" toml:"extreme"`
}

// SeverityColor returns the display color for a severity score.
func SeverityColor(score int, overrides ColorOverrides) string {
	override := map[int]string{
		ScoreNone:     overrides.NoWarning,
		ScoreMinor:    overrides.Minor,
		ScoreModerate: overrides.Moderate,
		ScoreSevere:   overrides.Severe,
		ScoreExtreme:  overrides.Extreme,
	}[score]
	if override != "" {
		return override
	}
	if c, ok := severityColors[score]; ok {
		return c
	}
	return unmappedColor
}

// eventIcons maps DWD event code ranges (inclusive) to Material Design icons.
var eventIcons = []struct {
	from, to int
	icon     string
}{
	{22, 22, "mdi:snowflake-thermometer"},
	{24, 24, "mdi:snowflake-alert"},
	{31, 49, "mdi:weather-lightning"},
	{51, 58, "mdi:weather-windy"},
	{59, 59, "mdi:weather-fog"},
	{61, 66, "mdi:weather-pouring"},
	{70, 78, "mdi:weather-snowy-heavy"},
	{79, 79, "mdi:transmission-tower"},
	{82, 82, "mdi:snowflake-thermometer"},
	{84, 87, "mdi:snowflake-alert"},
	{88, 89, "mdi:snowflake-melt"},
	{90, 96, "mdi:weather-lightning"},
	{246, 246, "mdi:weather-sunny-alert"},
	{247, 248, "mdi:thermometer-alert"},
}

// EventIcon returns the icon for a DWD event code, or DefaultIcon.
func EventIcon(code *int) string {
	if code == nil {
		return DefaultIcon
	}
	for _, r := range eventIcons {
		if *code >= r.from && *code <= r.to {
			return r.icon
		}
	}
	return DefaultIcon
}

// SenderLabel names the issuing authority shown in a warning's footer.
func SenderLabel(w Warning) string {
	if w.Variant == VariantDWD {
		return MirrorSenderDWD
	}
	return w.Sender
}

// Display is a reconciled warning decorated for rendering.
type Display struct {
	Warning
	Score       int    `json:"score"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	SenderLabel string `json:"sender_label,omitempty"`
}

// Board is the display-ready result of one reconciliation cycle.
type Board struct {
	CycleID     string    `json:"cycle_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Separate    bool      `json:"separate"`
	Current     []Display `json:"current"`
	Advance     []Display `json:"advance,omitempty"`
}

// Len returns the number of warnings on the board.
func (b Board) Len() int {
	return len(b.Current) + len(b.Advance)
}

// Warnings returns the board's warnings, current before advance.
func (b Board) Warnings() []Warning {
	out := make([]Warning, 0, b.Len())
	for _, d := range b.Current {
		out = append(out, d.Warning)
	}
	for _, d := range b.Advance {
		out = append(out, d.Warning)
	}
	return out
}

// BoardOptions configures BuildBoard.
type BoardOptions struct {
	Options
	// SeparateAdvance reconciles advance DWD warnings in their own section.
	SeparateAdvance  bool
	// HideInstructions blanks the instruction text of every displayed warning.
	HideInstructions bool
	Colors           ColorOverrides
}

// BuildBoard reconciles collected warnings into a board. In combined mode all
// feeds are reconciled together; in separate mode advance DWD warnings form
// their own section and their presence activates the mirror-sender filter
// for the current section.
func BuildBoard(c Collected, opts BoardOptions) Board {
	b := Board{
		CycleID:     uuid.NewString(),
		GeneratedAt: clock.Now().UTC(),
		Separate:    opts.SeparateAdvance,
	}

	if !opts.SeparateAdvance {
		b.Current = Decorate(Reconcile(c.All(), opts.Options), opts.Colors)
		b.hideInstructions(opts.HideInstructions)
		return b
	}

	current := append(append([]Warning(nil), c.NINA...), c.DWDCurrent...)
	currentOpts := opts.Options
	currentOpts.MirrorActive = currentOpts.MirrorActive || len(c.DWDAdvance) > 0

	b.Current = Decorate(Reconcile(current, currentOpts), opts.Colors)
	b.Advance = Decorate(Reconcile(c.DWDAdvance, opts.Options), opts.Colors)
	b.hideInstructions(opts.HideInstructions)
	return b
}

func (b *Board) hideInstructions(hide bool) {
	if !hide {
		return
	}
	for i := range b.Current {
		b.Current[i].Instruction = ""
	}
	for i := range b.Advance {
		b.Advance[i].Instruction = ""
	}
}

// Decorate attaches score, color, icon and sender label to reconciled warnings.
func Decorate(warnings []Warning, colors ColorOverrides) []Display {
	out := make([]Display, len(warnings))
	for i, w := range warnings {
		score := Score(w)
		out[i] = Display{
			Warning:     w,
			Score:       score,
			Color:       SeverityColor(score, colors),
			Icon:        EventIcon(w.EventCode),
			SenderLabel: SenderLabel(w),
		}
	}
	return out
}
