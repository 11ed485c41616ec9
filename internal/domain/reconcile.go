package domain

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// MirrorSenderDWD is the NINA sender name of warnings relayed from the DWD.
const MirrorSenderDWD = "Deutscher Wetterdienst"

// Options controls filtering and merging in Reconcile. The zero value
// merges and sorts without filtering or truncation.
type Options struct {
	// HideBelowLevel drops warnings scoring below it when > 0.
	HideBelowLevel int
	// MaxCount keeps only the highest-ranked warnings when > 0.
	MaxCount int
	// IgnoreInstructions merges warnings whose instructions differ.
	IgnoreInstructions bool

	// MirrorSender names the NINA sender whose warnings duplicate the DWD feed.
	// They are dropped while DWD warnings are active. Empty disables the filter.
	MirrorSender string
	// MirrorActive forces the mirror filter on, for callers that hold DWD
	// warnings outside the reconciled list.
	MirrorActive bool

	// Normalizer derives grouping and content keys. Nil uses DefaultPrefixPattern.
	Normalizer *Normalizer
}

// Reconcile groups warnings by headline, merges content-identical entries,
// ranks them by severity and applies the display filters. The result is
// built from copies; the input slice and its warnings are not modified.
func Reconcile(warnings []Warning, opts Options) []Warning {
	n := opts.Normalizer
	if n == nil {
		n = defaultNormalizer
	}

	warnings = dropMirrored(warnings, opts)

	// Group by headline key, remembering first-appearance order.
	groups := make(map[string][]Warning)
	var order []string
	for _, w := range warnings {
		key := n.GroupKey(w.Headline)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], w)
	}

	merged := lo.Flatten(lo.Map(order, func(key string, _ int) []Warning {
		return mergeGroup(groups[key], n, opts.IgnoreInstructions)
	}))

	sort.SliceStable(merged, func(i, j int) bool {
		return Score(merged[i]) > Score(merged[j])
	})

	if opts.HideBelowLevel > 0 {
		merged = lo.Filter(merged, func(w Warning, _ int) bool {
			return Score(w) >= opts.HideBelowLevel
		})
	}

	if opts.MaxCount > 0 && len(merged) > opts.MaxCount {
		merged = merged[:opts.MaxCount]
	}
	return merged
}

// dropMirrored removes NINA warnings relayed from the DWD when the DWD feed
// itself has warnings.
func dropMirrored(warnings []Warning, opts Options) []Warning {
	if opts.MirrorSender == "" {
		return warnings
	}
	active := opts.MirrorActive || lo.ContainsBy(warnings, Warning.IsDWD)
	if !active {
		return warnings
	}
	return lo.Filter(warnings, func(w Warning, _ int) bool {
		return w.Variant != VariantNINA || w.Sender != opts.MirrorSender
	})
}

// representative is a merged warning plus the content keys it matches on.
type representative struct {
	warning     Warning
	description string
	instruction string
}

// mergeGroup collapses group members with equal content into representatives,
// in order of first appearance.
func mergeGroup(members []Warning, n *Normalizer, ignoreInstructions bool) []Warning {
	reps := make([]representative, 0, len(members))
	for _, m := range members {
		desc := n.ContentKey(m.Description)
		instr := n.ContentKey(m.Instruction)

		matched := false
		for i := range reps {
			if reps[i].description != desc {
				continue
			}
			if !ignoreInstructions && reps[i].instruction != instr {
				continue
			}
			reps[i].warning = merge(reps[i].warning, m)
			matched = true
			break
		}
		if !matched {
			reps = append(reps, representative{warning: m.clone(), description: desc, instruction: instr})
		}
	}

	out := make([]Warning, len(reps))
	for i, r := range reps {
		out[i] = r.warning
	}
	return out
}

// merge folds member into rep. The time span always widens to cover both.
// A NINA representative takes the DWD identity of an incoming DWD member;
// otherwise the representative keeps its own identity.
func merge(rep, member Warning) Warning {
	start := earliest(rep.Start, member.Start)
	end := latest(rep.End, member.End)

	out := rep
	if rep.Variant == VariantNINA && member.Variant == VariantDWD {
		out = member.clone()
	}
	out.Start = start
	out.End = end
	return out
}

// earliest returns the earlier of two times; a zero (absent) time never wins.
func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	default:
		return a
	}
}

// latest returns the later of two times; a zero (absent) time never wins.
func latest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.After(a):
		return b
	default:
		return a
	}
}
