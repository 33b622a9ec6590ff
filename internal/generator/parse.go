package generator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// tierPayload is the object the model is asked to return. The legacy
// resonance/deep_dive/masterclass keys are accepted as aliases.
type tierPayload struct {
	TierShort   *string `json:"tier_short"`
	TierMedium  *string `json:"tier_medium"`
	TierLong    *string `json:"tier_long"`
	Resonance   *string `json:"resonance"`
	DeepDive    *string `json:"deep_dive"`
	Masterclass *string `json:"masterclass"`
}

// Tiers is the parsed triple.
type Tiers struct {
	Short, Medium, Long string
}

// StripFence returns the content of the first fenced block, or the trimmed
// input when there is none.
func StripFence(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// ParseTiers extracts the three tiers from model output. It returns
// ErrParse for anything that is not an object with three non-empty string
// fields, and ErrIncomplete when two tiers are identical.
func ParseTiers(raw string) (Tiers, error) {
	body := StripFence(raw)
	if !strings.HasPrefix(body, "{") {
		return Tiers{}, fmt.Errorf("%w: response is not a JSON object", ErrParse)
	}
	var p tierPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return Tiers{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	t := Tiers{
		Short:  pick(p.TierShort, p.Resonance),
		Medium: pick(p.TierMedium, p.DeepDive),
		Long:   pick(p.TierLong, p.Masterclass),
	}
	var missing []string
	if t.Short == "" {
		missing = append(missing, "tier_short")
	}
	if t.Medium == "" {
		missing = append(missing, "tier_medium")
	}
	if t.Long == "" {
		missing = append(missing, "tier_long")
	}
	if len(missing) > 0 {
		return Tiers{}, fmt.Errorf("%w: missing %s", ErrParse, strings.Join(missing, ", "))
	}
	if t.Short == t.Medium || t.Short == t.Long || t.Medium == t.Long {
		return Tiers{}, ErrIncomplete
	}
	return t, nil
}

func pick(primary, alias *string) string {
	for _, p := range []*string{primary, alias} {
		if p == nil {
			continue
		}
		if s := norm.NFC.String(strings.TrimSpace(*p)); s != "" {
			return s
		}
	}
	return ""
}
