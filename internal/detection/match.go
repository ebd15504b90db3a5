package detection

import "strings"

// Matches reports whether any box label contains target, case-insensitive.
// It answers presence only — it does not pick the closest or largest
// instance — and short-circuits on the first hit. An empty response never
// matches.
func Matches(target string, resp Response) bool {
	target = strings.ToLower(target)
	for _, box := range resp.Boxes {
		if strings.Contains(strings.ToLower(box.Label), target) {
			return true
		}
	}
	return false
}
