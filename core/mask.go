package core

import "strings"

// displayLimit is the rune limit for sample values shown in reports.
const displayLimit = 50

// DisplayValue shortens a sampled value for report cells. Values longer than
// 50 runes get an ellipsis; matching always runs on the full prepared value,
// this is presentation only.
func DisplayValue(v string) string {
	runes := []rune(v)
	if len(runes) <= displayLimit {
		return v
	}
	return string(runes[:displayLimit]) + "..."
}

// MaskValue hides the middle of a confirmed sensitive value, keeping the
// first three and last two runes. Short values are fully masked.
func MaskValue(v string) string {
	runes := []rune(v)
	if len(runes) == 0 {
		return v
	}
	if len(runes) <= 6 {
		return strings.Repeat("*", len(runes))
	}
	masked := len(runes) - 5
	return string(runes[:3]) + strings.Repeat("*", masked) + string(runes[len(runes)-2:])
}
