package prices

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"crypto-dash/internal/domain"
)

// ResolveRange maps a raw days parameter onto the allowed lookback windows.
// Anything that is not exactly one of domain.AllowedRanges resolves to
// domain.DefaultRange; defaulted reports whether that substitution happened.
// Values are never snapped to the nearest allowed window.
func ResolveRange(raw string) (days int, defaulted bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v != math.Trunc(v) {
		return domain.DefaultRange, true
	}
	if v > float64(slices.Max(domain.AllowedRanges)) {
		return domain.DefaultRange, true
	}
	n := int(v)
	if !slices.Contains(domain.AllowedRanges, n) {
		return domain.DefaultRange, true
	}
	return n, false
}
