package program

// NormalizeCompletedDayKeys treats the stored key list as a set: empty
// entries and duplicates are dropped, keeping the first occurrence order.
// Applying it twice yields the same result.
func NormalizeCompletedDayKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	normalized := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, key)
	}
	return normalized
}

// PercentComplete computes floor(completed/total*100), with completed capped
// at total and floored at 0. A zero-day program is 0% complete, not NaN and
// not 100%.
func PercentComplete(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}
	return completed * 100 / total
}
