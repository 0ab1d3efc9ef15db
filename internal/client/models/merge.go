package models

// MergeByRecency merges two lists of records sharing an identity space.
// For entities present on both sides the copy with the later UpdatedAt wins;
// on an exact tie the remote copy wins. Entities present on one side only
// are kept as-is. Input order is not preserved beyond "remote first".
func MergeByRecency[T Record](local, remote []T) []T {
	byID := make(map[string]int, len(remote))
	merged := make([]T, 0, len(remote)+len(local))

	for _, r := range remote {
		byID[r.RecordID()] = len(merged)
		merged = append(merged, r)
	}

	for _, l := range local {
		i, ok := byID[l.RecordID()]
		if !ok {
			merged = append(merged, l)
			continue
		}
		if l.ModifiedAt().After(merged[i].ModifiedAt()) {
			merged[i] = l
		}
	}

	return merged
}
