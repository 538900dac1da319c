// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package registry

import "sort"

// rankBefore implements the registry-wide tie-break: higher ranking first,
// then lower service_id first (invariant 4, §4.1 "Ranking and tie-break").
func rankBefore(a, b *registration) bool {
	ar, br := a.currentRanking(), b.currentRanking()
	if ar != br {
		return ar > br
	}

	return a.id < b.id
}

// insertRanked inserts reg into a slice already sorted by rankBefore,
// keeping it sorted.
func insertRanked(list []*registration, reg *registration) []*registration {
	idx := sort.Search(len(list), func(i int) bool { return !rankBefore(list[i], reg) })

	list = append(list, nil)
	copy(list[idx+1:], list[idx:])
	list[idx] = reg
	return list
}

// removeRegistration drops reg from list, preserving order.
func removeRegistration(list []*registration, reg *registration) []*registration {
	for i, r := range list {
		if r == reg {
			return append(list[:i], list[i+1:]...)
		}
	}

	return list
}

// resortRanked re-sorts list in place after a ranking change.
func resortRanked(list []*registration) {
	sort.SliceStable(list, func(i, j int) bool { return rankBefore(list[i], list[j]) })
}
