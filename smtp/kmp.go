// SPDX-License-Identifier: GPL-3.0-or-later

package smtp

// computeKMPPartialMatch computes the Knuth-Morris-Pratt partial-match
// (failure-function) table for pattern: table[i] is the length to
// "rewind" matching to upon a mismatch at position i, or -1 if
// matching should restart from scratch.
func computeKMPPartialMatch(pattern string) []int {
	n := len(pattern)
	table := make([]int, n+1)
	table[0] = -1
	candidate := 0
	for a := 1; a < n; a++ {
		if pattern[a] == pattern[candidate] {
			table[a] = table[candidate]
		} else {
			table[a] = candidate
			for candidate != -1 && pattern[a] != pattern[candidate] {
				candidate = table[candidate]
			}
		}
		candidate++
	}
	table[n] = candidate
	return table
}
