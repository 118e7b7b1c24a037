/*
 * Copyright 2021-present by Nedim Sabic Sabic
 * https://www.fibratus.io
 * All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package suggest finds likely candidates for misspelled names.
package suggest

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxDistance is the largest edit distance still considered a typo.
const maxDistance = 3

// Find returns up to n candidates that resemble the given name. Candidates
// containing the name as a case-insensitive subsequence are ranked first,
// followed by candidates within a small edit distance.
func Find(name string, candidates []string, n int) []string {
	if name == "" || n <= 0 {
		return nil
	}
	seen := make(map[string]bool)
	out := make([]string, 0, n)

	ranks := fuzzy.RankFindFold(name, candidates)
	sort.Sort(ranks)
	for _, r := range ranks {
		if len(out) == n {
			return out
		}
		if !seen[r.Target] {
			seen[r.Target] = true
			out = append(out, r.Target)
		}
	}

	type distance struct {
		target string
		dist   int
	}
	dists := make([]distance, 0)
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(c))
		if d <= maxDistance {
			dists = append(dists, distance{target: c, dist: d})
		}
	}
	sort.SliceStable(dists, func(i, j int) bool { return dists[i].dist < dists[j].dist })
	for _, d := range dists {
		if len(out) == n {
			break
		}
		out = append(out, d.target)
	}
	return out
}
