package main

import (
	"sort"
)

// suggestAlternatives proposes up to max restaurants neither participant
// picked, for the no-match case. Entries sharing a cuisine with anything
// either person chose rank first, then the rest; both groups ordered by
// rating, ties broken by name for stable output.
func suggestAlternatives(cat *Catalog, p1, p2 []string, max int) []Restaurant {
	chosen := make(map[string]bool, len(p1)+len(p2))
	cuisines := make(map[string]bool)
	for _, id := range append(append([]string(nil), p1...), p2...) {
		chosen[id] = true
		if r, ok := cat.ByID(id); ok {
			cuisines[r.Cuisine] = true
		}
	}

	var preferred, fill []Restaurant
	for _, r := range cat.All() {
		if chosen[r.ID] {
			continue
		}
		if cuisines[r.Cuisine] {
			preferred = append(preferred, r)
		} else {
			fill = append(fill, r)
		}
	}

	byRating := func(rs []Restaurant) {
		sort.Slice(rs, func(i, j int) bool {
			if rs[i].Rating != rs[j].Rating {
				return rs[i].Rating > rs[j].Rating
			}
			return rs[i].Name < rs[j].Name
		})
	}
	byRating(preferred)
	byRating(fill)

	out := append(preferred, fill...)
	if len(out) > max {
		out = out[:max]
	}
	return out
}
