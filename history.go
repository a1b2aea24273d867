package main

import (
	"sort"
	"sync"
	"time"
)

// historyCap bounds the decision log, newest first.
const historyCap = 100

type decisionEntry struct {
	RestaurantID string    `json:"id"`
	Method       Method    `json:"method"`
	Date         time.Time `json:"date"`
}

// decisionLog records decided winners for the "what do we usually pick"
// views. In-process and non-durable, same as the original's device-local
// history.
type decisionLog struct {
	mu      sync.RWMutex
	entries []decisionEntry
}

func newDecisionLog() *decisionLog {
	return &decisionLog{}
}

func (l *decisionLog) record(id string, method Method) {
	if id == "" || !method.valid() {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]decisionEntry{{
		RestaurantID: id,
		Method:       method,
		Date:         time.Now(),
	}}, l.entries...)

	if len(l.entries) > historyCap {
		l.entries = l.entries[:historyCap]
	}
}

func (l *decisionLog) all() []decisionEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]decisionEntry(nil), l.entries...)
}

type restaurantCount struct {
	Restaurant Restaurant `json:"restaurant"`
	Count      int        `json:"count"`
}

// topRestaurants ranks decided winners by frequency, dropping ids that
// no longer resolve in the catalog.
func (l *decisionLog) topRestaurants(cat *Catalog, limit int) []restaurantCount {
	counts := make(map[string]int)
	for _, e := range l.all() {
		counts[e.RestaurantID]++
	}

	out := make([]restaurantCount, 0, len(counts))
	for id, n := range counts {
		if r, ok := cat.ByID(id); ok {
			out = append(out, restaurantCount{Restaurant: r, Count: n})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Restaurant.Name < out[j].Restaurant.Name
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type cuisineCount struct {
	Cuisine string `json:"cuisine"`
	Count   int    `json:"count"`
}

func (l *decisionLog) topCuisines(cat *Catalog, limit int) []cuisineCount {
	counts := make(map[string]int)
	for _, e := range l.all() {
		if r, ok := cat.ByID(e.RestaurantID); ok {
			counts[r.Cuisine]++
		}
	}

	out := make([]cuisineCount, 0, len(counts))
	for cuisine, n := range counts {
		out = append(out, cuisineCount{Cuisine: cuisine, Count: n})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Cuisine < out[j].Cuisine
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
