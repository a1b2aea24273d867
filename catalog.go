package main

import (
	"fmt"
	"sort"
	"sync"
)

// Restaurant is one entry in the shared catalog. Entries are immutable
// once created and referenced everywhere else by ID only.
type Restaurant struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Platform     string  `json:"platform"` // "bolt", "wolt" or "custom"
	Cuisine      string  `json:"cuisine"`
	Rating       float64 `json:"rating"`
	DeliveryTime string  `json:"deliveryTime,omitempty"`
	PriceRange   string  `json:"priceRange,omitempty"`
	Image        string  `json:"image,omitempty"`
}

const (
	platformBolt   = "bolt"
	platformWolt   = "wolt"
	platformCustom = "custom"
)

// Delivery listings for Kaunas, one entry per platform listing. The same
// venue on Bolt Food and Wolt counts as two restaurants on purpose: prices
// and delivery times differ.
var builtinRestaurants = []Restaurant{
	{ID: "bolt-hesburger", Name: "Hesburger", Platform: platformBolt, Cuisine: "Burgeriai", Rating: 4.2, DeliveryTime: "20-30 min", PriceRange: "€", Image: "🍔"},
	{ID: "bolt-kfc", Name: "KFC", Platform: platformBolt, Cuisine: "Vištiena", Rating: 4.3, DeliveryTime: "25-35 min", PriceRange: "€€", Image: "🍗"},
	{ID: "bolt-mcdonalds", Name: "McDonald's", Platform: platformBolt, Cuisine: "Burgeriai", Rating: 4.0, DeliveryTime: "20-30 min", PriceRange: "€", Image: "🍟"},
	{ID: "bolt-cilipica", Name: "Čili Pica", Platform: platformBolt, Cuisine: "Pica", Rating: 4.5, DeliveryTime: "30-40 min", PriceRange: "€€", Image: "🍕"},
	{ID: "bolt-dominos", Name: "Domino's Pizza", Platform: platformBolt, Cuisine: "Pica", Rating: 4.5, DeliveryTime: "30-40 min", PriceRange: "€€", Image: "🍕"},
	{ID: "bolt-dodopizza", Name: "Dodo Pizza", Platform: platformBolt, Cuisine: "Pica", Rating: 4.6, DeliveryTime: "30-40 min", PriceRange: "€€", Image: "🍕"},
	{ID: "bolt-sushiexpress", Name: "Sushi Express", Platform: platformBolt, Cuisine: "Sushi", Rating: 4.5, DeliveryTime: "30-40 min", PriceRange: "€€", Image: "🍣"},
	{ID: "bolt-sushicity", Name: "Sushi City", Platform: platformBolt, Cuisine: "Sushi", Rating: 4.6, DeliveryTime: "35-45 min", PriceRange: "€€", Image: "🍣"},
	{ID: "bolt-manami", Name: "Manami", Platform: platformBolt, Cuisine: "Azijietiška", Rating: 4.6, DeliveryTime: "35-45 min", PriceRange: "€€", Image: "🍱"},
	{ID: "bolt-thaihouse", Name: "Thai House", Platform: platformBolt, Cuisine: "Tajų", Rating: 4.6, DeliveryTime: "35-45 min", PriceRange: "€€", Image: "🍛"},
	{ID: "bolt-saigon", Name: "Saigon", Platform: platformBolt, Cuisine: "Vietnamietiška", Rating: 4.6, DeliveryTime: "35-45 min", PriceRange: "€€", Image: "🍜"},
	{ID: "bolt-azerai", Name: "Azerai x Ugruzina", Platform: platformBolt, Cuisine: "Kebabai", Rating: 4.7, DeliveryTime: "30-40 min", PriceRange: "€€", Image: "🌯"},
	{ID: "bolt-kebabinn", Name: "Kebab inn", Platform: platformBolt, Cuisine: "Kebabai", Rating: 4.4, DeliveryTime: "25-35 min", PriceRange: "€", Image: "🌯"},
	{ID: "bolt-katpedele", Name: "Katpėdėlė", Platform: platformBolt, Cuisine: "Lietuviška", Rating: 4.4, DeliveryTime: "35-45 min", PriceRange: "€€", Image: "🥟"},
	{ID: "bolt-berneliuuzeiga", Name: "Bernelių Užeiga", Platform: platformBolt, Cuisine: "Lietuviška", Rating: 4.5, DeliveryTime: "40-50 min", PriceRange: "€€", Image: "🥘"},
	{ID: "bolt-crispychick", Name: "Crispy Chick", Platform: platformBolt, Cuisine: "Vištiena", Rating: 4.6, DeliveryTime: "35-45 min", PriceRange: "€", Image: "🍗"},
	{ID: "bolt-guacamole", Name: "Guacamole Mexican Grill", Platform: platformBolt, Cuisine: "Meksikietiška", Rating: 4.5, DeliveryTime: "40-50 min", PriceRange: "€€", Image: "🌮"},
	{ID: "bolt-deviindia", Name: "Devi India", Platform: platformBolt, Cuisine: "Indiška", Rating: 4.3, DeliveryTime: "30-40 min", PriceRange: "€€", Image: "🍛"},
	{ID: "bolt-freshpost", Name: "Fresh Post", Platform: platformBolt, Cuisine: "Salotos / Sveika", Rating: 4.5, DeliveryTime: "25-35 min", PriceRange: "€", Image: "🥗"},
	{ID: "wolt-mcdonalds", Name: "McDonald's", Platform: platformWolt, Cuisine: "Burgeriai", Rating: 3.9, DeliveryTime: "25-35 min", PriceRange: "€", Image: "🍟"},
	{ID: "wolt-hesburger", Name: "Hesburger", Platform: platformWolt, Cuisine: "Burgeriai", Rating: 4.1, DeliveryTime: "25-35 min", PriceRange: "€", Image: "🍔"},
	{ID: "wolt-dodopizza", Name: "Dodo Pizza", Platform: platformWolt, Cuisine: "Pica", Rating: 4.5, DeliveryTime: "30-40 min", PriceRange: "€€", Image: "🍕"},
	{ID: "wolt-milanopicerija", Name: "Milano Picerija", Platform: platformWolt, Cuisine: "Itališka pica", Rating: 4.4, DeliveryTime: "25-35 min", PriceRange: "€€", Image: "🍕"},
	{ID: "wolt-sushiexpress", Name: "Sushi Express", Platform: platformWolt, Cuisine: "Sushi", Rating: 4.6, DeliveryTime: "30-40 min", PriceRange: "€€", Image: "🍣"},
	{ID: "wolt-ganbei", Name: "Gan Bei", Platform: platformWolt, Cuisine: "Azijietiška / Sushi", Rating: 4.4, DeliveryTime: "45-55 min", PriceRange: "€€€", Image: "🥢"},
	{ID: "wolt-thaihouse", Name: "Thai House Old Town", Platform: platformWolt, Cuisine: "Tajų", Rating: 4.6, DeliveryTime: "35-45 min", PriceRange: "€€", Image: "🍛"},
	{ID: "wolt-viralkebab", Name: "Viral Kebab", Platform: platformWolt, Cuisine: "Kebabai", Rating: 4.3, DeliveryTime: "30-40 min", PriceRange: "€€", Image: "🌯"},
	{ID: "wolt-berneliuuzeiga", Name: "Bernelių Užeiga", Platform: platformWolt, Cuisine: "Lietuviška", Rating: 4.5, DeliveryTime: "45-55 min", PriceRange: "€€", Image: "🥘"},
	{ID: "wolt-crisperia", Name: "Crisperia", Platform: platformWolt, Cuisine: "Vištiena", Rating: 4.4, DeliveryTime: "30-40 min", PriceRange: "€", Image: "🍗"},
	{ID: "wolt-holydonut", Name: "Holy Donut", Platform: platformWolt, Cuisine: "Desertai / Pusryčiai", Rating: 4.5, DeliveryTime: "25-35 min", PriceRange: "€€", Image: "🍩"},
}

// Catalog combines the built-in listings with user-added custom
// restaurants. Custom entries arrive either locally or merged out of a
// peer's session envelope, so additions must be safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	builtin []Restaurant
	custom  map[string]Restaurant
	order   []string // custom ids in insertion order
}

func newCatalog() *Catalog {
	return &Catalog{
		builtin: builtinRestaurants,
		custom:  make(map[string]Restaurant),
	}
}

// ByID resolves a restaurant id, checking built-ins before customs.
func (c *Catalog) ByID(id string) (Restaurant, bool) {
	for _, r := range c.builtin {
		if r.ID == id {
			return r, true
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.custom[id]
	return r, ok
}

// All returns built-in entries followed by customs in insertion order.
func (c *Catalog) All() []Restaurant {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Restaurant, 0, len(c.builtin)+len(c.order))
	out = append(out, c.builtin...)
	for _, id := range c.order {
		out = append(out, c.custom[id])
	}
	return out
}

// AddCustom registers a user-provided restaurant. Adding an id that
// already resolves is a silent no-op, matching how shared customs are
// merged from a peer's envelope.
func (c *Catalog) AddCustom(r Restaurant) error {
	if r.ID == "" || r.Name == "" {
		return fmt.Errorf("%w: custom restaurant requires id and name", ErrValidation)
	}
	if r.Platform != platformCustom {
		return fmt.Errorf("%w: custom restaurant platform must be %q", ErrValidation, platformCustom)
	}

	if _, ok := c.ByID(r.ID); ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.custom[r.ID]; ok {
		return nil
	}
	c.custom[r.ID] = r
	c.order = append(c.order, r.ID)

	return nil
}

// MergeCustom folds customs carried in a session envelope into the
// catalog. Non-custom or malformed entries are skipped, not erred.
func (c *Catalog) MergeCustom(rs []Restaurant) {
	for _, r := range rs {
		if r.Platform != platformCustom {
			continue
		}
		_ = c.AddCustom(r)
	}
}

// ByPlatform filters the full catalog by platform tag.
func (c *Catalog) ByPlatform(platform string) []Restaurant {
	var out []Restaurant
	for _, r := range c.All() {
		if r.Platform == platform {
			out = append(out, r)
		}
	}
	return out
}

// Cuisines returns the sorted set of cuisines present in the catalog,
// for the client's filter dropdown.
func (c *Catalog) Cuisines() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range c.All() {
		if seen[r.Cuisine] {
			continue
		}
		seen[r.Cuisine] = true
		out = append(out, r.Cuisine)
	}
	sort.Strings(out)
	return out
}

// ForIDs maps ids to restaurants, dropping ids that no longer resolve.
func (c *Catalog) ForIDs(ids []string) []Restaurant {
	out := make([]Restaurant, 0, len(ids))
	for _, id := range ids {
		if r, ok := c.ByID(id); ok {
			out = append(out, r)
		}
	}
	return out
}
