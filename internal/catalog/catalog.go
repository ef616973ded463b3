// Package catalog holds the shared in-memory collection of enriched games.
//
// The catalog is the only mutable state shared between the ingestion cycle
// and the serving layer. Every operation takes the lock for its own duration
// only; callers must never hold a reference into the internal slice, and the
// pipeline must never block on I/O while an operation is in flight.
package catalog

import (
	"sort"
	"sync"
	"time"

	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
)

// Catalog is an id-ordered, duplicate-free collection of games, safe for
// concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	games []*models.Game // ascending Announce.ID
}

func New() *Catalog {
	return &Catalog{}
}

// Insert adds game in announce-id order. Inserting an id that is already
// present is a no-op; this is the authoritative duplicate-prevention
// mechanism, so a race between a Contains check and Insert resolves here.
// It reports whether the game was actually added.
func (c *Catalog) Insert(game *models.Game) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, found := c.search(game.Announce.ID)
	if found {
		return false
	}
	c.games = append(c.games, nil)
	copy(c.games[pos+1:], c.games[pos:])
	c.games[pos] = game
	return true
}

// Contains reports whether an announce id is already in the catalog.
// It is an advisory pre-check to skip enrichment work; Insert remains
// the deduplication guarantee.
func (c *Catalog) Contains(id int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, found := c.search(id)
	return found
}

// Get returns the game with the given announce id, or nil.
func (c *Catalog) Get(id int64) *models.Game {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pos, found := c.search(id)
	if !found {
		return nil
	}
	return c.games[pos]
}

// UpdatePrice refreshes the asking price and last-modification timestamp of
// an existing entry, overwrites the marketplace's own reference (which
// mirrors the asking price and must never disagree with it), and recomputes
// the deal under policy. It reports whether the id was present.
func (c *Catalog) UpdatePrice(id int64, price float64, lastMod time.Time, selfRef models.Reference, policy models.PricePolicy) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, found := c.search(id)
	if !found {
		return false
	}
	g := c.games[pos]
	g.Announce.Price = price
	g.Announce.LastModificationDate = lastMod
	g.SetReference(selfRef)
	g.Deal = models.ComputeDeal(price, g.References, policy)
	return true
}

// Remove deletes the entry with the given announce id, keeping the order
// intact. It reports whether the id was present.
func (c *Catalog) Remove(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, found := c.search(id)
	if !found {
		return false
	}
	c.games = append(c.games[:pos], c.games[pos+1:]...)
	return true
}

// Snapshot returns a copy of the catalog's ordering; the serving layer can
// iterate it without holding the lock.
func (c *Catalog) Snapshot() []*models.Game {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.Game, len(c.games))
	copy(out, c.games)
	return out
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.games)
}

// IDs returns the ascending announce ids currently held.
func (c *Catalog) IDs() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int64, len(c.games))
	for i, g := range c.games {
		ids[i] = g.Announce.ID
	}
	return ids
}

// search returns the insertion position for id and whether it is present.
// Callers must hold the lock.
func (c *Catalog) search(id int64) (int, bool) {
	pos := sort.Search(len(c.games), func(i int) bool {
		return c.games[i].Announce.ID >= id
	})
	return pos, pos < len(c.games) && c.games[pos].Announce.ID == id
}
