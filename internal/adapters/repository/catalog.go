package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/lottoheat/internal/domain/model"
)

// Catalog is the in-memory source of stores, games, and win records.
// Every read returns copies, so callers may hand results to the engines
// without holding a lock.
//
// Each change to a store's records takes the next value of a catalog-wide
// sequence as that store's version, so versions only grow.
type Catalog struct {
	mu          sync.RWMutex
	stores      map[string]model.StoreLocation
	games       map[string]model.Game
	wins        map[string]*model.WinRecord
	winsByStore map[string][]string
	versions    map[string]uint64
	seq         uint64
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		stores:      make(map[string]model.StoreLocation),
		games:       make(map[string]model.Game),
		wins:        make(map[string]*model.WinRecord),
		winsByStore: make(map[string][]string),
		versions:    make(map[string]uint64),
	}
}

// UpsertStores inserts or replaces store locations and returns how many
// were new.
func (c *Catalog) UpsertStores(_ context.Context, stores []model.StoreLocation) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	added := 0
	for _, s := range stores {
		if _, ok := c.stores[s.ID]; !ok {
			added++
		}
		c.stores[s.ID] = s
	}
	return added
}

// Store returns one store location.
func (c *Catalog) Store(_ context.Context, id string) (model.StoreLocation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.stores[id]
	if !ok {
		return model.StoreLocation{}, ErrStoreNotFound
	}
	return s, nil
}

// Stores returns every store ordered by id.
func (c *Catalog) Stores(_ context.Context) []model.StoreLocation {
	c.mu.RLock()
	out := make([]model.StoreLocation, 0, len(c.stores))
	for _, s := range c.stores {
		out = append(out, s)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ReplaceGames swaps in a new game snapshot.
func (c *Catalog) ReplaceGames(_ context.Context, games []model.Game) {
	next := make(map[string]model.Game, len(games))
	for _, g := range games {
		next[g.ID] = copyGame(g)
	}
	c.mu.Lock()
	c.games = next
	c.mu.Unlock()
}

// Game returns one game.
func (c *Catalog) Game(_ context.Context, id string) (model.Game, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.games[id]
	if !ok {
		return model.Game{}, ErrGameNotFound
	}
	return copyGame(g), nil
}

// Games returns every game ordered by id.
func (c *Catalog) Games(_ context.Context) []model.Game {
	c.mu.RLock()
	out := make([]model.Game, 0, len(c.games))
	for _, g := range c.games {
		out = append(out, copyGame(g))
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func copyGame(g model.Game) model.Game {
	g.PrizeTiers = append([]model.PrizeTier(nil), g.PrizeTiers...)
	return g
}

// AddWin appends a win record. Records are never deleted except through
// RemoveWin, which undoes an add that could not be scheduled.
func (c *Catalog) AddWin(_ context.Context, w model.WinRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.wins[w.ID]; ok {
		return ErrDuplicateWin
	}
	c.wins[w.ID] = &w
	c.winsByStore[w.StoreID] = append(c.winsByStore[w.StoreID], w.ID)
	c.bump(w.StoreID)
	return nil
}

// bump advances the store's version. Callers hold c.mu.
func (c *Catalog) bump(storeID string) {
	c.seq++
	c.versions[storeID] = c.seq
}

// RemoveWin deletes a win record added by AddWin.
func (c *Catalog) RemoveWin(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.wins[id]
	if !ok {
		return
	}
	delete(c.wins, id)
	ids := c.winsByStore[w.StoreID]
	for i, wid := range ids {
		if wid == id {
			c.winsByStore[w.StoreID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(c.winsByStore[w.StoreID]) == 0 {
		delete(c.winsByStore, w.StoreID)
	}
	c.bump(w.StoreID)
}

// Win returns one win record.
func (c *Catalog) Win(_ context.Context, id string) (model.WinRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.wins[id]
	if !ok {
		return model.WinRecord{}, ErrWinNotFound
	}
	return *w, nil
}

// Vote applies a community vote and returns the updated record and whether
// this vote made it verified.
func (c *Catalog) Vote(_ context.Context, winID string, up bool) (model.WinRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.wins[winID]
	if !ok {
		return model.WinRecord{}, false, ErrWinNotFound
	}
	was := w.Verified
	w.ApplyVote(up)
	c.bump(w.StoreID)
	return *w, !was && w.Verified, nil
}

// WinsForStore returns the store's records in submission order together
// with the store's version at the time of the read.
func (c *Catalog) WinsForStore(_ context.Context, storeID string) ([]model.WinRecord, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := c.winsByStore[storeID]
	out := make([]model.WinRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, *c.wins[id])
	}
	return out, c.versions[storeID]
}

// StoreIDsWithWins returns, ordered, every store id that has a record.
func (c *Catalog) StoreIDsWithWins(_ context.Context) []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.winsByStore))
	for id := range c.winsByStore {
		out = append(out, id)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Counts returns the number of stores, games, and win records.
func (c *Catalog) Counts(_ context.Context) (stores, games, wins int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stores), len(c.games), len(c.wins)
}
