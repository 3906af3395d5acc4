package routing

import (
	"log/slog"
	"sync"
)

// LSDB is the link-state database: the set of most-recent
// GlobalRouterLSAs known for every router in the domain, keyed by
// RouterID. Modeled on OSPFv2's link-state database (RFC 2328 §12),
// restricted to a single LSA type and no aging/flooding -- this
// simulator recomputes the whole database on demand rather than
// incrementally flooding updates, matching this simulator's
// synchronous, single-threaded concurrency model.
type LSDB struct {
	mu   sync.RWMutex
	lsas map[RouterID]GlobalRouterLSA

	logger *slog.Logger
}

// NewLSDB creates an empty LSDB.
func NewLSDB(logger *slog.Logger) *LSDB {
	if logger == nil {
		logger = slog.Default()
	}

	return &LSDB{
		lsas:   make(map[RouterID]GlobalRouterLSA),
		logger: logger.With(slog.String("component", "routing.lsdb")),
	}
}

// Install stores lsa, replacing any prior LSA for the same RouterID
// only if lsa carries a strictly higher sequence number, mirroring RFC
// 2328 §13.1's instance comparison rule that a newer LS sequence
// number always wins. Returns true if the LSA was installed.
func (d *LSDB) Install(lsa GlobalRouterLSA) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	existing, ok := d.lsas[lsa.RouterID]
	if ok && existing.SequenceNumber >= lsa.SequenceNumber {
		return false
	}

	d.lsas[lsa.RouterID] = lsa
	d.logger.Debug("installed LSA", slog.Any("lsa", lsa))

	return true
}

// Get returns the LSA for id, if one is installed.
func (d *LSDB) Get(id RouterID) (GlobalRouterLSA, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	lsa, ok := d.lsas[id]
	return lsa, ok
}

// All returns every installed LSA. The returned slice is a snapshot;
// mutating it does not affect the LSDB.
func (d *LSDB) All() []GlobalRouterLSA {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]GlobalRouterLSA, 0, len(d.lsas))
	for _, lsa := range d.lsas {
		out = append(out, lsa)
	}

	return out
}

// Len returns the number of routers with an installed LSA.
func (d *LSDB) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.lsas)
}

// Flush removes every installed LSA, used when recomputing a topology
// from scratch (e.g. a test resetting the database between scenarios).
func (d *LSDB) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lsas = make(map[RouterID]GlobalRouterLSA)
}
