package routing

import "sort"

// ForwardingEntry is one installed route: the destination (a router or
// a stub network), its cost from the local root, and the local
// device(s) to forward through.
type ForwardingEntry struct {
	Destination RouterID
	Cost        uint32
	NextHops    []string
}

// BuildForwardingTable converts an SPF result into a forwarding table.
// The root never forwards to another router for itself, but it still
// owns routes to its own directly-connected StubNetwork records --
// installed with the stub's own metric as cost and the local device as
// next hop, since there is no next-hop router to name for a locally
// attached subnet. This is the only route a disconnected router (one
// RunSPF could not reach any other vertex from) ends up with.
//
// For every other reachable router V, db is consulted for V's
// StubNetwork records and a route is installed for each one too, one
// hop beyond V via the same next-hop interface(s). Stub destinations
// are terminal: they never appear as a tree vertex themselves, so this
// is the only place they enter the table.
//
// Entries are sorted by Destination for deterministic iteration in
// logs and the control API. A read-only, fully-copied view computed
// fresh from live state rather than a cache that can drift from it.
func BuildForwardingTable(db *LSDB, root RouterID, tree map[RouterID]SPFVertex) []ForwardingEntry {
	out := make([]ForwardingEntry, 0, len(tree))

	for id, v := range tree {
		if id == root {
			out = append(out, selfStubEntries(db, root)...)
			continue
		}
		if len(v.NextHops) == 0 {
			continue
		}

		nextHops := append([]string(nil), v.NextHops...)
		sort.Strings(nextHops)

		out = append(out, ForwardingEntry{
			Destination: id,
			Cost:        v.Cost,
			NextHops:    nextHops,
		})

		lsa, ok := db.Get(id)
		if !ok {
			continue
		}

		for _, link := range lsa.Links {
			if link.Type != LinkTypeStubNetwork {
				continue
			}

			out = append(out, ForwardingEntry{
				Destination: link.LinkID,
				Cost:        v.Cost + link.Metric,
				NextHops:    nextHops,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Destination < out[j].Destination })

	return out
}

// selfStubEntries builds the root's own directly-connected stub
// routes from its installed LSA: one entry per StubNetwork record,
// reached through the local device that originated it rather than
// through any other router.
func selfStubEntries(db *LSDB, root RouterID) []ForwardingEntry {
	lsa, ok := db.Get(root)
	if !ok {
		return nil
	}

	var out []ForwardingEntry
	for _, link := range lsa.Links {
		if link.Type != LinkTypeStubNetwork {
			continue
		}

		out = append(out, ForwardingEntry{
			Destination: link.LinkID,
			Cost:        link.Metric,
			NextHops:    []string{link.LocalDevice},
		})
	}

	return out
}
