package routing

// spfCandidate tracks the best known cost to reach a router during the
// Dijkstra walk along with every parent and next-hop device achieving
// that cost, so equal-cost paths are preserved rather than collapsed
// to a single winner (RFC 2328 §16.1 step 2's "equal cost" case).
type spfCandidate struct {
	cost     uint32
	parents  map[RouterID]struct{}
	nextHops map[string]struct{}
}

// RunSPF computes the shortest-path tree rooted at root over the LSAs
// currently installed in db, using Dijkstra's algorithm the way RFC
// 2328 §16.1 specifies it: a link from u to v is only admitted to the
// tree if v's own LSA lists a link back to u (the two-way check, RFC
// 2328 §16.1 step 2, "verify that the corresponding router... also
// describes a link back"), which prevents a stale one-sided LSA left
// over from a torn-down adjacency from producing a route nobody can
// actually forward over.
//
// Returns the tree as a map from RouterID to SPFVertex. The root
// itself is included, with zero cost, no parents, and no next hops.
func RunSPF(db *LSDB, root RouterID) map[RouterID]SPFVertex {
	if _, ok := db.Get(root); !ok {
		return map[RouterID]SPFVertex{
			root: {Router: root, Cost: 0},
		}
	}

	candidates := map[RouterID]*spfCandidate{
		root: {cost: 0, parents: map[RouterID]struct{}{}, nextHops: map[string]struct{}{}},
	}
	visited := map[RouterID]struct{}{}

	for {
		u, uc := pickMinUnvisited(candidates, visited)
		if u == "" {
			break
		}
		visited[u] = struct{}{}

		lsa, ok := db.Get(u)
		if !ok {
			continue
		}

		for _, link := range lsa.Links {
			v := link.LinkID
			if !hasLinkBack(db, v, u) {
				continue
			}

			newCost := uc.cost + link.Metric

			var nextHops map[string]struct{}
			if u == root {
				nextHops = map[string]struct{}{link.LocalDevice: {}}
			} else {
				nextHops = cloneStringSet(uc.nextHops)
			}

			vc, exists := candidates[v]
			switch {
			case !exists || newCost < vc.cost:
				candidates[v] = &spfCandidate{
					cost:     newCost,
					parents:  map[RouterID]struct{}{u: {}},
					nextHops: nextHops,
				}
			case newCost == vc.cost:
				vc.parents[u] = struct{}{}
				for nh := range nextHops {
					vc.nextHops[nh] = struct{}{}
				}
			}
		}
	}

	out := make(map[RouterID]SPFVertex, len(candidates))
	for id, c := range candidates {
		out[id] = SPFVertex{
			Router:   id,
			Cost:     c.cost,
			Parents:  keysOf(c.parents),
			NextHops: keysOfStr(c.nextHops),
		}
	}

	return out
}

// hasLinkBack reports whether v's installed LSA lists a point-to-point
// link whose LinkID is u.
func hasLinkBack(db *LSDB, v, u RouterID) bool {
	lsa, ok := db.Get(v)
	if !ok {
		return false
	}

	for _, link := range lsa.Links {
		if link.LinkID == u {
			return true
		}
	}

	return false
}

// pickMinUnvisited returns the lowest-cost candidate not yet visited.
// Returns an empty RouterID if none remain, which is the SPF
// termination condition.
func pickMinUnvisited(candidates map[RouterID]*spfCandidate, visited map[RouterID]struct{}) (RouterID, *spfCandidate) {
	var best RouterID
	var bestCand *spfCandidate

	for id, c := range candidates {
		if _, done := visited[id]; done {
			continue
		}
		if bestCand == nil || c.cost < bestCand.cost {
			best, bestCand = id, c
		}
	}

	return best, bestCand
}

func cloneStringSet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func keysOf(m map[RouterID]struct{}) []RouterID {
	out := make([]RouterID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func keysOfStr(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
