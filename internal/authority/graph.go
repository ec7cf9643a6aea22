// Package authority maintains the internal link graph and propagates
// authority scores across it.
package authority

import (
	"sync"
)

// Graph is the in-memory link graph plus the last committed score snapshot.
// Mutations and reads may come from request handlers while a propagation
// pass walks a private copy, so all access goes through the lock.
type Graph struct {
	mu sync.RWMutex

	nodes map[string]struct{}
	out   map[string]map[string]struct{}

	// scores is the committed snapshot. Readers see the previous pass's
	// result until the next pass commits.
	scores map[string]float64
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:  make(map[string]struct{}),
		out:    make(map[string]map[string]struct{}),
		scores: make(map[string]float64),
	}
}

// AddNode registers a content item with no links yet.
func (g *Graph) AddNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[id] = struct{}{}
}

// SetLinks replaces the outgoing edges of a source item. Targets are added
// as nodes if unseen; an empty target list makes the source a dangling node.
func (g *Graph) SetLinks(sourceID string, targetIDs []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes[sourceID] = struct{}{}
	edges := make(map[string]struct{}, len(targetIDs))
	for _, t := range targetIDs {
		if t == sourceID {
			continue
		}
		g.nodes[t] = struct{}{}
		edges[t] = struct{}{}
	}
	g.out[sourceID] = edges
}

// RemoveNode drops an item and every edge touching it.
func (g *Graph) RemoveNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.nodes, id)
	delete(g.out, id)
	delete(g.scores, id)
	for _, edges := range g.out {
		delete(edges, id)
	}
}

// InDegree returns the number of incoming links for an item.
func (g *Graph) InDegree(id string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, edges := range g.out {
		if _, ok := edges[id]; ok {
			n++
		}
	}
	return n
}

// Size returns the number of nodes.
func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// AuthorityOf returns the last committed score for an item, zero if unknown.
func (g *Graph) AuthorityOf(itemID string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scores[itemID]
}

// Scores returns a copy of the committed snapshot.
func (g *Graph) Scores() map[string]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]float64, len(g.scores))
	for id, s := range g.scores {
		out[id] = s
	}
	return out
}

// SeedScores installs a persisted snapshot at startup so reads have scores
// before the first propagation pass finishes.
func (g *Graph) SeedScores(scores map[string]float64) {
	copied := make(map[string]float64, len(scores))
	for id, s := range scores {
		copied[id] = s
	}
	g.commit(copied)
}

// snapshot copies the topology so a propagation pass can iterate without
// holding the lock.
func (g *Graph) snapshot() (nodes []string, out map[string][]string) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes = make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		nodes = append(nodes, id)
	}
	out = make(map[string][]string, len(g.out))
	for src, edges := range g.out {
		targets := make([]string, 0, len(edges))
		for t := range edges {
			targets = append(targets, t)
		}
		out[src] = targets
	}
	return nodes, out
}

// commit installs a new score snapshot.
func (g *Graph) commit(scores map[string]float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scores = scores
}
