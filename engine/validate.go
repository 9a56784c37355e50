package engine

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"trafficsim/core"
)

// Validate builds an ephemeral directed graph view of road connectivity
// and runs a one-shot strongly-connected-components check, purely as a
// network-load-time diagnostic; it is never on the per-tick hot path.
// It reports the number of components found and, if the network is not
// a single strongly connected component, a descriptive error (the
// simulation still runs — disconnected regions just never receive
// traffic from the rest of the map).
func (e *Engine) Validate() (components int, err error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	g := simple.NewDirectedGraph()
	for id := range e.cityMap {
		g.AddNode(simple.Node(int64(id)))
	}
	for id, r := range e.cityMap {
		for _, destID := range outgoingDestinations(r) {
			if _, ok := e.cityMap[destID]; ok {
				g.SetEdge(g.NewEdge(simple.Node(int64(id)), simple.Node(int64(destID))))
			}
		}
	}

	scc := topo.TarjanSCC(g)
	if len(scc) == 1 {
		return 1, nil
	}
	return len(scc), fmt.Errorf("road network has %d disconnected components", len(scc))
}

// outgoingDestinations flattens every lane's connection list on r into
// a plain list of destination road ids, used only by Validate's graph
// construction.
func outgoingDestinations(r *core.Road) []core.RoadID {
	var out []core.RoadID
	for _, ln := range r.Snapshot().Lanes {
		for _, c := range ln.Connections {
			out = append(out, c.DestRoadID)
		}
	}
	return out
}

var _ graph.Node = simple.Node(0)
