// Package layout arranges the workflow graph into ordered lanes, one
// lane per node group. The computation is pure and deterministic:
// re-running it on an unchanged graph yields bit-identical coordinates.
package layout

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"flowboard/internal/graph"
)

// Layout constants. Spacing is uniform and monotonic in sort index so
// nodes in a lane never overlap.
const (
	laneLeft   = 80.0
	laneWidth  = 220.0
	topMargin  = 60.0
	rowSpacing = 110.0
)

// Position is a 2D coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EdgeLine is an edge with resolved endpoint coordinates.
type EdgeLine struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Label    string  `json:"label,omitempty"`
	Optional bool    `json:"optional,omitempty"`
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
}

// Result holds positions per node id and positioned edges.
type Result struct {
	Positions map[string]Position `json:"positions"`
	Edges     []EdgeLine          `json:"edges"`
}

// Compute buckets nodes into lanes by group, sorts each lane by display
// name (locale-aware, stable), and resolves edge endpoints. Edges that
// reference a node absent from the positioned set are omitted.
func Compute(g *graph.Graph) Result {
	lanes := make([][]*graph.Node, len(graph.Groups))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		idx := graph.GroupIndex(n.Group)
		if idx < 0 {
			continue
		}
		lanes[idx] = append(lanes[idx], n)
	}

	coll := collate.New(language.English)

	positions := make(map[string]Position, len(g.Nodes))
	for laneIdx, lane := range lanes {
		sort.SliceStable(lane, func(a, b int) bool {
			return coll.CompareString(lane[a].Name, lane[b].Name) < 0
		})

		x := laneLeft + float64(laneIdx)*laneWidth
		for row, n := range lane {
			positions[n.ID] = Position{X: x, Y: topMargin + float64(row)*rowSpacing}
		}
	}

	edges := make([]EdgeLine, 0, len(g.Edges))
	for _, e := range g.Edges {
		from, ok := positions[e.From]
		if !ok {
			continue
		}
		to, ok := positions[e.To]
		if !ok {
			continue
		}
		edges = append(edges, EdgeLine{
			From:     e.From,
			To:       e.To,
			Label:    e.Label,
			Optional: e.Optional,
			X1:       from.X,
			Y1:       from.Y,
			X2:       to.X,
			Y2:       to.Y,
		})
	}

	return Result{Positions: positions, Edges: edges}
}
