package graph

// Node is one step/endpoint in the static workflow graph.
// Nodes are immutable after load; ids are unique and never reused.
type Node struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Methods     []string `json:"methods,omitempty"`
	Group       string   `json:"group"`
	Description string   `json:"description,omitempty"`
	Requires    []string `json:"requires,omitempty"`
}

// Edge is a directed, optionally-labeled relationship between two nodes.
// Multiple edges between the same pair are allowed.
type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Label    string `json:"label,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// Graph is the full static node/edge set. Pure data, no runtime mutation.
type Graph struct {
	Version int    `json:"version"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
}

// Groups is the closed set of node groups, in lane order.
var Groups = []string{
	"orchestration",
	"analysis",
	"prompt",
	"generation",
	"delivery",
}

// Methods is the set of verbs a node may declare.
var Methods = map[string]struct{}{
	"GET":    {},
	"POST":   {},
	"PUT":    {},
	"DELETE": {},
}

// ValidGroup reports whether g is one of the known groups.
func ValidGroup(g string) bool {
	for _, known := range Groups {
		if g == known {
			return true
		}
	}
	return false
}

// GroupIndex returns the lane index for a group, or -1 if unknown.
func GroupIndex(g string) int {
	for i, known := range Groups {
		if g == known {
			return i
		}
	}
	return -1
}

// HasNode reports whether a node with the given id exists.
func (g *Graph) HasNode(nodeID string) bool {
	for i := range g.Nodes {
		if g.Nodes[i].ID == nodeID {
			return true
		}
	}
	return false
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(nodeID string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == nodeID {
			return &g.Nodes[i]
		}
	}
	return nil
}
