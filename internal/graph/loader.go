package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads a workflow graph from a JSON file and validates it.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}

	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse graph JSON: %w", err)
	}

	if g.Version != 1 {
		return nil, fmt.Errorf("unsupported graph version: %d", g.Version)
	}

	if err := Validate(&g); err != nil {
		return nil, err
	}

	return &g, nil
}

// Validate checks node identity and enum constraints.
// Edges referencing unknown node ids are NOT an error here; the layout
// engine omits them defensively.
func Validate(g *Graph) error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.ID == "" {
			return fmt.Errorf("node %d: missing id", i)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("duplicate node id: %s", n.ID)
		}
		seen[n.ID] = struct{}{}

		if !ValidGroup(n.Group) {
			return fmt.Errorf("node %s: unknown group: %s", n.ID, n.Group)
		}
		for _, m := range n.Methods {
			if _, ok := Methods[m]; !ok {
				return fmt.Errorf("node %s: unknown method: %s", n.ID, m)
			}
		}
	}
	return nil
}
