// Package correlate maps unstructured progress text to a workflow node
// when an event carries no explicit agent id. Matching is heuristic and
// best-effort: a miss is not an error.
package correlate

import (
	"regexp"
	"strings"

	"flowboard/internal/graph"
)

// rule pairs a substring that must appear in a node's lookup keys with
// a pattern that must match the message text. Rules are evaluated in
// order and the first hit wins, so order is the tie-break policy.
type rule struct {
	key     string
	pattern *regexp.Regexp
}

var rules = []rule{
	{"veo", regexp.MustCompile(`\b(veo|video)\b`)},
	{"imagen", regexp.MustCompile(`\b(imagen|image)s?\b`)},
	{"vision", regexp.MustCompile(`\b(vision|analyz|analys)`)},
	{"prompt", regexp.MustCompile(`\b(prompt|compos|rewrit)`)},
	{"demographic", regexp.MustCompile(`\bdemographic`)},
	{"deliver", regexp.MustCompile(`\b(deliver|publish|export|upload)`)},
	{"orchestrat", regexp.MustCompile(`\b(orchestrat|workflow|pipeline|plan)`)},
}

// Match returns the id of the node the message text most likely refers
// to, or "" and false when no rule matches. Deterministic for a given
// (graph, text) pair: rules run in order, nodes in graph order.
func Match(g *graph.Graph, text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)

	for _, r := range rules {
		if !r.pattern.MatchString(lower) {
			continue
		}
		for i := range g.Nodes {
			n := &g.Nodes[i]
			if nodeKeysContain(n, r.key) {
				return n.ID, true
			}
		}
	}
	return "", false
}

func nodeKeysContain(n *graph.Node, key string) bool {
	return strings.Contains(strings.ToLower(n.ID), key) ||
		strings.Contains(strings.ToLower(n.Name), key) ||
		strings.Contains(strings.ToLower(n.Path), key)
}
