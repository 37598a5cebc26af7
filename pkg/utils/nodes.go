package utils

import (
	"sort"
	"strconv"
	"strings"
)

type nodeKey struct {
	alias   bool
	number  int
	site    string
	archi   string
	raw     string
	numeric bool
}

// parseNodeKey splits 'm3-12.grenoble.iot-lab.info' into site, archi and
// number. Alias identifiers ('3') only carry a number.
func parseNodeKey(node string) nodeKey {
	if n, err := strconv.Atoi(node); err == nil {
		return nodeKey{alias: true, number: n, numeric: true, raw: node}
	}

	key := nodeKey{raw: node}
	parts := strings.Split(node, ".")
	host := parts[0]
	if len(parts) > 1 {
		key.site = parts[1]
	}

	idx := strings.LastIndex(host, "-")
	if idx < 0 {
		key.archi = host
		return key
	}
	key.archi = host[:idx]
	if n, err := strconv.Atoi(host[idx+1:]); err == nil {
		key.number = n
		key.numeric = true
	} else {
		key.archi = host
	}
	return key
}

// NodeLess orders nodes by site, then archi, then node number, so that
// 'm3-2' comes before 'm3-10'.
func NodeLess(a, b string) bool {
	ka, kb := parseNodeKey(a), parseNodeKey(b)

	if ka.alias != kb.alias {
		return ka.alias
	}
	if ka.site != kb.site {
		return ka.site < kb.site
	}
	if ka.archi != kb.archi {
		return ka.archi < kb.archi
	}
	if ka.numeric && kb.numeric && ka.number != kb.number {
		return ka.number < kb.number
	}
	return ka.raw < kb.raw
}

// SortNodes sorts nodes in place with NodeLess.
func SortNodes(nodes []string) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return NodeLess(nodes[i], nodes[j])
	})
}

// UniqueSortedNodes returns a sorted copy of nodes without duplicates.
func UniqueSortedNodes(nodes []string) []string {
	seen := make(map[string]bool, len(nodes))
	unique := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if !seen[node] {
			seen[node] = true
			unique = append(unique, node)
		}
	}
	SortNodes(unique)
	return unique
}
