// Package categories expands a category selection so that every selected category's parents are
// selected as well.
package categories

import (
	"strings"
	"sync"

	"github.com/hanko-field/product-editor/internal/domain"
)

// Resolver answers ancestor queries against one snapshot of the category tree. Chains are
// memoised per target id for the lifetime of the resolver; build a new resolver whenever the
// tree may have changed.
type Resolver struct {
	root domain.CategoryNode

	mu     sync.Mutex
	chains map[string][]string
}

// NewResolver constructs a resolver over the supplied tree snapshot.
func NewResolver(root domain.CategoryNode) *Resolver {
	return &Resolver{
		root:   root,
		chains: make(map[string][]string),
	}
}

// AncestorChain returns the ancestor ids of target in root-to-parent order, excluding target
// itself. The result is empty when target is the tree root, blank, or not present. Nodes
// without an id are treated as virtual roots and never appear in a chain.
func (r *Resolver) AncestorChain(target string) []string {
	target = strings.TrimSpace(target)
	if target == "" {
		return []string{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	chain, ok := r.chains[target]
	if !ok {
		chain = r.search(target)
		r.chains[target] = chain
	}
	return append([]string(nil), chain...)
}

func (r *Resolver) search(target string) []string {
	if r.root.ID == target {
		return []string{}
	}
	path := make([]string, 0, 8)
	if found, ok := walk(r.root, target, path); ok {
		return found
	}
	return []string{}
}

func walk(node domain.CategoryNode, target string, path []string) ([]string, bool) {
	if node.ID != "" {
		path = append(path, node.ID)
	}
	for _, child := range node.Children {
		if child.ID == target {
			return append([]string(nil), path...), true
		}
		if found, ok := walk(child, target, path); ok {
			return found, true
		}
	}
	return nil, false
}

// EnsureParentsSelected returns the selection extended with every ancestor of every selected
// id. Selected ids keep their order and come first; ancestors follow in discovery order.
// Duplicates and blank ids are dropped, so applying it twice yields the same result.
func (r *Resolver) EnsureParentsSelected(selected []string) []string {
	out := make([]string, 0, len(selected))
	seen := make(map[string]struct{}, len(selected))
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	ids := make([]string, 0, len(selected))
	for _, id := range selected {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		ids = append(ids, id)
		add(id)
	}
	for _, id := range ids {
		for _, ancestor := range r.AncestorChain(id) {
			add(ancestor)
		}
	}
	return out
}
