package blueprint

import (
	"strings"
)

// Node places a Record in the inheritance tree. Children keep insertion
// order; the parent pointer exists for upward traversal only and the tree
// owns every node through Root.
type Node struct {
	Record   *Record
	Parent   *Node
	Children []*Node
}

// ID returns the node's blueprint identifier.
func (n *Node) ID() string {
	return n.Record.ID
}

// InheritsFrom reports whether the node is, or descends from, the named
// blueprint.
func (n *Node) InheritsFrom(id string) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Record.ID == id {
			return true
		}
	}
	return false
}

// Chain returns the ancestor chain from the root to the node, inclusive.
func (n *Node) Chain() []*Node {
	var chain []*Node
	for cur := n; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// InheritancePath renders the root-to-node chain as readable text.
func (n *Node) InheritancePath() string {
	chain := n.Chain()
	parts := make([]string, len(chain))
	for i, node := range chain {
		parts[i] = node.Record.ID
	}
	return strings.Join(parts, "➜")
}

// Tree is the fully linked blueprint hierarchy plus an O(1) index by ID. It
// is immutable once built; concurrent readers need no locking.
type Tree struct {
	Root  *Node
	Index map[string]*Node
}

// Get returns the node for an ID, or nil if no blueprint declares it.
func (t *Tree) Get(id string) *Node {
	return t.Index[id]
}

// BuildTree links records into a single-rooted tree. Linking is two-pass
// because parents may be declared after their children: the first pass
// indexes every record, the second attaches parent pointers and verifies the
// result is a single acyclic tree.
func BuildTree(records []*Record) (*Tree, error) {
	index := make(map[string]*Node, len(records))
	for _, rec := range records {
		if _, ok := index[rec.ID]; ok {
			return nil, &DuplicateBlueprintError{ID: rec.ID}
		}
		index[rec.ID] = &Node{Record: rec}
	}

	var roots []*Node
	for _, rec := range records {
		node := index[rec.ID]
		if rec.ParentID == "" {
			roots = append(roots, node)
			continue
		}

		parent, ok := index[rec.ParentID]
		if !ok {
			return nil, &UnresolvedParentError{ID: rec.ID, Parent: rec.ParentID}
		}
		node.Parent = parent
		parent.Children = append(parent.Children, node)

		if cycle := findCycle(node); cycle != nil {
			return nil, &CyclicInheritanceError{Cycle: cycle}
		}
	}

	switch len(roots) {
	case 0:
		return nil, &NoRootError{}
	case 1:
	default:
		ids := make([]string, len(roots))
		for i, r := range roots {
			ids[i] = r.Record.ID
		}
		return nil, &MultipleRootsError{Roots: ids}
	}

	return &Tree{Root: roots[0], Index: index}, nil
}

// findCycle walks upward from the newly attached node and returns the cycle
// path if the walk revisits it.
func findCycle(node *Node) []string {
	path := []string{node.Record.ID}
	for cur := node.Parent; cur != nil; cur = cur.Parent {
		path = append(path, cur.Record.ID)
		if cur == node {
			return path
		}
	}
	return nil
}
