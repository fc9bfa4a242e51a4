package blueprint

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Resolver answers property queries against a built tree. Merged fragment
// views and typed property values are computed lazily and memoized for the
// lifetime of the tree; the only invalidation is a full reload. A mutex
// guards the caches so concurrent first access from multiple readers cannot
// corrupt them.
type Resolver struct {
	tree *Tree

	mu     sync.Mutex
	merged map[*Node]fragmentMap
	props  map[propKey]any
	diags  []Diagnostic

	// merges counts merge computations so memoization is observable.
	merges int

	pronouns PronounSource
}

type propKey struct {
	node *Node
	prop string
}

// Diagnostic records a recoverable anomaly encountered during resolution.
// Anomalies never abort a batch: one blueprint's bad value must not keep its
// siblings from resolving.
type Diagnostic struct {
	Blueprint string
	Property  string
	Message   string
}

// ResolverOpt configures a Resolver.
type ResolverOpt func(*Resolver)

// WithPronouns supplies the pronoun sets used for description placeholder
// substitution.
func WithPronouns(src PronounSource) ResolverOpt {
	return func(r *Resolver) {
		r.pronouns = src
	}
}

// NewResolver creates a resolver over a built tree.
func NewResolver(tree *Tree, opts ...ResolverOpt) *Resolver {
	r := &Resolver{
		tree:   tree,
		merged: map[*Node]fragmentMap{},
		props:  map[propKey]any{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tree returns the tree this resolver answers queries for.
func (r *Resolver) Tree() *Tree {
	return r.tree
}

// Diagnostics returns a copy of the anomalies collected so far.
func (r *Resolver) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

func (r *Resolver) addDiag(node *Node, prop, msg string) {
	r.diags = append(r.diags, Diagnostic{Blueprint: node.Record.ID, Property: prop, Message: msg})
}

// Attr returns the merged value of one fragment attribute, walking the
// inheritance chain with nearest-declarer-wins semantics.
func (r *Resolver) Attr(node *Node, kind, name, attr string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.mergedLocked(node)[kind][name][attr]
	return v, ok
}

// Fragment returns a copy of one merged fragment's attributes and whether any
// chain member declares it.
func (r *Resolver) Fragment(node *Node, kind, name string) (map[string]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attrs, ok := r.mergedLocked(node)[kind][name]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out, true
}

// HasPart reports whether the merged view contains the named part. An empty
// part is meaningful, so presence is distinct from attribute lookup.
func (r *Resolver) HasPart(node *Node, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.mergedLocked(node)["part"][name]
	return ok
}

// Tag returns the merged value of the named tag.
func (r *Resolver) Tag(node *Node, name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attrs, ok := r.mergedLocked(node)["tag"][name]
	if !ok {
		return "", false
	}
	return attrs["Value"], true
}

// mergedLocked computes the fully merged fragment view for a node, memoizing
// per node. Callers must hold r.mu.
func (r *Resolver) mergedLocked(node *Node) fragmentMap {
	if m, ok := r.merged[node]; ok {
		return m
	}
	r.merges++

	mine := node.Record.declared.clone()
	if node.Parent != nil {
		mergeInherited(mine, r.mergedLocked(node.Parent))
	}
	stripReplaceMarkers(mine)
	r.merged[node] = mine
	return mine
}

// stripReplaceMarkers removes any replace prefix that survived the merge. A
// root declaration, or one whose ancestors never declare the attribute, has
// no accumulation to reset but must not leak the marker into its value.
func stripReplaceMarkers(m fragmentMap) {
	for _, byName := range m {
		for _, attrs := range byName {
			for k, v := range attrs {
				if rest, cut := strings.CutPrefix(v, markerReplace); cut {
					attrs[k] = rest
				}
			}
		}
	}
}

// Inheritance markers understood by the merge. These appear in the raw data
// and control how a declaration interacts with ancestors.
const (
	markerDelete    = "*delete"    // tag value: suppress the inherited tag
	markerNoInherit = "*noinherit" // attribute value: fragment stops here
	markerReplace   = "*replace:"  // value prefix: reset additive accumulation
	removePartKind  = "removepart" // fragment kind: suppress inherited parts
	additiveAttr    = "Additive"   // fragment attribute naming additive attrs
)

// mergeInherited layers an ancestor's merged view under a node's own
// declarations. Override semantics: the node's value wins per attribute.
// Additive semantics: attributes named by a fragment's Additive list
// accumulate root-to-node as a comma-joined list.
func mergeInherited(mine, inherited fragmentMap) {
	removed := mine[removePartKind]

	for kind, byName := range inherited {
		for name, pattrs := range byName {
			cattrs, declared := mine[kind][name]
			if !declared {
				if kind == "part" && removed != nil {
					if _, rm := removed[name]; rm {
						continue
					}
				}
				if _, skip := attrValue(pattrs, markerNoInherit); skip {
					continue
				}
				cp := make(map[string]string, len(pattrs))
				for k, v := range pattrs {
					cp[k] = v
				}
				mine.set(kind, name, cp)
				continue
			}

			if kind == "tag" && cattrs["Value"] == markerDelete {
				delete(mine[kind], name)
				continue
			}

			additive := additiveSet(pattrs, cattrs)
			for attr, pv := range pattrs {
				cv, ok := cattrs[attr]
				switch {
				case !ok:
					cattrs[attr] = pv
				case additive[attr]:
					if rest, cut := strings.CutPrefix(cv, markerReplace); cut {
						cattrs[attr] = rest
					} else {
						cattrs[attr] = pv + "," + cv
					}
				}
				// otherwise the node's own value overrides
			}
		}
	}
}

// attrValue reports whether any attribute of the fragment carries the given
// marker value.
func attrValue(attrs map[string]string, marker string) (string, bool) {
	for k, v := range attrs {
		if v == marker {
			return k, true
		}
	}
	return "", false
}

// additiveSet collects attribute names marked additive by either the
// ancestor's or the node's fragment.
func additiveSet(pattrs, cattrs map[string]string) map[string]bool {
	out := map[string]bool{}
	for _, attrs := range []map[string]string{pattrs, cattrs} {
		list, ok := attrs[additiveAttr]
		if !ok {
			continue
		}
		for _, name := range strings.Split(list, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out[name] = true
			}
		}
	}
	return out
}

// Typed accessors. A value that fails to convert is recorded as a diagnostic
// and the documented default is returned; the batch continues.

// IntAttr resolves an attribute as an integer, with a default when no chain
// member declares it or the declared value does not convert.
func (r *Resolver) IntAttr(node *Node, kind, name, attr string, def int) int {
	raw, ok := r.Attr(node, kind, name, attr)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		r.recordTypeError(node, kind+"."+name+"."+attr, raw, err)
		return def
	}
	return v
}

// FloatAttr resolves an attribute as a decimal.
func (r *Resolver) FloatAttr(node *Node, kind, name, attr string, def float64) float64 {
	raw, ok := r.Attr(node, kind, name, attr)
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		r.recordTypeError(node, kind+"."+name+"."+attr, raw, err)
		return def
	}
	return v
}

// BoolAttr resolves an attribute as a boolean. The data uses yes/no and
// true/false interchangeably.
func (r *Resolver) BoolAttr(node *Node, kind, name, attr string, def bool) bool {
	raw, ok := r.Attr(node, kind, name, attr)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "true":
		return true
	case "no", "false":
		return false
	}
	r.recordTypeError(node, kind+"."+name+"."+attr, raw, fmt.Errorf("not a boolean"))
	return def
}

// IntSumAttr resolves an additive attribute as the sum of its accumulated
// contributions.
func (r *Resolver) IntSumAttr(node *Node, kind, name, attr string, def int) int {
	raw, ok := r.Attr(node, kind, name, attr)
	if !ok {
		return def
	}
	sum := 0
	for _, piece := range strings.Split(raw, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(piece))
		if err != nil {
			r.recordTypeError(node, kind+"."+name+"."+attr, raw, err)
			return def
		}
		sum += v
	}
	return sum
}

func (r *Resolver) recordTypeError(node *Node, prop, raw string, err error) {
	terr := &PropertyTypeError{ID: node.Record.ID, Property: prop, Value: raw, Err: err}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.addDiag(node, prop, terr.Error())
}
