package blueprint

import (
	"strconv"
	"strings"

	"github.com/pixil98/go-blueprints/internal/display"
	"github.com/pixil98/go-blueprints/internal/markup"
)

// The property catalog maps query names to accessor functions. Accessors
// compute from the merged fragment view; Resolve memoizes their results per
// (node, property).
type propFn func(r *Resolver, n *Node) any

var properties = map[string]propFn{
	"displayname": func(r *Resolver, n *Node) any {
		raw, ok := r.Attr(n, "part", "Render", "DisplayName")
		if !ok {
			return n.Record.ID
		}
		return display.StripColors(raw)
	},
	"description": func(r *Resolver, n *Node) any {
		return r.description(n)
	},
	"gender": func(r *Resolver, n *Node) any {
		v, _ := r.Tag(n, "Gender")
		return v
	},
	"damage": func(r *Resolver, n *Node) any {
		raw, ok := r.Attr(n, "part", "MeleeWeapon", "BaseDamage")
		if !ok {
			return ""
		}
		if _, err := ParseDice(raw); err != nil {
			r.recordTypeError(n, "damage", raw, err)
			return ""
		}
		return raw
	},
	"penetration": func(r *Resolver, n *Node) any {
		return r.IntAttr(n, "part", "MeleeWeapon", "PenBonus", 0)
	},
	"av": func(r *Resolver, n *Node) any {
		return r.IntAttr(n, "part", "Armor", "AV", 0)
	},
	"dv": func(r *Resolver, n *Node) any {
		return r.IntAttr(n, "part", "Armor", "DV", 0)
	},
	"weight": func(r *Resolver, n *Node) any {
		return r.IntAttr(n, "part", "Physics", "Weight", 0)
	},
	"commerce": func(r *Resolver, n *Node) any {
		return r.FloatAttr(n, "part", "Commerce", "Value", 0)
	},
	"complexity": func(r *Resolver, n *Node) any {
		return r.IntAttr(n, "part", "Examiner", "Complexity", 0)
	},
	"hitpoints": func(r *Resolver, n *Node) any {
		return r.statValue(n, "Hitpoints")
	},
	"strength":     statProp("Strength"),
	"agility":      statProp("Agility"),
	"toughness":    statProp("Toughness"),
	"intelligence": statProp("Intelligence"),
	"willpower":    statProp("Willpower"),
	"ego":          statProp("Ego"),
	"renderlayer": func(r *Resolver, n *Node) any {
		return r.IntAttr(n, "part", "Render", "RenderLayer", 0)
	},
	"tile": func(r *Resolver, n *Node) any {
		v, _ := r.Attr(n, "part", "Render", "Tile")
		return v
	},
	"glyph": func(r *Resolver, n *Node) any {
		return r.glyph(n)
	},
	"colorstring": func(r *Resolver, n *Node) any {
		v, _ := r.Attr(n, "part", "Render", "ColorString")
		return v
	},
	"forecolor": func(r *Resolver, n *Node) any {
		return display.ExtractForeground(r.renderColor(n), "y")
	},
	"backcolor": func(r *Resolver, n *Node) any {
		return display.ExtractBackground(r.renderColor(n), "k")
	},
	"pronouns": func(r *Resolver, n *Node) any {
		if gender, ok := r.Tag(n, "Gender"); ok && r.pronouns != nil {
			if set := r.pronouns.Get(gender); set != nil {
				return set.Selector()
			}
		}
		return ""
	},
	"tilecolor": func(r *Resolver, n *Node) any {
		v, _ := r.Attr(n, "part", "Render", "TileColor")
		return v
	},
	"detailcolor": func(r *Resolver, n *Node) any {
		v, _ := r.Attr(n, "part", "Render", "DetailColor")
		return v
	},
	"inheritancepath": func(r *Resolver, n *Node) any {
		return n.InheritancePath()
	},
}

func statProp(stat string) propFn {
	return func(r *Resolver, n *Node) any {
		return r.statValue(n, stat)
	}
}

// Resolve answers a typed property query by name. Results are memoized per
// (node, property) for the lifetime of the tree. Unknown names are a
// programming error, fatal to this call only.
func (r *Resolver) Resolve(node *Node, property string) (any, error) {
	fn, ok := properties[property]
	if !ok {
		return nil, &UnknownPropertyError{Property: property}
	}

	key := propKey{node: node, prop: property}
	r.mu.Lock()
	if v, ok := r.props[key]; ok {
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	// Compute outside the lock; accessors take it themselves. Two readers
	// racing on first access compute the same value, so storing either is
	// safe.
	v := fn(r, node)

	r.mu.Lock()
	if prev, ok := r.props[key]; ok {
		v = prev
	} else {
		r.props[key] = v
	}
	r.mu.Unlock()
	return v, nil
}

// Properties lists the known property names.
func Properties() []string {
	out := make([]string, 0, len(properties))
	for name := range properties {
		out = append(out, name)
	}
	return out
}

// renderColor returns the color string the tile colors derive from.
// TileColor wins over ColorString.
func (r *Resolver) renderColor(n *Node) string {
	if v, ok := r.Attr(n, "part", "Render", "TileColor"); ok && v != "" {
		return v
	}
	v, _ := r.Attr(n, "part", "Render", "ColorString")
	return v
}

// statValue returns a stat's dice string, preferring the scaling sValue form
// over the flat Value form the way the data does.
func (r *Resolver) statValue(n *Node, stat string) string {
	if v, ok := r.Attr(n, "stat", stat, "sValue"); ok {
		return v
	}
	v, _ := r.Attr(n, "stat", stat, "Value")
	return v
}

// StatRange analyzes a stat's dice string into its minimum, average, and
// maximum values.
func (r *Resolver) StatRange(n *Node, stat string) (min int, avg float64, max int, err error) {
	raw := r.statValue(n, stat)
	if raw == "" {
		return 0, 0, 0, nil
	}
	d, err := ParseDice(raw)
	if err != nil {
		r.recordTypeError(n, "stat."+stat, raw, err)
		return 0, 0, 0, err
	}
	return d.Minimum(), d.Average(), d.Maximum(), nil
}

// description resolves the short description with pronoun placeholders
// substituted from the blueprint's gender configuration. Unresolvable
// placeholders stay verbatim and are collected as diagnostics.
func (r *Resolver) description(n *Node) string {
	raw, ok := r.Attr(n, "part", "Description", "Short")
	if !ok {
		return ""
	}

	var set *Pronoun
	if gender, ok := r.Tag(n, "Gender"); ok && r.pronouns != nil {
		set = r.pronouns.Get(gender)
	}

	out, unresolved := substitutePronouns(raw, set)

	if len(unresolved) > 0 {
		r.mu.Lock()
		r.addDiag(n, "description", "unresolved placeholders: "+strings.Join(unresolved, ", "))
		r.mu.Unlock()
	}
	return out
}

// glyph returns the blueprint's display character. Numeric render strings
// index into Code Page 437.
func (r *Resolver) glyph(n *Node) string {
	raw, ok := r.Attr(n, "part", "Render", "RenderString")
	if !ok || raw == "" {
		return ""
	}
	if cp, err := strconv.Atoi(raw); err == nil && cp >= 0 && cp < 256 {
		return string(markup.DecodeCP437(cp))
	}
	return raw
}

// RenderAttributes is the subset of resolved properties the tile compositor
// consumes.
type RenderAttributes struct {
	ID          string
	Tile        string
	Glyph       string
	ColorString string
	TileColor   string
	DetailColor string

	// Standin names a drawn glyph pattern for blueprints that render
	// without a tile file, such as gases.
	Standin string

	Layers []RenderLayer
}

// RenderLayer is one overlay composited on top of the base tile, in
// declaration order along the chain.
type RenderLayer struct {
	Tile        string
	Color       string
	DetailColor string
}

// HasTile reports whether the blueprint qualifies for tile rendering. Base
// markers exclude abstract blueprints that exist only to be inherited from.
func (r *Resolver) HasTile(n *Node) bool {
	if _, base := r.Tag(n, "BaseObject"); base {
		return false
	}
	if v, ok := r.Attr(n, "part", "Render", "Tile"); ok && v != "" {
		return true
	}
	return r.HasPart(n, "Gas")
}

// RenderAttributes assembles the resolved rendering view for a node.
func (r *Resolver) RenderAttributes(n *Node) RenderAttributes {
	attrs := RenderAttributes{ID: n.Record.ID}
	attrs.Tile, _ = r.Attr(n, "part", "Render", "Tile")
	attrs.Glyph = r.glyph(n)
	attrs.ColorString, _ = r.Attr(n, "part", "Render", "ColorString")
	attrs.TileColor, _ = r.Attr(n, "part", "Render", "TileColor")
	attrs.DetailColor, _ = r.Attr(n, "part", "Render", "DetailColor")
	if attrs.Tile == "" && r.HasPart(n, "Gas") {
		attrs.Standin = "gas"
	}
	attrs.Layers = r.overlays(n)
	return attrs
}

// overlays collects overlay fragments in declaration order from the root
// down, keeping only those that survive the merge.
func (r *Resolver) overlays(n *Node) []RenderLayer {
	r.mu.Lock()
	merged := r.mergedLocked(n)["overlay"]
	r.mu.Unlock()
	if len(merged) == 0 {
		return nil
	}

	var layers []RenderLayer
	added := map[string]bool{}
	for _, node := range n.Chain() {
		for _, frag := range node.Record.Fragments {
			if frag.Kind != "overlay" || added[frag.Name] {
				continue
			}
			attrs, ok := merged[frag.Name]
			if !ok {
				continue
			}
			added[frag.Name] = true
			layers = append(layers, RenderLayer{
				Tile:        attrs["Tile"],
				Color:       attrs["Color"],
				DetailColor: attrs["DetailColor"],
			})
		}
	}
	return layers
}
