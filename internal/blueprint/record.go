package blueprint

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// A Record is one declared blueprint: an ID, an optional parent reference,
// and the ordered fragments ("parts", "tags" and anything else the markup
// declares) attached to it. Records are plain data; inheritance is resolved
// later against the built tree.
type Record struct {
	ID       string
	ParentID string

	// Fragments preserves declaration order. Unknown fragment kinds are
	// retained verbatim so the resolver can merge kinds it has no special
	// knowledge of.
	Fragments []Fragment

	// Source is the post-repair markup this record was parsed from.
	Source string

	declared fragmentMap
}

// Fragment is a named grouping of attributes attached to a blueprint. Kind is
// the markup element name ("part", "tag", "stat", ...).
type Fragment struct {
	Kind  string
	Name  string
	Attrs map[string]string
}

// fragmentMap indexes fragment attributes as kind -> name -> attribute ->
// value. The same shape is used for a single record's declarations and for
// the fully merged inheritance view.
type fragmentMap map[string]map[string]map[string]string

func (m fragmentMap) set(kind, name string, attrs map[string]string) {
	if m[kind] == nil {
		m[kind] = map[string]map[string]string{}
	}
	if existing, ok := m[kind][name]; ok {
		// A record may declare the same fragment twice; the first
		// declaration wins per attribute.
		for k, v := range attrs {
			if _, ok := existing[k]; !ok {
				existing[k] = v
			}
		}
		return
	}
	m[kind][name] = attrs
}

func (m fragmentMap) clone() fragmentMap {
	out := make(fragmentMap, len(m))
	for kind, byName := range m {
		out[kind] = make(map[string]map[string]string, len(byName))
		for name, attrs := range byName {
			cp := make(map[string]string, len(attrs))
			for k, v := range attrs {
				cp[k] = v
			}
			out[kind][name] = cp
		}
	}
	return out
}

// Declared returns the record's own fragment attributes, without any
// inherited values.
func (r *Record) Declared() map[string]map[string]map[string]string {
	return r.declared
}

// Tag returns the value of a declared tag fragment and whether it exists.
func (r *Record) Tag(name string) (string, bool) {
	attrs, ok := r.declared["tag"][name]
	if !ok {
		return "", false
	}
	return attrs["Value"], true
}

// parseRecords extracts every blueprint element from one well-formed markup
// document. The markup must already have passed the repair stage.
func parseRecords(contents string) ([]*Record, error) {
	var records []*Record

	dec := xml.NewDecoder(strings.NewReader(contents))
	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("tokenizing markup: %w", err)
		}

		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Local != "object" {
			continue
		}

		rec, err := parseRecord(dec, el)
		if err != nil {
			return nil, err
		}
		rec.Source = strings.TrimSpace(contents[start:dec.InputOffset()])
		records = append(records, rec)
	}
}

// parseRecord consumes one blueprint element and its children.
func parseRecord(dec *xml.Decoder, el xml.StartElement) (*Record, error) {
	rec := &Record{declared: fragmentMap{}}
	for _, a := range el.Attr {
		switch a.Name.Local {
		case "Name":
			rec.ID = a.Value
		case "Inherits":
			rec.ParentID = a.Value
		}
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("blueprint element missing Name attribute")
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("blueprint %q: %w", rec.ID, err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return rec, nil
		case xml.StartElement:
			frag, keep := parseFragment(t)
			if keep {
				rec.Fragments = append(rec.Fragments, frag)
				rec.declared.set(frag.Kind, frag.Name, frag.Attrs)
			}
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("blueprint %q fragment %s: %w", rec.ID, t.Name.Local, err)
			}
		}
	}
}

// parseFragment maps one child element to a Fragment. Elements that carry no
// usable name are dropped, mirroring how the game itself loads blueprints:
// most kinds are named by their Name attribute, xtag kinds fold the name into
// the element tag, and inventoryobject entries are named by their Blueprint
// reference.
func parseFragment(el xml.StartElement) (Fragment, bool) {
	kind := el.Name.Local
	attrs := make(map[string]string, len(el.Attr))
	for _, a := range el.Attr {
		attrs[a.Name.Local] = a.Value
	}

	var name string
	if n, ok := attrs["Name"]; ok {
		name = n
		delete(attrs, "Name")
	} else if strings.HasPrefix(kind, "xtag") && len(kind) > 4 {
		name = kind[4:]
		kind = "xtag"
	} else if kind == "inventoryobject" {
		name = attrs["Blueprint"]
		delete(attrs, "Blueprint")
	} else {
		return Fragment{}, false
	}

	return Fragment{Kind: kind, Name: name, Attrs: attrs}, true
}
