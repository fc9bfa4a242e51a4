package chargen

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pixil98/go-errors"
)

// Character build codes pack a whole starting character into a short string:
// one genotype letter, one subtype letter, then two-letter codes for each
// mutation or implant. The tables mapping codes to names live partly in the
// game's markup files and partly nowhere at all; the hardcoded maps below
// cover the latter.

// StatNames fixes the order stat bonus vectors are expressed in.
var StatNames = [6]string{"Strength", "Agility", "Toughness", "Intelligence", "Willpower", "Ego"}

// implantCodes are not present in any markup file.
var implantCodes = map[string]string{
	"00": "none",
	"01": "dermal insulation",
	"04": "optical bioscanner",
	"05": "optical technoscanner",
	"06": "night vision",
	"07": "hyper-elastic ankle tendons",
	"08": "parabolic muscular subroutine",
	"09": "translucent skin",
	"11": "stabilizer arm locks",
	"12": "rapid release finger flexors",
	"13": "carbide hand bones",
	"14": "pentaceps",
	"15": "inflatable axons",
}

// ModBonuses lists the stat bonuses granted by codes that carry them, in
// StatNames order. Not present in any markup file.
var ModBonuses = map[string][6]int{
	"BE": {2, 0, 0, 0, 0, 0}, // Double-muscled
	"B2": {0, 2, 0, 0, 0, 0}, // Triple-jointed
	"B4": {0, 0, 2, 0, 0, 0}, // Two-hearted
	"CD": {0, 0, 0, 0, 0, 1}, // Beak
	"00": {0, 0, 1, 0, 0, 0}, // True Kin but no implant
}

// MutationVariants lists the selectable variants behind one mutation code.
var MutationVariants = map[string][]string{
	"CD": {"Beak", "Bill", "Rostrum", "Frill", "Proboscis"},
	"BH": {"Flaming Ray (Hands)", "Flaming Ray (Face)", "Flaming Ray (Feet)"},
	"BI": {"Freezing Ray (Hands)", "Freezing Ray (Face)", "Freezing Ray (Feet)"},
	"BL": {"Horns", "Horn", "Antlers", "Casque"},
	"16": {"nocturnal apex", "cherubic visage", "air current microsensor"},
}

// ClassTile is the portrait tile assigned to a caste or calling.
type ClassTile struct {
	Tile        string
	DetailColor string
}

// Codes aggregates every table needed to decode a character build code.
type Codes struct {
	Genotypes map[string]string
	Castes    map[string]string
	Callings  map[string]string
	Mods      map[string]string

	ClassBonuses map[string][6]int
	ClassSkills  map[string][]string
	ClassTiles   map[string]ClassTile
}

type xmlGenotypes struct {
	Genotypes []struct {
		Name string `xml:"Name,attr"`
		Code string `xml:"Code,attr"`
	} `xml:"genotype"`
}

type xmlSkills struct {
	Categories []struct {
		Class  string `xml:"Class,attr"`
		Name   string `xml:"Name,attr"`
		Powers []struct {
			Class string `xml:"Class,attr"`
			Name  string `xml:"Name,attr"`
		} `xml:"power"`
	} `xml:"skill"`
}

type xmlSubtype struct {
	Name        string `xml:"Name,attr"`
	Code        string `xml:"Code,attr"`
	Tile        string `xml:"Tile,attr"`
	DetailColor string `xml:"DetailColor,attr"`
	Stats       []struct {
		Name  string `xml:"Name,attr"`
		Bonus int    `xml:"Bonus,attr"`
	} `xml:"stat"`
	Skills []struct {
		Name string `xml:"Name,attr"`
	} `xml:"skills>skill"`
}

type xmlSubtypes struct {
	Classes []struct {
		ID         string `xml:"ID,attr"`
		Categories []struct {
			Subtypes []xmlSubtype `xml:"subtype"`
		} `xml:"category"`
		Subtypes []xmlSubtype `xml:"subtype"`
	} `xml:"class"`
}

type xmlMutations struct {
	Categories []struct {
		Name      string `xml:"Name,attr"`
		Mutations []struct {
			Name string `xml:"Name,attr"`
			Code string `xml:"Code,attr"`
		} `xml:"mutation"`
	} `xml:"category"`
}

// LoadCodes reads the character code tables from the markup files under dir:
// Genotypes.xml, Skills.xml, Subtypes.xml, and Mutations.xml.
func LoadCodes(dir string) (*Codes, error) {
	c := &Codes{
		Genotypes:    map[string]string{},
		Castes:       map[string]string{},
		Callings:     map[string]string{},
		Mods:         map[string]string{},
		ClassBonuses: map[string][6]int{},
		ClassSkills:  map[string][]string{},
		ClassTiles:   map[string]ClassTile{},
	}

	var geno xmlGenotypes
	if err := readXML(filepath.Join(dir, "Genotypes.xml"), &geno); err != nil {
		return nil, err
	}
	for _, g := range geno.Genotypes {
		c.Genotypes[strings.ToUpper(g.Code)] = g.Name
	}

	// Skill class names resolve the subtype power lists below
	var skills xmlSkills
	if err := readXML(filepath.Join(dir, "Skills.xml"), &skills); err != nil {
		return nil, err
	}
	skillNames := map[string]string{}
	for _, cat := range skills.Categories {
		skillNames[cat.Class] = "(" + cat.Name + ")"
		for _, p := range cat.Powers {
			skillNames[p.Class] = p.Name
		}
	}

	var subtypes xmlSubtypes
	if err := readXML(filepath.Join(dir, "Subtypes.xml"), &subtypes); err != nil {
		return nil, err
	}
	el := errors.NewErrorList()
	for i, class := range subtypes.Classes {
		// Castes nest under arcology categories; callings sit directly
		// under their class.
		all := class.Subtypes
		for _, cat := range class.Categories {
			all = append(all, cat.Subtypes...)
		}

		codes := c.Castes
		if i > 0 {
			codes = c.Callings
		}
		for _, sub := range all {
			codes[strings.ToUpper(sub.Code)] = sub.Name
			el.Add(c.addClass(sub, skillNames))
		}
	}
	if err := el.Err(); err != nil {
		return nil, err
	}

	var muts xmlMutations
	if err := readXML(filepath.Join(dir, "Mutations.xml"), &muts); err != nil {
		return nil, err
	}
	for _, cat := range muts.Categories {
		// Defects are marked the way the game displays them
		suffix := ""
		if cat.Name == "PhysicalDefects" || cat.Name == "MentalDefects" {
			suffix = " (D)"
		}
		for _, m := range cat.Mutations {
			c.Mods[strings.ToUpper(m.Code)] = m.Name + suffix
		}
	}
	for code, name := range implantCodes {
		c.Mods[code] = name
	}
	// Implant 16 is one of three cybernetics chosen by subtype group
	c.Mods["16"] = strings.Join(MutationVariants["16"], " or ")

	// Unstable Genome occupies five numbered codes instead of its own
	delete(c.Mods, "UU")
	for i := 1; i <= 5; i++ {
		c.Mods[fmt.Sprintf("U%d", i)] = fmt.Sprintf("Unstable Genome (%d)", i)
	}

	return c, nil
}

func (c *Codes) addClass(sub xmlSubtype, skillNames map[string]string) error {
	var bonuses [6]int
	for _, stat := range sub.Stats {
		for i, name := range StatNames {
			if stat.Name == name {
				bonuses[i] = stat.Bonus
			}
		}
	}
	c.ClassBonuses[sub.Name] = bonuses

	var powers []string
	for _, s := range sub.Skills {
		name, ok := skillNames[s.Name]
		if !ok {
			return fmt.Errorf("subtype %s references unknown skill %s", sub.Name, s.Name)
		}
		powers = append(powers, name)
	}
	c.ClassSkills[sub.Name] = powers
	c.ClassTiles[sub.Name] = ClassTile{Tile: sub.Tile, DetailColor: sub.DetailColor}
	return nil
}

func readXML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}
