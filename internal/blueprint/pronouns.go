package blueprint

import (
	"fmt"
	"regexp"
	"strings"
)

// Pronoun defines one grammatical pronoun set loaded from asset files.
// Blueprints select a set through their gender configuration; description
// text references the set through =pronouns.<field>= placeholders.
type Pronoun struct {
	Subjective string            `json:"subjective"`
	Objective  string            `json:"objective"`
	Possessive pronounPossessive `json:"possessive"`
	Reflexive  string            `json:"reflexive"`
}

type pronounPossessive struct {
	Adjective string `json:"adjective"`
	Pronoun   string `json:"pronoun"`
}

func (p *Pronoun) Validate() error {
	if p.Subjective == "" || p.Objective == "" {
		return fmt.Errorf("subjective and objective forms are required")
	}
	return nil
}

func (p *Pronoun) Selector() string {
	return fmt.Sprintf("%s/%s", p.Subjective, p.Objective)
}

// field returns the pronoun form for a placeholder key.
func (p *Pronoun) field(key string) (string, bool) {
	switch strings.ToLower(key) {
	case "subjective":
		return p.Subjective, true
	case "objective":
		return p.Objective, true
	case "possessive":
		return p.Possessive.Adjective, true
	case "substantivepossessive":
		return p.Possessive.Pronoun, true
	case "reflexive":
		return p.Reflexive, true
	}
	return "", false
}

// PronounSource supplies pronoun sets by identifier. The generic asset store
// satisfies it.
type PronounSource interface {
	Get(string) *Pronoun
}

var pronounPlaceholder = regexp.MustCompile(`=pronouns\.([a-zA-Z]+)=`)

// substitutePronouns replaces placeholder tokens in text with the forms from
// the given pronoun set. Unresolvable placeholders are left verbatim and
// returned so the caller can report them; substitution never fails.
func substitutePronouns(text string, p *Pronoun) (string, []string) {
	var unresolved []string
	out := pronounPlaceholder.ReplaceAllStringFunc(text, func(m string) string {
		key := pronounPlaceholder.FindStringSubmatch(m)[1]
		if p != nil {
			if v, ok := p.field(key); ok {
				return v
			}
		}
		unresolved = append(unresolved, m)
		return m
	})
	return out, unresolved
}
