package blueprint

import (
	"errors"
	"testing"

	"github.com/pixil98/go-testutil"
)

type stubPronouns map[string]*Pronoun

func (s stubPronouns) Get(id string) *Pronoun {
	return s[id]
}

const creatureMarkup = `<objects>
	<object Name="Object" />
	<object Name="Creature" Inherits="Object">
		<part Name="Render" DisplayName="creature" RenderString="15" />
		<part Name="MeleeWeapon" BaseDamage="1d2" />
		<stat Name="Hitpoints" Value="10" />
		<stat Name="Strength" Value="12" />
	</object>
	<object Name="Snapjaw" Inherits="Creature">
		<part Name="Render" DisplayName="&amp;Ysnapjaw" Tile="creatures/snapjaw.png" />
		<part Name="Description" Short="A scrawny humanoid. =pronouns.Subjective= clutches =pronouns.possessive= club." />
		<tag Name="Gender" Value="feminine" />
		<stat Name="Strength" sValue="14,1d3" Value="14" />
	</object>
</objects>`

func creatureResolver(t *testing.T) (*Tree, *Resolver) {
	t.Helper()
	return mustResolver(t, creatureMarkup, WithPronouns(stubPronouns{
		"feminine": testPronoun,
	}))
}

func TestResolve_DisplayName(t *testing.T) {
	tree, r := creatureResolver(t)

	v, err := r.Resolve(tree.Get("Snapjaw"), "displayname")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "color codes stripped", v, "snapjaw")

	// Blueprints with no display name fall back to their ID
	v, err = r.Resolve(tree.Get("Object"), "displayname")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "fallback", v, "Object")
}

func TestResolve_DamageInherited(t *testing.T) {
	tree, r := creatureResolver(t)

	v, err := r.Resolve(tree.Get("Snapjaw"), "damage")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "inherited damage", v, "1d2")
}

func TestResolve_DamageInvalid(t *testing.T) {
	tree, r := mustResolver(t, `<objects>
	<object Name="Object">
		<part Name="MeleeWeapon" BaseDamage="1dfish" />
	</object>
</objects>`)

	v, err := r.Resolve(tree.Get("Object"), "damage")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "invalid damage empty", v, "")
	testutil.AssertEqual(t, "diagnostic recorded", len(r.Diagnostics()), 1)
}

func TestResolve_Description(t *testing.T) {
	tree, r := creatureResolver(t)

	v, err := r.Resolve(tree.Get("Snapjaw"), "description")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "pronouns substituted", v,
		"A scrawny humanoid. she clutches her club.")
	testutil.AssertEqual(t, "no diagnostics", len(r.Diagnostics()), 0)
}

func TestResolve_DescriptionUnresolvedPlaceholder(t *testing.T) {
	tree, r := mustResolver(t, `<objects>
	<object Name="Object">
		<part Name="Description" Short="=pronouns.Subjective= waits." />
	</object>
</objects>`)

	// No gender tag and no pronoun source: placeholders stay verbatim
	v, err := r.Resolve(tree.Get("Object"), "description")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "verbatim", v, "=pronouns.Subjective= waits.")
	testutil.AssertEqual(t, "diagnostic recorded", len(r.Diagnostics()), 1)
}

func TestResolve_Glyph(t *testing.T) {
	tree, r := creatureResolver(t)

	// Numeric render strings index into Code Page 437
	v, err := r.Resolve(tree.Get("Creature"), "glyph")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "cp437 glyph", v, "☼")

	_, r2 := mustResolver(t, `<objects>
	<object Name="Object">
		<part Name="Render" RenderString="w" />
	</object>
</objects>`)
	v, err = r2.Resolve(r2.Tree().Get("Object"), "glyph")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "literal glyph", v, "w")
}

func TestResolve_Stats(t *testing.T) {
	tree, r := creatureResolver(t)

	// The scaling form is preferred over the flat form
	v, err := r.Resolve(tree.Get("Snapjaw"), "strength")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "svalue preferred", v, "14,1d3")

	v, err = r.Resolve(tree.Get("Snapjaw"), "hitpoints")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "inherited hitpoints", v, "10")
}

func TestResolver_StatRange(t *testing.T) {
	tree, r := mustResolver(t, `<objects>
	<object Name="Object">
		<stat Name="Hitpoints" Value="2d6+3" />
	</object>
</objects>`)

	min, avg, max, err := r.StatRange(tree.Get("Object"), "Hitpoints")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "min", min, 5)
	testutil.AssertEqual(t, "avg", avg, 10.0)
	testutil.AssertEqual(t, "max", max, 15)
}

func TestResolve_Colors(t *testing.T) {
	tree, r := mustResolver(t, `<objects>
	<object Name="Object">
		<part Name="Render" ColorString="&amp;r^g" />
	</object>
	<object Name="Widget" Inherits="Object">
		<part Name="Render" TileColor="&amp;c" />
	</object>
</objects>`)

	fore, err := r.Resolve(tree.Get("Object"), "forecolor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "foreground", fore, "r")

	back, err := r.Resolve(tree.Get("Object"), "backcolor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "background", back, "g")

	// TileColor wins over ColorString; a color with no ^ code keeps the
	// default background
	fore, _ = r.Resolve(tree.Get("Widget"), "forecolor")
	testutil.AssertEqual(t, "tilecolor wins", fore, "c")
	back, _ = r.Resolve(tree.Get("Widget"), "backcolor")
	testutil.AssertEqual(t, "default background", back, "k")
}

func TestResolve_Pronouns(t *testing.T) {
	tree, r := creatureResolver(t)

	v, err := r.Resolve(tree.Get("Snapjaw"), "pronouns")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "selector", v, "she/her")

	// No gender configuration means no pronoun set
	v, err = r.Resolve(tree.Get("Object"), "pronouns")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "unset", v, "")
}

func TestResolve_InheritancePath(t *testing.T) {
	tree, r := creatureResolver(t)

	v, err := r.Resolve(tree.Get("Snapjaw"), "inheritancepath")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "path", v, "Object➜Creature➜Snapjaw")
}

func TestResolve_UnknownProperty(t *testing.T) {
	tree, r := creatureResolver(t)

	_, err := r.Resolve(tree.Get("Snapjaw"), "favoritecolor")
	var unknown *UnknownPropertyError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownPropertyError, got %v", err)
	}
	testutil.AssertEqual(t, "property", unknown.Property, "favoritecolor")
}

func TestResolve_Memoized(t *testing.T) {
	tree, r := creatureResolver(t)
	node := tree.Get("Snapjaw")

	first, err := r.Resolve(node, "displayname")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Resolve(node, "displayname")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "stable", first, second)
}

func TestProperties(t *testing.T) {
	names := Properties()
	if len(names) == 0 {
		t.Fatal("expected a property catalog")
	}
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	for _, want := range []string{"displayname", "description", "damage", "tile"} {
		if !found[want] {
			t.Errorf("catalog missing %q", want)
		}
	}
}

func TestResolver_HasTile(t *testing.T) {
	tree, r := mustResolver(t, `<objects>
	<object Name="Object">
		<tag Name="BaseObject" Value="*noinherit" />
	</object>
	<object Name="Widget" Inherits="Object">
		<part Name="Render" Tile="items/widget.png" />
	</object>
	<object Name="Miasma" Inherits="Object">
		<part Name="Gas" />
	</object>
	<object Name="Idea" Inherits="Object" />
</objects>`)

	testutil.AssertEqual(t, "base excluded", r.HasTile(tree.Get("Object")), false)
	testutil.AssertEqual(t, "tile", r.HasTile(tree.Get("Widget")), true)
	testutil.AssertEqual(t, "gas without tile", r.HasTile(tree.Get("Miasma")), true)
	testutil.AssertEqual(t, "nothing to draw", r.HasTile(tree.Get("Idea")), false)
}

func TestResolver_RenderAttributes(t *testing.T) {
	tree, r := mustResolver(t, `<objects>
	<object Name="Object">
		<overlay Name="Aura" Tile="fx/aura.png" Color="&amp;W" />
	</object>
	<object Name="Widget" Inherits="Object">
		<part Name="Render" Tile="items/widget.png" ColorString="&amp;y" TileColor="&amp;c" DetailColor="r" />
		<overlay Name="Crown" Tile="fx/crown.png" Color="&amp;Y" DetailColor="W" />
	</object>
	<object Name="Miasma" Inherits="Object">
		<part Name="Gas" />
		<part Name="Render" ColorString="&amp;g" />
	</object>
</objects>`)

	attrs := r.RenderAttributes(tree.Get("Widget"))
	testutil.AssertEqual(t, "id", attrs.ID, "Widget")
	testutil.AssertEqual(t, "tile", attrs.Tile, "items/widget.png")
	testutil.AssertEqual(t, "tile color", attrs.TileColor, "&c")
	testutil.AssertEqual(t, "detail color", attrs.DetailColor, "r")
	testutil.AssertEqual(t, "no standin", attrs.Standin, "")

	// Overlays come in declaration order from the root down
	testutil.AssertEqual(t, "layer count", len(attrs.Layers), 2)
	testutil.AssertEqual(t, "inherited layer first", attrs.Layers[0].Tile, "fx/aura.png")
	testutil.AssertEqual(t, "declared layer second", attrs.Layers[1].Tile, "fx/crown.png")
	testutil.AssertEqual(t, "layer detail", attrs.Layers[1].DetailColor, "W")

	gas := r.RenderAttributes(tree.Get("Miasma"))
	testutil.AssertEqual(t, "gas tile", gas.Tile, "")
	testutil.AssertEqual(t, "gas standin", gas.Standin, "gas")
	testutil.AssertEqual(t, "gas color", gas.ColorString, "&g")
}
