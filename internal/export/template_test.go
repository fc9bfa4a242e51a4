package export

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pixil98/go-blueprints/internal/blueprint"
	"github.com/pixil98/go-blueprints/internal/render"
	"github.com/pixil98/go-testutil"
)

func testResolver(t *testing.T) *blueprint.Resolver {
	t.Helper()

	records, _, err := blueprint.Parse("test.xml", `<objects>
	<object Name="Object" />
	<object Name="Club" Inherits="Object">
		<part Name="Render" DisplayName="wooden club" />
		<part Name="Description" Short="A club of knotted wood." />
		<part Name="MeleeWeapon" BaseDamage="1d4" />
		<part Name="Physics" Weight="8" />
		<stat Name="Hitpoints" Value="25" />
	</object>
</objects>`)
	if err != nil {
		t.Fatalf("failed to parse test markup: %v", err)
	}
	tree, err := blueprint.BuildTree(records)
	if err != nil {
		t.Fatalf("failed to build test tree: %v", err)
	}
	return blueprint.NewResolver(tree)
}

func TestSummarize(t *testing.T) {
	r := testResolver(t)

	s, err := Summarize(r, r.Tree().Get("Club"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "id", s.ID, "Club")
	testutil.AssertEqual(t, "display name", s.DisplayName, "wooden club")
	testutil.AssertEqual(t, "description", s.Description, "A club of knotted wood.")
	testutil.AssertEqual(t, "path", s.Path, "Object➜Club")
	testutil.AssertEqual(t, "damage", s.Damage, "1d4")
	testutil.AssertEqual(t, "hitpoints", s.Hitpoints, "25")
	testutil.AssertEqual(t, "weight", s.Weight, 8)
}

func TestSummarize_WrapWidth(t *testing.T) {
	r := testResolver(t)

	s, err := Summarize(r, r.Tree().Get("Club"), 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, line := range strings.Split(s.Description, "\n") {
		if len(line) > 12 {
			t.Errorf("line %q exceeds wrap width", line)
		}
	}
}

func TestExpandTemplate(t *testing.T) {
	r := testResolver(t)
	s, err := Summarize(r, r.Tree().Get("Club"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := ExpandTemplate(DefaultSummaryTemplate, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Wooden Club", "Object➜Club", "Damage: 1d4", "HP: 25", "Weight: 8"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestExpandTemplate_Invalid(t *testing.T) {
	if _, err := ExpandTemplate("{{ .Broken", nil); err == nil {
		t.Error("expected parse error")
	}
	if _, err := ExpandTemplate("{{ fail \"boom\" }}", nil); err == nil {
		t.Error("expected execution error")
	}
}

func TestExporter(t *testing.T) {
	r := testResolver(t)
	outDir := filepath.Join(t.TempDir(), "out")

	e := NewExporter(r, outDir)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "Club.txt"))
	if err != nil {
		t.Fatalf("expected Club summary: %v", err)
	}
	if !strings.Contains(string(data), "Wooden Club") {
		t.Errorf("summary missing display name:\n%s", data)
	}

	// Every blueprint gets a summary, even the bare root
	if _, err := os.Stat(filepath.Join(outDir, "Object.txt")); err != nil {
		t.Errorf("expected Object summary: %v", err)
	}
}

func TestExporter_Tiles(t *testing.T) {
	records, _, err := blueprint.Parse("test.xml", `<objects>
	<object Name="Object">
		<tag Name="BaseObject" Value="*noinherit" />
	</object>
	<object Name="Widget" Inherits="Object">
		<part Name="Render" Tile="items/widget.png" TileColor="&amp;c" DetailColor="r" />
	</object>
</objects>`)
	if err != nil {
		t.Fatalf("failed to parse test markup: %v", err)
	}
	tree, err := blueprint.BuildTree(records)
	if err != nil {
		t.Fatalf("failed to build test tree: %v", err)
	}
	r := blueprint.NewResolver(tree)

	comp := render.NewCompositor(func(name string) (image.Image, error) {
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		img.SetRGBA(0, 0, color.RGBA{A: 255})
		return img, nil
	})

	outDir := t.TempDir()
	e := NewExporter(r, outDir, WithTiles(comp))
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Renderable blueprints get the tile at native size and enlarged
	for _, name := range []string{"Widget.png", "Widget-big.png"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	// Base markers only get a summary
	if _, err := os.Stat(filepath.Join(outDir, "Object.png")); err == nil {
		t.Error("expected no tile for the base marker")
	}
}

func TestExporter_CustomTemplate(t *testing.T) {
	r := testResolver(t)
	outDir := t.TempDir()

	e := NewExporter(r, outDir, WithTemplate("{{ .ID }}|{{ .Damage }}"))
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "Club.txt"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "rendered", string(data), "Club|1d4")
}
