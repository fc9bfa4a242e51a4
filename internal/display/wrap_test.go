package display

import (
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestWrapTo(t *testing.T) {
	text := "A scrawny humanoid with a club, leathered skin, and a snapping jaw."
	wrapped := WrapTo(text, 20)

	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > 20 {
			t.Errorf("line %q exceeds width", line)
		}
	}

	// Zero width falls back to the default
	testutil.AssertEqual(t, "default width", WrapTo("short", 0), "short")
}

func TestCapitalize(t *testing.T) {
	testutil.AssertEqual(t, "lower", Capitalize("snapjaw"), "Snapjaw")
	testutil.AssertEqual(t, "already upper", Capitalize("Snapjaw"), "Snapjaw")
	testutil.AssertEqual(t, "empty", Capitalize(""), "")
}
