package markup

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Blueprint files ship with a handful of structural defects that predate any
// XML tooling: numeric entities pointing at Code Page 437 control codes, raw
// line breaks in the middle of attribute values, and the occasional bare
// ampersand. Repair fixes all of these before the loader ever sees the text.

// cp437Controls maps the CP437 control range (0x01-0x1f) to the graphics
// printed for those code points. Values at 0x20 and above are decoded through
// the charmap table instead.
var cp437Controls = map[int]rune{
	0x01: '☺', 0x02: '☻', 0x03: '♥', 0x04: '♦', 0x05: '♣', 0x06: '♠',
	0x07: '•', 0x08: '◘', 0x09: '○', 0x0a: '◙', 0x0b: '♂', 0x0c: '♀',
	0x0d: '♪', 0x0e: '♫', 0x0f: '☼', 0x10: '►', 0x11: '◄', 0x12: '↕',
	0x13: '‼', 0x14: '¶', 0x15: '§', 0x16: '▬', 0x17: '↨', 0x18: '↑',
	0x19: '↓', 0x1a: '→', 0x1b: '←', 0x1c: '∟', 0x1d: '↔', 0x1e: '▲',
	0x1f: '▼',
}

var (
	controlEntity = regexp.MustCompile(`&#([0-9]{1,3});`)
	brokenElement = regexp.MustCompile(`(?m)^\s*<[^!][^>]*\n[\s\S]*?>`)
	legalEntity   = regexp.MustCompile(`^&(#[0-9]+|#x[0-9a-fA-F]+|[a-zA-Z]+[0-9]*);`)
)

// RepairControlCodes replaces numeric entities that reference illegal control
// characters with the Unicode equivalent of the CP437 glyph at that code
// point. Legal entity references (0x20 and up that decode cleanly) are left
// untouched except where CP437 and Unicode disagree above 0x7f.
func RepairControlCodes(contents string) (string, int) {
	count := 0
	out := controlEntity.ReplaceAllStringFunc(contents, func(m string) string {
		val, err := strconv.Atoi(m[2 : len(m)-1])
		if err != nil || val > 0x1f || val == 0x09 || val == 0x0a || val == 0x0d {
			// tab, LF and CR are legal in XML; keep them as entities
			return m
		}
		if r, ok := cp437Controls[val]; ok {
			count++
			return string(r)
		}
		return m
	})
	return out, count
}

// DecodeCP437 converts a single CP437 code point to its Unicode rune. Used by
// callers that carry raw glyph bytes out of the blueprint data.
func DecodeCP437(val int) rune {
	if val <= 0x1f {
		if r, ok := cp437Controls[val]; ok {
			return r
		}
		return rune(val)
	}
	return charmap.CodePage437.DecodeByte(byte(val))
}

// RepairLinebreaks stitches elements that were split across physical lines
// back together, replacing the embedded line breaks with &#10; entities. The
// scan repeats until no broken element remains, since one element may contain
// several raw breaks.
func RepairLinebreaks(contents string) (string, int) {
	count := 0
	for {
		loc := brokenElement.FindStringIndex(contents)
		if loc == nil {
			return contents, count
		}
		fixed := strings.ReplaceAll(contents[loc[0]:loc[1]], "\n", "&#10;")
		count += strings.Count(contents[loc[0]:loc[1]], "\n")
		contents = contents[:loc[0]] + fixed + contents[loc[1]:]
	}
}

// RepairStrayAmpersands escapes ampersands that do not begin a legal entity
// reference. Legitimately escaped sequences are preserved.
func RepairStrayAmpersands(contents string) (string, int) {
	var b strings.Builder
	b.Grow(len(contents))
	count := 0
	for i := 0; i < len(contents); i++ {
		c := contents[i]
		if c != '&' {
			b.WriteByte(c)
			continue
		}
		if legalEntity.MatchString(contents[i:]) {
			b.WriteByte(c)
			continue
		}
		b.WriteString("&amp;")
		count++
	}
	return b.String(), count
}

// Repair runs every repair pass over the contents of one source file and
// verifies the result tokenizes cleanly. The repair count is diagnostic only;
// a file that still fails to tokenize is fatal because a partially parsed
// blueprint set cannot be trusted.
func Repair(file string, contents string) (string, int, error) {
	total := 0

	contents, n := RepairControlCodes(contents)
	total += n
	contents, n = RepairLinebreaks(contents)
	total += n
	contents, n = RepairStrayAmpersands(contents)
	total += n

	if total > 0 {
		slog.Debug("repaired markup", "file", file, "repairs", total)
	}

	if err := checkWellFormed(contents); err != nil {
		return "", total, newMalformedSourceError(file, err)
	}

	return contents, total, nil
}

// checkWellFormed consumes the full token stream to prove the markup parses.
func checkWellFormed(contents string) error {
	dec := xml.NewDecoder(strings.NewReader(contents))
	for {
		_, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// MalformedSourceError reports markup that could not be made parseable by the
// character-level repair passes.
type MalformedSourceError struct {
	File string
	Line int
	Err  error
}

func newMalformedSourceError(file string, err error) *MalformedSourceError {
	e := &MalformedSourceError{File: file, Err: err}
	if syn, ok := err.(*xml.SyntaxError); ok {
		e.Line = syn.Line
	}
	return e
}

func (e *MalformedSourceError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed markup in %s line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("malformed markup in %s: %v", e.File, e.Err)
}

func (e *MalformedSourceError) Unwrap() error {
	return e.Err
}
