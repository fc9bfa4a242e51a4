package display

import (
	"regexp"
	"strings"
)

// Display names come in two color markup styles: the old inline form
// ("&Yraw &ybeetle meat", with ^x background codes) and the newer template
// form ("{{r|La}} {{K|mace}}"). These helpers strip or decompose both.

var oldStyleColor = regexp.MustCompile(`[&^][rRwWcCbBgGmMyYkKoO]`)

// ColorRun is a stretch of text with the shader applied to it. An empty
// shader means the default color.
type ColorRun struct {
	Text   string
	Shader string
}

// StripColors removes both color markup styles, returning plain text.
func StripColors(s string) string {
	runs := ParseColorRuns(s)
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(run.Text)
	}
	return oldStyleColor.ReplaceAllString(b.String(), "")
}

// ParseColorRuns decomposes template-style color markup into (text, shader)
// runs. Templates nest: "{{K|{{crysteel|crysteel}} mace}}" yields the inner
// run under its own shader and the remainder under the outer one. Unbalanced
// braces are passed through as literal text.
func ParseColorRuns(s string) []ColorRun {
	const (
		readingText = iota
		oneLeftBrace
		readingShader
		oneRightBrace
	)

	state := readingText
	shaders := []string{""}
	var newShader strings.Builder

	type coloredChar struct {
		ch     rune
		shader string
	}
	var chars []coloredChar

	emit := func(r rune) {
		chars = append(chars, coloredChar{ch: r, shader: shaders[len(shaders)-1]})
	}

	for _, r := range s {
		switch state {
		case readingText:
			switch r {
			case '{':
				state = oneLeftBrace
			case '}':
				state = oneRightBrace
			default:
				emit(r)
			}
		case oneLeftBrace:
			if r == '{' {
				state = readingShader
				newShader.Reset()
			} else {
				state = readingText
				emit('{')
				emit(r)
			}
		case readingShader:
			if r == '|' {
				state = readingText
				shaders = append(shaders, newShader.String())
			} else {
				newShader.WriteRune(r)
			}
		case oneRightBrace:
			state = readingText
			if r == '}' {
				if len(shaders) > 1 {
					shaders = shaders[:len(shaders)-1]
				}
			} else {
				emit(r)
			}
		}
	}

	// conflate sequential characters sharing a shader
	var runs []ColorRun
	var cur strings.Builder
	curShader := ""
	for i, c := range chars {
		if i > 0 && c.shader != curShader {
			runs = append(runs, ColorRun{Text: cur.String(), Shader: curShader})
			cur.Reset()
		}
		cur.WriteRune(c.ch)
		curShader = c.shader
	}
	if cur.Len() > 0 {
		runs = append(runs, ColorRun{Text: cur.String(), Shader: curShader})
	}
	return runs
}

// ExtractForeground returns the foreground color char from an old-style
// color string like "&y^k", or the default when none is present.
func ExtractForeground(colorstr, def string) string {
	return extractCode(colorstr, '&', def)
}

// ExtractBackground returns the background color char from an old-style
// color string, or the default when none is present.
func ExtractBackground(colorstr, def string) string {
	return extractCode(colorstr, '^', def)
}

func extractCode(colorstr string, prefix byte, def string) string {
	idx := strings.IndexByte(colorstr, prefix)
	if idx < 0 || idx+1 >= len(colorstr) {
		return def
	}
	code := colorstr[idx+1 : idx+2]
	if !strings.ContainsAny(code, "rRwWcCbBgGmMyYkKoO") {
		return def
	}
	return code
}
