// Package repair coerces raw model output into syntactically valid JSON text.
// It targets the specific malformations the upstream model is known to
// produce (markdown fencing, escaped quotes, apostrophe-bearing keys,
// truncated strings); it is not a general JSON recovery engine.
package repair

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	reFence = regexp.MustCompile("```(?:json)?")

	// A quoted key that arrived split by a possessive apostrophe, e.g.
	// `"Sam"s Club":` which should read `"Sam's Club":`. Fragments are
	// restricted to word characters and spaces so well-formed member
	// sequences never match.
	rePossessiveKey = regexp.MustCompile(`"([\w ]*)"s([\w ]*)"\s*:`)

	// A string value whose closing quote was lost before a comma. Fires only
	// when the comma is directly followed by the next member's opening quote,
	// so commas inside properly terminated values are left alone.
	reUnterminated = regexp.MustCompile(`(:\s*"[^"]*?),(\s*")`)

	// Single quotes used as string delimiters. Interior apostrophes are not
	// adjacent to structural characters and survive untouched.
	reSingleOpen  = regexp.MustCompile(`([{\[,:]\s*)'`)
	reSingleClose = regexp.MustCompile(`'(\s*[:,}\]])`)
)

// JSON repairs raw model output into JSON text. It never fails: input
// without an outer object degrades to the literal "{}". Running JSON on its
// own output is a no-op, and well-formed double-quoted JSON passes through
// unchanged.
func JSON(raw string) string {
	// A well-formed object needs no repair. Every step below is a heuristic
	// for a known malformation and can damage good input (commas before a
	// closing quote, legitimate \" escapes), so valid text never reaches them.
	if json.Valid([]byte(raw)) && strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return raw
	}

	s := reFence.ReplaceAllString(raw, "")

	// Slice to the outer-brace span; anything around it is model commentary.
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "{}"
	}
	s = s[start : end+1]
	if json.Valid([]byte(s)) {
		return s
	}

	// The model escapes stylistic apostrophes as \" far more often than it
	// quotes anything structurally, so treat every escaped quote as one.
	s = strings.ReplaceAll(s, `\"`, "'")

	s = rePossessiveKey.ReplaceAllString(s, `"$1's$2":`)
	s = reUnterminated.ReplaceAllString(s, `$1",$2`)

	s = reSingleOpen.ReplaceAllString(s, `$1"`)
	s = reSingleClose.ReplaceAllString(s, `"$1`)

	return s
}
