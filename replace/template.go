// Package replace parses and expands the replacement templates used when a
// tuple tail is rewritten.
package replace

import (
	"fmt"
	"strings"
	"unicode"
)

// SegmentType indicates the type of segment in a replacement template.
type SegmentType int

const (
	// SegmentLiteral is text copied to the output as is.
	SegmentLiteral SegmentType = iota
	// SegmentFullMatch refers to the whole match ($0).
	SegmentFullMatch
	// SegmentCaptureIndex refers to a capture group by index ($1, ${2}).
	SegmentCaptureIndex
	// SegmentCaptureName refers to a capture group by name ($department, ${department}).
	SegmentCaptureName
)

// Segment is one parsed piece of a replacement template.
type Segment struct {
	Type         SegmentType
	Literal      string // SegmentLiteral only
	CaptureIndex int    // 1-based for SegmentCaptureIndex, 0 for SegmentFullMatch
	CaptureName  string // SegmentCaptureName only
}

// Template is a parsed replacement template.
type Template struct {
	Original string
	Segments []Segment
}

// Parse parses a replacement template string into segments.
// Template syntax:
//   - $0 or ${0}: full match
//   - $1 ... $99 or ${1}: capture group by index
//   - $name or ${name}: capture group by name
//   - $$: literal dollar sign
//   - anything else: literal text
//
// Parse does not check references against a pattern; use Validate for that.
func Parse(template string) (*Template, error) {
	result := &Template{
		Original: template,
		Segments: make([]Segment, 0),
	}
	i, literalStart := 0, 0
	flush := func() {
		if i > literalStart {
			result.appendLiteral(template[literalStart:i])
		}
	}

	for i < len(template) {
		if template[i] != '$' {
			i++
			continue
		}
		flush()

		if i+1 >= len(template) {
			// trailing $
			result.appendLiteral("$")
			i++
			literalStart = i
			continue
		}

		next := template[i+1]
		switch {
		case next == '$':
			result.appendLiteral("$")
			i += 2
		case next == '{':
			seg, consumed, err := parseBracedRef(template[i:])
			if err != nil {
				return nil, fmt.Errorf("at position %d: %w", i, err)
			}
			result.Segments = append(result.Segments, seg)
			i += consumed
		case next == '0':
			result.Segments = append(result.Segments, Segment{Type: SegmentFullMatch})
			i += 2
		case next >= '1' && next <= '9':
			seg, consumed := parseIndexedRef(template[i:])
			result.Segments = append(result.Segments, seg)
			i += consumed
		case isNameStart(rune(next)):
			seg, consumed := parseNamedRef(template[i:])
			result.Segments = append(result.Segments, seg)
			i += consumed
		default:
			// lone $ not followed by a reference
			result.appendLiteral("$")
			i++
		}
		literalStart = i
	}
	flush()

	return result, nil
}

// MustParse is like Parse but panics on error.
// It is meant for templates that are compile-time constants.
func MustParse(template string) *Template {
	t, err := Parse(template)
	if err != nil {
		panic("replace: Parse(" + template + "): " + err.Error())
	}
	return t
}

// appendLiteral merges adjacent literal text into a single segment.
func (t *Template) appendLiteral(s string) {
	if n := len(t.Segments); n > 0 && t.Segments[n-1].Type == SegmentLiteral {
		t.Segments[n-1].Literal += s
		return
	}
	t.Segments = append(t.Segments, Segment{Type: SegmentLiteral, Literal: s})
}

// Validate checks every reference against the capture groups of a pattern.
// names follows regexp.Regexp.SubexpNames: names[0] is the whole match and
// unnamed groups have an empty name.
func (t *Template) Validate(names []string) error {
	for _, seg := range t.Segments {
		switch seg.Type {
		case SegmentCaptureIndex:
			if seg.CaptureIndex >= len(names) {
				return fmt.Errorf("template %q references group $%d, pattern has %d", t.Original, seg.CaptureIndex, len(names)-1)
			}
		case SegmentCaptureName:
			if indexOf(names, seg.CaptureName) < 0 {
				return fmt.Errorf("template %q references unknown group %q", t.Original, seg.CaptureName)
			}
		}
	}
	return nil
}

// Expand appends the template to dst with references resolved against
// groups, which follows regexp.Regexp.FindSubmatch: groups[0] is the whole
// match. A nil group expands to nothing.
func (t *Template) Expand(dst []byte, groups [][]byte, names []string) []byte {
	for _, seg := range t.Segments {
		switch seg.Type {
		case SegmentLiteral:
			dst = append(dst, seg.Literal...)
		case SegmentFullMatch:
			if len(groups) > 0 {
				dst = append(dst, groups[0]...)
			}
		case SegmentCaptureIndex:
			if seg.CaptureIndex < len(groups) {
				dst = append(dst, groups[seg.CaptureIndex]...)
			}
		case SegmentCaptureName:
			if idx := indexOf(names, seg.CaptureName); idx > 0 && idx < len(groups) {
				dst = append(dst, groups[idx]...)
			}
		}
	}
	return dst
}

// IsLiteral reports whether the template contains no references.
func (t *Template) IsLiteral() bool {
	for _, seg := range t.Segments {
		if seg.Type != SegmentLiteral {
			return false
		}
	}
	return true
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if i > 0 && n == name {
			return i
		}
	}
	return -1
}

// parseBracedRef parses a ${...} reference; s starts with "${".
func parseBracedRef(s string) (Segment, int, error) {
	closeIdx := strings.IndexByte(s, '}')
	if closeIdx == -1 {
		return Segment{}, 0, fmt.Errorf("unclosed ${")
	}
	content := s[2:closeIdx]
	if len(content) == 0 {
		return Segment{}, 0, fmt.Errorf("empty ${}")
	}

	if content[0] >= '0' && content[0] <= '9' {
		index := 0
		for j := 0; j < len(content); j++ {
			if content[j] < '0' || content[j] > '9' {
				return Segment{}, 0, fmt.Errorf("invalid capture reference ${%s}: mixed digits and non-digits", content)
			}
			index = index*10 + int(content[j]-'0')
		}
		if index == 0 {
			return Segment{Type: SegmentFullMatch}, closeIdx + 1, nil
		}
		return Segment{Type: SegmentCaptureIndex, CaptureIndex: index}, closeIdx + 1, nil
	}

	if !isValidIdentifier(content) {
		return Segment{}, 0, fmt.Errorf("invalid capture name ${%s}", content)
	}
	return Segment{Type: SegmentCaptureName, CaptureName: content}, closeIdx + 1, nil
}

// parseIndexedRef parses $N or $NN.
func parseIndexedRef(s string) (Segment, int) {
	index := int(s[1] - '0')
	consumed := 2
	if len(s) > 2 && s[2] >= '0' && s[2] <= '9' {
		index = index*10 + int(s[2]-'0')
		consumed = 3
	}
	return Segment{Type: SegmentCaptureIndex, CaptureIndex: index}, consumed
}

// parseNamedRef parses $name.
func parseNamedRef(s string) (Segment, int) {
	end := 2
	for end < len(s) && isNameContinue(rune(s[end])) {
		end++
	}
	return Segment{Type: SegmentCaptureName, CaptureName: s[1:end]}, end
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isValidIdentifier(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i, r := range s {
		if i == 0 && !isNameStart(r) {
			return false
		}
		if i > 0 && !isNameContinue(r) {
			return false
		}
	}
	return true
}
