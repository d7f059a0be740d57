package nuller

import "unicode/utf8"

// scanStatus is the outcome of trying to match a tuple tail at one offset.
type scanStatus int

const (
	scanNoMatch scanStatus = iota
	scanMatch
	// scanNeedMore means the data ended while the candidate was still viable.
	scanNeedMore
)

// span holds the offsets of one match: [start, end) for the whole tail and
// [deptStart, deptEnd) for the quoted department, quotes included.
type span struct {
	start, end         int
	deptStart, deptEnd int
}

// scanner walks the same grammar as Pattern without backtracking. Every
// branch in Pattern is decided by a single rune, so a linear walk from a
// comma finds exactly the match the regexp engine would report there.
type scanner struct {
	escapes bool
}

// isSpace mirrors Space.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		0x85, 0xa0, 0x1680, 0x2028, 0x2029, 0x202f, 0x205f, 0x3000, 0xfeff:
		return true
	}
	return (r >= 0x1c && r <= 0x1f) || (r >= 0x2000 && r <= 0x200a)
}

func isIDByte(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') || c == '-'
}

// matchAt tries to match a tuple tail starting at data[i], which must be a
// comma. When eof is false and the data ends mid-candidate, it returns
// scanNeedMore; when eof is true a truncated candidate is scanNoMatch.
func (s scanner) matchAt(data []byte, i int, eof bool) (span, scanStatus) {
	more := scanNeedMore
	if eof {
		more = scanNoMatch
	}
	if i >= len(data) || data[i] != ',' {
		return span{}, scanNoMatch
	}
	j, ok := skipSpace(data, i+1, eof)
	if !ok || j == len(data) {
		return span{}, more
	}

	switch data[j] {
	case '\'':
		k := j + 1
		for ; k < j+1+uuidLen; k++ {
			if k == len(data) {
				return span{}, more
			}
			if !isIDByte(data[k]) {
				return span{}, scanNoMatch
			}
		}
		if k == len(data) {
			return span{}, more
		}
		if data[k] != '\'' {
			return span{}, scanNoMatch
		}
		j = k + 1
	case 'n':
		const keyword = "null"
		for k := 0; k < len(keyword); k++ {
			if j+k == len(data) {
				return span{}, more
			}
			if data[j+k] != keyword[k] {
				return span{}, scanNoMatch
			}
		}
		j += len(keyword)
	default:
		return span{}, scanNoMatch
	}

	j, ok = skipSpace(data, j, eof)
	if !ok || j == len(data) {
		return span{}, more
	}
	if data[j] != ',' {
		return span{}, scanNoMatch
	}
	j, ok = skipSpace(data, j+1, eof)
	if !ok || j == len(data) {
		return span{}, more
	}
	if data[j] != '\'' {
		return span{}, scanNoMatch
	}

	deptStart := j
	closing, st := s.department(data, j+1, eof)
	if st != scanMatch {
		return span{}, st
	}
	j = closing + 1
	if j == len(data) {
		return span{}, more
	}
	if data[j] != ')' {
		return span{}, scanNoMatch
	}
	return span{start: i, end: j + 1, deptStart: deptStart, deptEnd: j}, scanMatch
}

// department scans the body of a quoted department starting just after the
// opening quote and returns the offset of the closing quote. The body must
// not be empty.
func (s scanner) department(data []byte, j int, eof bool) (int, scanStatus) {
	more := scanNeedMore
	if eof {
		more = scanNoMatch
	}
	body := 0
	for {
		if j == len(data) {
			return 0, more
		}
		if data[j] != '\'' {
			body++
			j++
			continue
		}
		if !s.escapes {
			break
		}
		// '' is an escaped quote; a lone quote closes the string.
		if j+1 == len(data) {
			if !eof {
				return 0, scanNeedMore
			}
			break
		}
		if data[j+1] != '\'' {
			break
		}
		body++
		j += 2
	}
	if body == 0 {
		return 0, scanNoMatch
	}
	return j, scanMatch
}

// skipSpace advances past whitespace from j. ok is false when the data ends
// inside a multi-byte rune that may still be whitespace and eof is not set.
func skipSpace(data []byte, j int, eof bool) (next int, ok bool) {
	for j < len(data) {
		if c := data[j]; c < utf8.RuneSelf {
			if !isSpace(rune(c)) {
				return j, true
			}
			j++
			continue
		}
		if !eof && !utf8.FullRune(data[j:]) {
			return j, false
		}
		r, size := utf8.DecodeRune(data[j:])
		if !isSpace(r) {
			return j, true
		}
		j += size
	}
	return j, true
}
