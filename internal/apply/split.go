package apply

import "strings"

// SplitStatements splits a dump on semicolons that are outside quoted
// strings, quoted identifiers and comments. Statements are trimmed and empty
// ones dropped; the trailing semicolon is not kept.
func SplitStatements(doc string) []string {
	var statements []string
	start := 0
	emit := func(end int) {
		if stmt := strings.TrimSpace(doc[start:end]); stmt != "" && !onlyComments(stmt) {
			statements = append(statements, stmt)
		}
	}

	for i := 0; i < len(doc); {
		switch c := doc[i]; {
		case c == '\'' || c == '"':
			i = skipQuoted(doc, i, c)
		case c == '-' && i+1 < len(doc) && doc[i+1] == '-':
			i = skipLineComment(doc, i)
		case c == '/' && i+1 < len(doc) && doc[i+1] == '*':
			i = skipBlockComment(doc, i)
		case c == ';':
			emit(i)
			i++
			start = i
		default:
			i++
		}
	}
	emit(len(doc))
	return statements
}

// skipQuoted returns the offset after the quoted run starting at doc[i].
// A doubled quote is an escaped quote. An unterminated run extends to the end.
func skipQuoted(doc string, i int, quote byte) int {
	for i++; i < len(doc); i++ {
		if doc[i] != quote {
			continue
		}
		if i+1 < len(doc) && doc[i+1] == quote {
			i++
			continue
		}
		return i + 1
	}
	return len(doc)
}

func skipLineComment(doc string, i int) int {
	if nl := strings.IndexByte(doc[i:], '\n'); nl >= 0 {
		return i + nl + 1
	}
	return len(doc)
}

func skipBlockComment(doc string, i int) int {
	if end := strings.Index(doc[i+2:], "*/"); end >= 0 {
		return i + 2 + end + 2
	}
	return len(doc)
}

// onlyComments reports whether stmt holds nothing but comments and spaces.
func onlyComments(stmt string) bool {
	for i := 0; i < len(stmt); {
		switch {
		case strings.HasPrefix(stmt[i:], "--"):
			i = skipLineComment(stmt, i)
		case strings.HasPrefix(stmt[i:], "/*"):
			i = skipBlockComment(stmt, i)
		case stmt[i] == ' ' || stmt[i] == '\t' || stmt[i] == '\n' || stmt[i] == '\r':
			i++
		default:
			return false
		}
	}
	return true
}
