package apply

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{name: "empty", doc: "", want: nil},
		{name: "single without semicolon", doc: "SELECT 1", want: []string{"SELECT 1"}},
		{name: "two statements", doc: "SELECT 1;\nSELECT 2;\n", want: []string{"SELECT 1", "SELECT 2"}},
		{
			name: "semicolon in string",
			doc:  "INSERT INTO t VALUES (1, NULL, 'IT; Ops');",
			want: []string{"INSERT INTO t VALUES (1, NULL, 'IT; Ops')"},
		},
		{
			name: "escaped quote",
			doc:  "INSERT INTO t VALUES ('O''Brien;');SELECT 2",
			want: []string{"INSERT INTO t VALUES ('O''Brien;')", "SELECT 2"},
		},
		{
			name: "quoted identifier",
			doc:  `SELECT "a;b" FROM t; SELECT 2`,
			want: []string{`SELECT "a;b" FROM t`, "SELECT 2"},
		},
		{
			name: "line comment",
			doc:  "-- header; not a split\nSELECT 1;",
			want: []string{"-- header; not a split\nSELECT 1"},
		},
		{
			name: "block comment",
			doc:  "/* a; b */ SELECT 1; /* trailing */",
			want: []string{"/* a; b */ SELECT 1"},
		},
		{name: "comment only", doc: "-- nothing\n;\n/* x */;", want: nil},
		{name: "unterminated string", doc: "SELECT 'abc; def", want: []string{"SELECT 'abc; def"}},
		{name: "unterminated comment", doc: "SELECT 1; /* open", want: []string{"SELECT 1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitStatements(tt.doc))
		})
	}
}
