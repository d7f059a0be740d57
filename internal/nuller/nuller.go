// Package nuller rewrites the driver id of every INSERT tuple tail in a SQL
// dump to NULL while keeping the department field that follows it.
package nuller

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/KromDaniel/fieldnull/replace"
)

// Config holds the configuration of a Nuller.
type Config struct {
	Mode     Mode   // Engine used to find tuple tails
	Template string // Replacement template; empty means DefaultTemplate
	Verbose  bool   // Log setup and per-pass statistics
}

// Stats describes one rewrite pass.
type Stats struct {
	Matches  int
	BytesIn  int
	BytesOut int
}

// Nuller applies the tuple tail rewrite. It holds no per-call state and is
// safe for concurrent use.
type Nuller struct {
	config   Config
	re       *regexp.Regexp
	names    []string
	template *replace.Template
	scan     scanner
	logger   *Logger
}

var tuplePattern = regexp.MustCompile(Pattern)

// New creates a Nuller, validating the replacement template against the
// capture groups of Pattern.
func New(config Config) (*Nuller, error) {
	if _, ok := modeNames[config.Mode]; !ok {
		return nil, fmt.Errorf("invalid mode %v", config.Mode)
	}
	if config.Template == "" {
		config.Template = DefaultTemplate
	}
	tmpl, err := replace.Parse(config.Template)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	names := tuplePattern.SubexpNames()
	if err := tmpl.Validate(names); err != nil {
		return nil, err
	}

	n := &Nuller{
		config:   config,
		re:       tuplePattern,
		names:    names,
		template: tmpl,
		scan:     scanner{escapes: config.Mode == ModeEscapeAware},
		logger:   NewLogger(config.Verbose),
	}
	n.logger.Section("Setup")
	n.logger.Log("Pattern: %s", Pattern)
	n.logger.Log("Mode: %s", config.Mode)
	n.logger.Log("Template: %s", config.Template)
	return n, nil
}

// Default returns a Nuller in ModeRegexp with DefaultTemplate.
func Default() *Nuller {
	n, err := New(Config{})
	if err != nil {
		panic(err)
	}
	return n
}

// Logger returns the verbose logger, e.g. to redirect it.
func (n *Nuller) Logger() *Logger {
	return n.logger
}

// Mode returns the configured engine.
func (n *Nuller) Mode() Mode {
	return n.config.Mode
}

// Transform returns document with every tuple tail rewritten.
func (n *Nuller) Transform(document string) string {
	out, _ := n.TransformString(document)
	return out
}

// TransformString is Transform that also reports statistics.
func (n *Nuller) TransformString(document string) (string, Stats) {
	out, stats := n.transform([]byte(document))
	return string(out), stats
}

// TransformBytes returns a rewritten copy of src; src is not modified.
func (n *Nuller) TransformBytes(src []byte) ([]byte, Stats) {
	return n.transform(src)
}

func (n *Nuller) transform(src []byte) ([]byte, Stats) {
	var spans []span
	if n.config.Mode == ModeRegexp {
		spans = n.findRegexp(src)
	} else {
		spans = n.findScan(src)
	}

	dst := make([]byte, 0, len(src))
	last := 0
	for _, m := range spans {
		dst = append(dst, src[last:m.start]...)
		dst = n.expand(dst, src, m)
		last = m.end
	}
	dst = append(dst, src[last:]...)

	stats := Stats{Matches: len(spans), BytesIn: len(src), BytesOut: len(dst)}
	n.logger.Summary(stats)
	return dst, stats
}

func (n *Nuller) findRegexp(src []byte) []span {
	idx := n.re.FindAllSubmatchIndex(src, -1)
	spans := make([]span, len(idx))
	for i, loc := range idx {
		spans[i] = span{start: loc[0], end: loc[1], deptStart: loc[2], deptEnd: loc[3]}
	}
	return spans
}

func (n *Nuller) findScan(src []byte) []span {
	var spans []span
	i := 0
	for {
		k := bytes.IndexByte(src[i:], ',')
		if k < 0 {
			return spans
		}
		i += k
		m, st := n.scan.matchAt(src, i, true)
		if st == scanMatch {
			spans = append(spans, m)
			i = m.end
			continue
		}
		i++
	}
}

// expand appends the replacement for m to dst.
func (n *Nuller) expand(dst, src []byte, m span) []byte {
	groups := [][]byte{src[m.start:m.end], src[m.deptStart:m.deptEnd]}
	return n.template.Expand(dst, groups, n.names)
}
