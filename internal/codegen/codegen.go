// Package codegen emits a dependency-free Go function that performs the
// tuple tail rewrite with the standard regexp package, for projects that
// want the rewrite without importing fieldnull.
package codegen

import (
	"fmt"
	"go/token"
	"strconv"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/KromDaniel/fieldnull/internal/nuller"
	"github.com/KromDaniel/fieldnull/replace"
)

// Options configures code generation.
type Options struct {
	// Name of the generated function, e.g. "NullDriverIDs"
	Name string

	// Package is the Go package name of the generated file
	Package string

	// Template is the replacement template; empty means nuller.DefaultTemplate
	Template string

	// TestInputs, when non-empty, produce a test file whose expectations
	// are computed by running each input through fieldnull now.
	TestInputs []string
}

// Validate checks if the options are valid.
func (o Options) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if !token.IsIdentifier(o.Name) {
		return fmt.Errorf("name %q is not a Go identifier", o.Name)
	}
	if o.Package == "" {
		return fmt.Errorf("package cannot be empty")
	}
	if !token.IsIdentifier(o.Package) {
		return fmt.Errorf("package %q is not a Go identifier", o.Package)
	}
	return nil
}

// Generator renders the rewrite function and its optional test.
type Generator struct {
	opts     Options
	template *replace.Template
	nuller   *nuller.Nuller
}

// New validates opts and prepares a Generator.
func New(opts Options) (*Generator, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if opts.Template == "" {
		opts.Template = nuller.DefaultTemplate
	}
	n, err := nuller.New(nuller.Config{Mode: nuller.ModeRegexp, Template: opts.Template})
	if err != nil {
		return nil, err
	}
	return &Generator{
		opts:     opts,
		template: replace.MustParse(opts.Template),
		nuller:   n,
	}, nil
}

// HasTest reports whether a test file will be generated.
func (g *Generator) HasTest() bool {
	return len(g.opts.TestInputs) > 0
}

func (g *Generator) patternVar() string {
	return LowerFirst(g.opts.Name) + "Pattern"
}

// Source returns the generated rewrite function.
func (g *Generator) Source() *jen.File {
	f := jen.NewFile(g.opts.Package)
	f.HeaderComment("Code generated by fieldnull. DO NOT EDIT.")

	f.Commentf("%s matches the driver id and department at the end of a VALUES tuple.", g.patternVar())
	f.Var().Id(g.patternVar()).Op("=").Qual("regexp", "MustCompile").Call(jen.Lit(nuller.Pattern))
	f.Line()

	// a template without references needs no group expansion
	replaceCall := jen.Id(g.patternVar()).Dot("ReplaceAllString").Call(jen.Id("src"), jen.Lit(RegexpTemplate(g.template)))
	if g.template.IsLiteral() {
		replaceCall = jen.Id(g.patternVar()).Dot("ReplaceAllLiteralString").Call(jen.Id("src"), jen.Lit(string(g.template.Expand(nil, nil, nil))))
	}

	f.Commentf("%s rewrites every tuple tail in src using the template %q.", g.opts.Name, g.opts.Template)
	f.Func().Id(g.opts.Name).
		Params(jen.Id("src").String()).
		String().
		Block(jen.Return(replaceCall))
	return f
}

// TestSource returns a table test for the generated function, or nil when
// no test inputs were given.
func (g *Generator) TestSource() *jen.File {
	if !g.HasTest() {
		return nil
	}
	cases := make([]jen.Code, 0, len(g.opts.TestInputs))
	for _, in := range g.opts.TestInputs {
		cases = append(cases, jen.Values(jen.Dict{
			jen.Id("in"):   jen.Lit(in),
			jen.Id("want"): jen.Lit(g.nuller.Transform(in)),
		}))
	}

	f := jen.NewFile(g.opts.Package)
	f.HeaderComment("Code generated by fieldnull. DO NOT EDIT.")
	f.Func().Id("Test"+UpperFirst(g.opts.Name)).
		Params(jen.Id("t").Op("*").Qual("testing", "T")).
		Block(
			jen.Id("tests").Op(":=").Index().Struct(
				jen.Id("in").String(),
				jen.Id("want").String(),
			).Values(cases...),
			jen.For(jen.List(jen.Id("_"), jen.Id("tt")).Op(":=").Range().Id("tests")).Block(
				jen.If(
					jen.Id("got").Op(":=").Id(g.opts.Name).Call(jen.Id("tt").Dot("in")),
					jen.Id("got").Op("!=").Id("tt").Dot("want"),
				).Block(
					jen.Id("t").Dot("Errorf").Call(
						jen.Lit(g.opts.Name+"(%q) = %q, want %q"),
						jen.Id("tt").Dot("in"),
						jen.Id("got"),
						jen.Id("tt").Dot("want"),
					),
				),
			),
		)
	return f
}

// RegexpTemplate converts a parsed template to the syntax of
// regexp.Regexp.Expand. References are always braced because Expand reads
// "$1x" as the group named "1x".
func RegexpTemplate(t *replace.Template) string {
	var b strings.Builder
	for _, seg := range t.Segments {
		switch seg.Type {
		case replace.SegmentLiteral:
			b.WriteString(strings.ReplaceAll(seg.Literal, "$", "$$"))
		case replace.SegmentFullMatch:
			b.WriteString("${0}")
		case replace.SegmentCaptureIndex:
			b.WriteString("${" + strconv.Itoa(seg.CaptureIndex) + "}")
		case replace.SegmentCaptureName:
			b.WriteString("${" + seg.CaptureName + "}")
		}
	}
	return b.String()
}

// LowerFirst lowercases the first character if it is an ASCII letter.
func LowerFirst(s string) string {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return s
	}
	return string(s[0]|0x20) + s[1:]
}

// UpperFirst uppercases the first character if it is an ASCII letter.
func UpperFirst(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]&^0x20) + s[1:]
}
