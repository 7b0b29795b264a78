package html

import (
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
	"github.com/custodia-labs/intellidocs/internal/normalisers/plaintext"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

func New() *Normaliser {
	return &Normaliser{}
}

func (n *Normaliser) SupportedFormats() []string {
	return []string{"html", "htm", "xhtml"}
}

func (n *Normaliser) Priority() int {
	return 50
}

func (n *Normaliser) Normalise(_ context.Context, raw []byte) (string, error) {
	return Text(string(raw)), nil
}

// skipped elements contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Head: true, atom.Script: true, atom.Style: true, atom.Noscript: true,
	atom.Svg: true, atom.Template: true, atom.Iframe: true, atom.Object: true,
}

// blocks start and end on their own line.
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Nav: true, atom.Aside: true,
	atom.Main: true, atom.Blockquote: true, atom.Table: true, atom.Ul: true,
	atom.Ol: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Figure: true, atom.Figcaption: true, atom.Address: true, atom.Form: true,
}

const fence = "```"

// Text returns the readable text of an HTML document or fragment.
func Text(s string) string {
	z := html.NewTokenizer(strings.NewReader(plaintext.Clean(s)))
	var b strings.Builder
	skip, pre := 0, 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return tidy(b.String())
		}

		name, _ := z.TagName()
		a := atom.Lookup(name)
		if skipped[a] {
			switch tt {
			case html.StartTagToken:
				skip++
			case html.EndTagToken:
				skip = max(skip-1, 0)
			}
			continue
		}
		if skip > 0 {
			continue
		}

		switch tt {
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			switch {
			case a == atom.Br || a == atom.Hr:
				b.WriteByte('\n')
			case a == atom.Tr:
				b.WriteString("\n| ")
			case a == atom.Li:
				b.WriteString("\n- ")
			case a == atom.Pre && tt == html.StartTagToken:
				pre++
				if pre == 1 {
					b.WriteString("\n" + fence + "\n")
				}
			case blocks[a]:
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			switch {
			case a == atom.Td || a == atom.Th:
				b.WriteString(" | ")
			case a == atom.Tr || a == atom.Li:
				b.WriteByte('\n')
			case a == atom.Pre && pre > 0:
				pre--
				if pre == 0 {
					b.WriteString("\n" + fence + "\n")
				}
			case blocks[a]:
				b.WriteByte('\n')
			}
		}
	}
}

// tidy collapses whitespace and drops empty lines outside code fences.
// Lines inside fences keep their indentation.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	for _, line := range lines {
		if strings.TrimSpace(line) == fence {
			inFence = !inFence
			out = append(out, fence)
			continue
		}
		if inFence {
			out = append(out, strings.TrimRight(line, " \t"))
			continue
		}
		line = strings.Join(strings.Fields(line), " ")
		if line == "" || line == "|" || line == "-" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
