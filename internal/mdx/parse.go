package mdx

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
)

// Parse builds a document tree from MDX or Markdown source. Markdown is parsed
// with goldmark; embedded components surface from its raw HTML nodes and are
// re-lexed with case-sensitive names. ESM import/export blocks and code are
// dropped.
//
// Parse always returns a usable document. A non-nil error reports malformed
// front matter; the body is still parsed in that case.
func Parse(source []byte) (*Document, error) {
	fm, format, body := splitFrontMatter(source)
	body = stripESM(body)

	doc := &Document{Root: &Node{Type: RootNode}}
	frontMatter, fmErr := parseFrontMatter(fm, format)
	doc.FrontMatter = frontMatter

	tree := goldmark.DefaultParser().Parse(text.NewReader(body))

	b := &builder{root: doc.Root}
	_ = ast.Walk(tree, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.CodeSpan, *ast.FencedCodeBlock, *ast.CodeBlock, *ast.Image:
			b.breakText()
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.markdownText(node, body)
		case *ast.AutoLink:
			b.breakText()
			b.addText(string(node.Label(body)))
			b.breakText()
		case *ast.RawHTML:
			var buf bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				segment := node.Segments.At(i)
				buf.Write(segment.Value(body))
			}
			b.feed(buf.String(), false)
		case *ast.HTMLBlock:
			var buf bytes.Buffer
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				buf.Write(segment.Value(body))
			}
			if node.HasClosure() {
				buf.Write(node.ClosureLine.Value(body))
			}
			b.feed(buf.String(), true)
		default:
			if n.Type() == ast.TypeBlock {
				b.breakText()
			}
		}
		return ast.WalkContinue, nil
	})

	markExpressions(doc.Root)

	return doc, fmErr
}

type builder struct {
	root  *Node
	stack []*Node

	// lastText and lastSource track the most recent text node so that
	// consecutive goldmark text segments merge into one node.
	lastText   *Node
	lastSource *ast.Text
}

func (b *builder) current() *Node {
	if len(b.stack) == 0 {
		return b.root
	}
	return b.stack[len(b.stack)-1]
}

func (b *builder) breakText() {
	b.lastText = nil
	b.lastSource = nil
}

func (b *builder) addText(value string) *Node {
	node := &Node{Type: TextNode, Value: value}
	b.current().appendChild(node)
	return node
}

func (b *builder) markdownText(n *ast.Text, source []byte) {
	raw := n.Segment.Value(source)
	// Components whose attributes are not valid HTML stay as literal text.
	if bytes.IndexByte(raw, '<') >= 0 && containsTag(string(raw)) {
		b.feed(string(raw), false)
		return
	}
	value := decodeText(raw)

	if prev, ok := n.PreviousSibling().(*ast.Text); ok && prev == b.lastSource && b.lastText != nil && b.lastText.Parent == b.current() {
		if prev.SoftLineBreak() || prev.HardLineBreak() {
			b.lastText.Value += "\n"
		}
		b.lastText.Value += value
		b.lastSource = n
		return
	}

	b.lastText = b.addText(value)
	b.lastSource = n
}

// feed applies the tags and text of a raw markup fragment to the tree.
func (b *builder) feed(raw string, flow bool) {
	b.breakText()
	for _, tok := range lexJSX(raw) {
		switch tok.kind {
		case tokText:
			if value := strings.TrimSpace(html.UnescapeString(tok.text)); value != "" {
				b.addText(value)
			}
		case tokExpression:
			b.current().appendChild(&Node{Type: ExpressionNode, Value: tok.text})
		case tokOpen:
			element := &Node{Type: ElementNode, Name: tok.name, Attrs: tok.attrs, Flow: flow}
			b.current().appendChild(element)
			if !tok.selfClosing {
				b.stack = append(b.stack, element)
			}
		case tokClose:
			b.close(tok.name)
		}
	}
	b.breakText()
}

// close pops the innermost open element with the given name. Unmatched
// closing tags are ignored.
func (b *builder) close(name string) {
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i].Name == name {
			b.stack = b.stack[:i]
			return
		}
	}
}

func containsTag(raw string) bool {
	for _, tok := range lexJSX(raw) {
		if tok.kind == tokOpen || tok.kind == tokClose {
			return true
		}
	}
	return false
}

func decodeText(raw []byte) string {
	return html.UnescapeString(string(util.UnescapePunctuations(raw)))
}

// markExpressions turns text nodes that consist solely of a {...} expression
// into expression nodes.
func markExpressions(root *Node) {
	root.Walk(func(n *Node) bool {
		if n.Type != TextNode {
			return true
		}
		trimmed := strings.TrimSpace(n.Value)
		if len(trimmed) >= 2 && trimmed[0] == '{' {
			if end, ok := skipBalanced(trimmed, 0); ok && end == len(trimmed) {
				n.Type = ExpressionNode
				n.Value = trimmed
			}
		}
		return true
	})
}

// stripESM blanks out top-level import/export blocks. A block starts at a
// line beginning with "import " or "export " and runs to the next blank line.
func stripESM(body []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(body))

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), len(body)+1)

	var fence string
	inESM := false
	prevBlank := true
	first := true

	for scanner.Scan() {
		line := scanner.Text()
		if !first {
			out.WriteByte('\n')
		}
		first = false

		trimmed := strings.TrimSpace(line)
		blank := trimmed == ""

		switch {
		case fence != "":
			if strings.HasPrefix(strings.TrimLeft(line, " "), fence) {
				fence = ""
			}
			out.WriteString(line)
		case inESM:
			if blank {
				inESM = false
			}
		case prevBlank && (strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "export ")):
			inESM = true
		default:
			if marker := fenceMarker(line); marker != "" {
				fence = marker
			}
			out.WriteString(line)
		}
		prevBlank = blank
	}
	if len(body) > 0 && body[len(body)-1] == '\n' {
		out.WriteByte('\n')
	}

	return out.Bytes()
}

func fenceMarker(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return ""
	}
	for _, marker := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, marker) {
			return marker
		}
	}
	return ""
}
