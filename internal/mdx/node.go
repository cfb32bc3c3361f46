package mdx

// NodeType identifies the kind of a node in a parsed document tree.
type NodeType int

const (
	RootNode NodeType = iota
	TextNode
	ElementNode
	ExpressionNode
)

func (t NodeType) String() string {
	switch t {
	case RootNode:
		return "root"
	case TextNode:
		return "text"
	case ElementNode:
		return "element"
	case ExpressionNode:
		return "expression"
	default:
		return "unknown"
	}
}

// Attribute is a single attribute on an embedded component. Literal is only
// set for quoted string values; expression values ({...}), spreads and bare
// boolean attributes keep Literal false.
type Attribute struct {
	Name    string
	Value   string
	Literal bool
}

// Node is one node of a parsed document. Markdown block structure is
// flattened away: text attaches to the innermost open embedded component, or
// to the root when no component encloses it.
type Node struct {
	Type     NodeType
	Name     string
	Value    string
	Attrs    []Attribute
	Flow     bool
	Parent   *Node
	Children []*Node
}

// Document is the result of parsing one markup file.
type Document struct {
	Root        *Node
	FrontMatter map[string]any
}

// Attr returns the named attribute if present.
func (n *Node) Attr(name string) (Attribute, bool) {
	if n == nil {
		return Attribute{}, false
	}
	for _, attr := range n.Attrs {
		if attr.Name == name {
			return attr, true
		}
	}
	return Attribute{}, false
}

// StringAttr returns the literal string value of the named attribute.
func (n *Node) StringAttr(name string) (string, bool) {
	attr, ok := n.Attr(name)
	if !ok || !attr.Literal {
		return "", false
	}
	return attr.Value, true
}

// Walk visits n and its descendants depth-first in document order. Returning
// false from fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// ParentName returns the tag name of the immediate parent element, or an
// empty string for nodes attached to the root.
func (n *Node) ParentName() string {
	if n == nil || n.Parent == nil || n.Parent.Type != ElementNode {
		return ""
	}
	return n.Parent.Name
}

func (n *Node) appendChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

func (n *Node) lastChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}
