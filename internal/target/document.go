package target

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/stylesync/internal/css"
)

// Attributes carried by container elements.
const (
	AttrPrecedence = "data-precedence"
	AttrHref       = "data-href"
	AttrContainer  = "data-container"
)

const emptyDocument = "<!DOCTYPE html><html><head></head><body></body></html>"

// Document is an HTML document whose <head> holds the style containers.
// Containers rendered by an earlier pass are found by Discover and adopted.
type Document struct {
	mutex sync.Mutex
	root  *html.Node
	head  *html.Node
}

type documentContainer struct {
	doc  *Document
	node *html.Node
	id   string
	tier css.Tier
}

var _ Target = (*Document)(nil)

// NewDocument creates an empty HTML document.
func NewDocument() *Document {
	doc, err := ParseDocument(strings.NewReader(emptyDocument))
	if err != nil {
		panic(fmt.Sprintf("target: parsing empty document: %v", err))
	}
	return doc
}

// ParseDocument parses r as an HTML document. The parser always
// synthesizes a <head>, so every document can hold containers.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	head := findElement(root, atom.Head)
	if head == nil {
		return nil, fmt.Errorf("document has no head element")
	}
	return &Document{root: root, head: head}, nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func isContainer(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Style {
		return false
	}
	_, ok := attr(n, AttrPrecedence)
	return ok
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// Discover implements Target. Containers are the <style> elements of <head>
// carrying a precedence attribute naming a known tier. Elements with any other
// precedence belong to someone else and are left alone. A container without
// an identity gets one.
func (d *Document) Discover(_ context.Context) ([]Discovered, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	var out []Discovered
	for n := d.head.FirstChild; n != nil; n = n.NextSibling {
		if !isContainer(n) {
			continue
		}
		precedence, _ := attr(n, AttrPrecedence)
		tier, err := css.ParseTier(precedence)
		if err != nil {
			continue
		}
		id, ok := attr(n, AttrContainer)
		if !ok || id == "" {
			id = uuid.NewString()
			setAttr(n, AttrContainer, id)
		}
		href, _ := attr(n, AttrHref)

		out = append(out, Discovered{
			Handle: &documentContainer{doc: d, node: n, id: id, tier: tier},
			Tier:   tier,
			IDs:    strings.Fields(href),
			Text:   textOf(n),
		})
	}
	return out, nil
}

// CreateContainer implements Target.
func (d *Document) CreateContainer(_ context.Context, tier css.Tier) (Handle, error) {
	id := uuid.NewString()
	node := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Style,
		Data:     "style",
		Attr: []html.Attribute{
			{Key: AttrPrecedence, Val: tier.Prefix()},
			{Key: AttrHref, Val: ""},
			{Key: AttrContainer, Val: id},
		},
	}
	return &documentContainer{doc: d, node: node, id: id, tier: tier}, nil
}

// Render writes the whole document as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return html.Render(w, d.root)
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

func (c *documentContainer) ID() string     { return c.id }
func (c *documentContainer) Tier() css.Tier { return c.tier }

func (c *documentContainer) Attached() bool {
	c.doc.mutex.Lock()
	defer c.doc.mutex.Unlock()
	return c.node.Parent != nil
}

func (c *documentContainer) SetText(_ context.Context, ids []string, text string) error {
	c.doc.mutex.Lock()
	defer c.doc.mutex.Unlock()

	if strings.Contains(strings.ToLower(text), "</style") {
		return fmt.Errorf("container %s: rule text would close its style element", c.id)
	}
	for child := c.node.FirstChild; child != nil; {
		next := child.NextSibling
		c.node.RemoveChild(child)
		child = next
	}
	c.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	setAttr(c.node, AttrHref, strings.Join(ids, " "))
	return nil
}

func (c *documentContainer) Attach(_ context.Context, after Handle) error {
	c.doc.mutex.Lock()
	defer c.doc.mutex.Unlock()

	if c.node.Parent != nil {
		return nil
	}
	if after == nil {
		// first among the containers, or last in head when there are none
		for n := c.doc.head.FirstChild; n != nil; n = n.NextSibling {
			if isContainer(n) {
				c.doc.head.InsertBefore(c.node, n)
				return nil
			}
		}
		c.doc.head.AppendChild(c.node)
		return nil
	}

	prev, ok := after.(*documentContainer)
	if !ok || prev.doc != c.doc {
		return fmt.Errorf("container %s: cannot attach after foreign container %s", c.id, after.ID())
	}
	if prev.node.Parent == nil {
		return fmt.Errorf("container %s: anchor %s is detached", c.id, prev.id)
	}
	prev.node.Parent.InsertBefore(c.node, prev.node.NextSibling)
	return nil
}

func (c *documentContainer) Detach(_ context.Context) error {
	c.doc.mutex.Lock()
	defer c.doc.mutex.Unlock()
	if c.node.Parent != nil {
		c.node.Parent.RemoveChild(c.node)
	}
	return nil
}
