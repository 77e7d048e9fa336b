// Package figma parses Figma export JSON into a node tree and computes
// deterministic design statistics from it.
package figma

import "encoding/json"

// NodeType identifies the kind of a Figma node.
type NodeType string

const (
	NodeDocument  NodeType = "DOCUMENT"
	NodeCanvas    NodeType = "CANVAS"
	NodeFrame     NodeType = "FRAME"
	NodeGroup     NodeType = "GROUP"
	NodeText      NodeType = "TEXT"
	NodeRectangle NodeType = "RECTANGLE"
	NodeEllipse   NodeType = "ELLIPSE"
	NodeVector    NodeType = "VECTOR"
	NodeComponent NodeType = "COMPONENT"
	NodeInstance  NodeType = "INSTANCE"
	NodeLine      NodeType = "LINE"
)

// Rect is an absolute bounding box in canvas coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Color is a normalized RGBA color as exported by Figma (components in [0,1]).
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Paint is a fill or stroke entry. Only solid paints contribute to color
// statistics; gradients and images are counted but not sampled.
type Paint struct {
	Type    string  `json:"type"`
	Visible *bool   `json:"visible,omitempty"`
	Color   *Color  `json:"color,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
}

// IsVisible reports whether the paint participates in rendering.
// Figma omits the visible field for visible paints.
func (p Paint) IsVisible() bool {
	return p.Visible == nil || *p.Visible
}

// TextStyle carries the typographic properties of a TEXT node.
type TextStyle struct {
	FontFamily    string  `json:"fontFamily"`
	FontWeight    float64 `json:"fontWeight"`
	FontSize      float64 `json:"fontSize"`
	LineHeightPx  float64 `json:"lineHeightPx"`
	LetterSpacing float64 `json:"letterSpacing"`
	TextCase      string  `json:"textCase,omitempty"`
}

// Node is a single node in a Figma export tree.
type Node struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Type           NodeType   `json:"type"`
	Visible        *bool      `json:"visible,omitempty"`
	AbsoluteBounds *Rect      `json:"absoluteBoundingBox,omitempty"`
	Fills          []Paint    `json:"fills,omitempty"`
	Strokes        []Paint    `json:"strokes,omitempty"`
	StrokeWeight   float64    `json:"strokeWeight,omitempty"`
	CornerRadius   float64    `json:"cornerRadius,omitempty"`
	Style          *TextStyle `json:"style,omitempty"`
	Characters     string     `json:"characters,omitempty"`
	LayoutMode     string     `json:"layoutMode,omitempty"`
	ItemSpacing    float64    `json:"itemSpacing,omitempty"`
	PaddingLeft    float64    `json:"paddingLeft,omitempty"`
	PaddingRight   float64    `json:"paddingRight,omitempty"`
	PaddingTop     float64    `json:"paddingTop,omitempty"`
	PaddingBottom  float64    `json:"paddingBottom,omitempty"`
	Children       []*Node    `json:"children,omitempty"`
}

// IsVisible reports whether the node participates in rendering.
func (n *Node) IsVisible() bool {
	return n.Visible == nil || *n.Visible
}

// File is the top-level shape of a Figma file export.
type File struct {
	Name         string          `json:"name"`
	Version      string          `json:"version,omitempty"`
	LastModified string          `json:"lastModified,omitempty"`
	Document     *Node           `json:"document"`
	Raw          json.RawMessage `json:"-"`
}
