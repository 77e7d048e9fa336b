package figma

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// MaxTreeDepth bounds the recursive walk. Figma exports are shallow in
// practice; anything deeper is treated as malformed.
const MaxTreeDepth = 64

// maxSpacingSample caps individual spacing observations. Gaps above this are
// section breaks, not rhythm, and would distort the quantum.
const maxSpacingSample = 160

// Observations holds the raw measurements collected by a single walk of the
// export tree. All downstream statistics derive from this struct.
type Observations struct {
	Spacings     []float64
	FontSizes    []float64
	FontFamilies map[string]int
	FontWeights  map[float64]int
	CornerRadii  []float64
	Colors       []Color
	StrokeColors []Color
	NodeCounts   map[NodeType]int
	TextNodes    int
	TotalNodes   int
	MaxDepth     int
	GradientUses int
	ImageUses    int
}

// Parser walks a Figma export tree and collects design observations.
type Parser struct {
	logger *slog.Logger
}

// NewParser returns a Parser. A nil logger falls back to slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParseFile decodes a Figma export and returns the file with its document tree.
func (p *Parser) ParseFile(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("figma parse: %w", err)
	}
	if f.Document == nil {
		return nil, fmt.Errorf("figma parse: export has no document node")
	}
	f.Raw = json.RawMessage(data)
	return &f, nil
}

// Collect performs a single pass over the tree and returns all observations.
func (p *Parser) Collect(root *Node) (*Observations, error) {
	if root == nil {
		return nil, fmt.Errorf("figma collect: nil root")
	}
	obs := &Observations{
		FontFamilies: make(map[string]int),
		FontWeights:  make(map[float64]int),
		NodeCounts:   make(map[NodeType]int),
	}
	if err := p.walk(root, 0, obs); err != nil {
		return nil, err
	}
	p.logger.Debug("figma observations collected",
		"nodes", obs.TotalNodes,
		"spacings", len(obs.Spacings),
		"font_sizes", len(obs.FontSizes),
		"colors", len(obs.Colors),
		"max_depth", obs.MaxDepth)
	return obs, nil
}

func (p *Parser) walk(n *Node, depth int, obs *Observations) error {
	if depth > MaxTreeDepth {
		return fmt.Errorf("figma collect: tree deeper than %d at node %s", MaxTreeDepth, n.ID)
	}
	if !n.IsVisible() {
		return nil
	}

	obs.TotalNodes++
	obs.NodeCounts[n.Type]++
	if depth > obs.MaxDepth {
		obs.MaxDepth = depth
	}

	p.collectPaints(n, obs)
	p.collectText(n, obs)
	p.collectGeometry(n, obs)
	p.collectSpacing(n, obs)

	for _, child := range n.Children {
		if err := p.walk(child, depth+1, obs); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) collectPaints(n *Node, obs *Observations) {
	for _, fill := range n.Fills {
		if !fill.IsVisible() {
			continue
		}
		switch fill.Type {
		case "SOLID":
			if fill.Color != nil {
				obs.Colors = append(obs.Colors, *fill.Color)
			}
		case "IMAGE":
			obs.ImageUses++
		default:
			// GRADIENT_LINEAR, GRADIENT_RADIAL, etc.
			obs.GradientUses++
		}
	}
	for _, stroke := range n.Strokes {
		if stroke.IsVisible() && stroke.Type == "SOLID" && stroke.Color != nil {
			obs.StrokeColors = append(obs.StrokeColors, *stroke.Color)
		}
	}
}

func (p *Parser) collectText(n *Node, obs *Observations) {
	if n.Type != NodeText || n.Style == nil {
		return
	}
	obs.TextNodes++
	if n.Style.FontSize > 0 {
		obs.FontSizes = append(obs.FontSizes, n.Style.FontSize)
	}
	if n.Style.FontFamily != "" {
		obs.FontFamilies[n.Style.FontFamily]++
	}
	if n.Style.FontWeight > 0 {
		obs.FontWeights[n.Style.FontWeight]++
	}
}

func (p *Parser) collectGeometry(n *Node, obs *Observations) {
	if n.CornerRadius > 0 {
		obs.CornerRadii = append(obs.CornerRadii, n.CornerRadius)
	}
}

// collectSpacing records the vertical and horizontal gaps between adjacent
// sibling bounds, plus explicit auto-layout spacing and padding when present.
// Explicit values are authored intent and are recorded even when geometry is
// ambiguous.
func (p *Parser) collectSpacing(n *Node, obs *Observations) {
	if n.LayoutMode != "" {
		if n.ItemSpacing > 0 {
			obs.Spacings = appendSpacing(obs.Spacings, n.ItemSpacing)
		}
		for _, pad := range []float64{n.PaddingLeft, n.PaddingRight, n.PaddingTop, n.PaddingBottom} {
			if pad > 0 {
				obs.Spacings = appendSpacing(obs.Spacings, pad)
			}
		}
	}

	if len(n.Children) < 2 {
		return
	}
	bounded := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.IsVisible() && c.AbsoluteBounds != nil {
			bounded = append(bounded, c)
		}
	}
	if len(bounded) < 2 {
		return
	}

	vertical := make([]*Node, len(bounded))
	copy(vertical, bounded)
	sort.Slice(vertical, func(i, j int) bool {
		return vertical[i].AbsoluteBounds.Y < vertical[j].AbsoluteBounds.Y
	})
	for i := 1; i < len(vertical); i++ {
		gap := vertical[i].AbsoluteBounds.Y - vertical[i-1].AbsoluteBounds.Bottom()
		obs.Spacings = appendSpacing(obs.Spacings, gap)
	}

	horizontal := make([]*Node, len(bounded))
	copy(horizontal, bounded)
	sort.Slice(horizontal, func(i, j int) bool {
		return horizontal[i].AbsoluteBounds.X < horizontal[j].AbsoluteBounds.X
	})
	for i := 1; i < len(horizontal); i++ {
		gap := horizontal[i].AbsoluteBounds.X - horizontal[i-1].AbsoluteBounds.Right()
		obs.Spacings = appendSpacing(obs.Spacings, gap)
	}
}

// appendSpacing rounds a gap to the nearest pixel and keeps it if it is a
// plausible rhythm value. Overlapping siblings produce negative gaps, which
// are discarded.
func appendSpacing(spacings []float64, gap float64) []float64 {
	px := math.Round(gap)
	if px < 1 || px > maxSpacingSample {
		return spacings
	}
	return append(spacings, px)
}
