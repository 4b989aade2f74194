// Package labels builds the html label nodes shown next to markers, block
// polygons and 3D objects. Labels are structured nodes rendered with templ,
// never raw string concatenation.
package labels

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind selects a label template.
type Kind string

const (
	KindCommunity     Kind = "community"
	KindFacility      Kind = "facility"
	KindPoint         Kind = "point"
	KindSchoolPrimary Kind = "school-primary"
	KindSchoolMiddle  Kind = "school-middle"
	KindBuilding      Kind = "building"
	KindUnit          Kind = "unit"
	KindProject       Kind = "project"
	KindBlockCount    Kind = "block-count"
	KindBlockName     Kind = "block-name"
)

// Node is a structured html element description.
type Node struct {
	Tag      string            `json:"tag"`
	Class    string            `json:"class,omitempty"`
	Text     string            `json:"text,omitempty"`
	Style    map[string]string `json:"style,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []Node            `json:"children,omitempty"`
}

// PlainText joins the text of n and its descendants with single spaces.
func (n Node) PlainText() string {
	var parts []string
	var walk func(Node)
	walk = func(n Node) {
		if n.Text != "" {
			parts = append(parts, n.Text)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

// Data is the payload a label template reads. Each kind uses a subset.
type Data struct {
	Name        string
	Count       int
	Status      string
	Area        float64
	Orientation string
}

func div(class string, children ...Node) Node {
	return Node{Tag: "div", Class: class, Children: children}
}

func text(tag, class, s string) Node {
	return Node{Tag: tag, Class: class, Text: s}
}

// leader is the floating label layout used for 3D anchored points.
func leader(prefix, name string) Node {
	return div(prefix+"-label-3d",
		div(prefix+"-line"),
		div(prefix+"-content", text("div", prefix+"-text", name)),
	)
}

func Community(d Data) Node { return leader("community", d.Name) }
func Facility(d Data) Node  { return leader("facility", d.Name) }
func Point(d Data) Node     { return leader("point", d.Name) }

func pin(class, name string) Node {
	return div(class,
		text("div", "marker-text", name),
		div("marker-pin"),
	)
}

func SchoolPrimary(d Data) Node { return pin("school-marker primary", d.Name) }
func SchoolMiddle(d Data) Node  { return pin("school-marker middle", d.Name) }

func Project(d Data) Node {
	class := "project-marker"
	if d.Status != "" {
		class += " " + d.Status
	}
	return pin(class, d.Name)
}

func Building(d Data) Node {
	n := text("div", "building-label-3d-text", d.Name)
	n.Style = map[string]string{"transform": "translate(-50%, -100%)"}
	return n
}

func Unit(d Data) Node {
	var info []string
	if d.Area > 0 {
		info = append(info, strconv.FormatFloat(d.Area, 'f', -1, 64)+"m²")
	}
	if d.Orientation != "" {
		info = append(info, d.Orientation)
	}
	return div("unit-label-3d-text",
		text("div", "unit-name", d.Name),
		text("div", "unit-info", strings.Join(info, " | ")),
	)
}

// BlockCount shows the block name with its listing count. A block without
// listings falls back to the name-only form.
func BlockCount(d Data) Node {
	if d.Count <= 0 {
		return BlockName(d)
	}
	return div("block-label count",
		text("span", "block-name", d.Name),
		text("span", "block-count", strconv.Itoa(d.Count)),
	)
}

func BlockName(d Data) Node {
	return div("block-label", text("span", "block-name", d.Name))
}

var builders = map[Kind]func(Data) Node{
	KindCommunity:     Community,
	KindFacility:      Facility,
	KindPoint:         Point,
	KindSchoolPrimary: SchoolPrimary,
	KindSchoolMiddle:  SchoolMiddle,
	KindBuilding:      Building,
	KindUnit:          Unit,
	KindProject:       Project,
	KindBlockCount:    BlockCount,
	KindBlockName:     BlockName,
}

// For builds the label of kind from d.
func For(kind Kind, d Data) (Node, error) {
	build, ok := builders[kind]
	if !ok {
		return Node{}, fmt.Errorf("no label template for kind %q", kind)
	}
	return build(d), nil
}

func Kinds() []Kind {
	out := make([]Kind, 0, len(builders))
	for k := range builders {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
