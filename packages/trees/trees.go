package trees

import (
	"fmt"
	"io"

	"github.com/fogleman/gg"
)

// MaxMembers is the number of member boxes drawn before they are folded into one.
const MaxMembers = 24

type TreeNode struct {
	Name     string
	Children []*TreeNode
}

type Member struct {
	Parent *TreeNode
	Node   *TreeNode
}

type OriginType struct {
	X float64
	Y float64
}

type Layout struct {
	RectW, RectH       float64
	GapX, GapY         float64
	PaddingTop         float64
	PaddingBottom      float64
	PaddingLeft        float64
	PaddingRight       float64
	BackgroundHexColor string
}

var DefaultLayout = Layout{
	RectW:              150,
	RectH:              50,
	GapX:               20,
	GapY:               60,
	PaddingTop:         30,
	PaddingBottom:      30,
	PaddingLeft:        30,
	PaddingRight:       30,
	BackgroundHexColor: "#36393f",
}

// TribeTree builds the hierarchy of a tribe: the leader on top, the manager below it
// and the members under the manager, or under the leader when there is none.
func TribeTree(leader, manager string, members []string) *TreeNode {
	root := &TreeNode{Name: leader}

	parent := root
	if manager != "" {
		parent = &TreeNode{Name: manager}
		root.Children = append(root.Children, parent)
	}

	shown := members
	if len(members) > MaxMembers {
		shown = members[:MaxMembers-1]
	}
	for _, member := range shown {
		parent.Children = append(parent.Children, &TreeNode{Name: member})
	}
	if len(shown) < len(members) {
		parent.Children = append(parent.Children, &TreeNode{Name: fmt.Sprintf("+%d more", len(members)-len(shown))})
	}

	return root
}

func drawBox(dc *gg.Context, row, boxesInRow, index int64, layout Layout, imgW, lineOriginX, lineOriginY float64, text string) (float64, float64) {
	var half float64 = float64(boxesInRow / 2)

	rectW, rectH, gapX, gapY := layout.RectW, layout.RectH, layout.GapX, layout.GapY
	anchorX := imgW / 2
	gapsCount := float64(boxesInRow - 1)

	var x float64

	if boxesInRow%2 == 0 {
		if float64(index) <= half {
			x = anchorX - (rectW / 2) - ((half - float64(index)) * rectW) - (((gapsCount / 2) - float64(index-1)) * gapX) - (rectW / 2)
		} else {
			x = anchorX - (rectW / 2) - ((half - float64(index) + 1) * rectW) - (((gapsCount / 2) - float64(index-1)) * gapX) + (rectW / 2)
		}
	} else {
		x = anchorX - (rectW / 2) - ((half - float64(index) + 1) * rectW) - (((gapsCount / 2) - float64(index-1)) * gapX)
	}

	var y float64 = layout.PaddingTop + ((rectH + gapY) * float64(row-1))

	dc.DrawRoundedRectangle(x, y, rectW, rectH, ((rectW+rectH)/2)/12)
	dc.SetRGB(1, 1, 1)
	dc.Fill()

	dc.DrawRoundedRectangle(x, y, rectW, rectH, ((rectW+rectH)/2)/12)
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(2)
	dc.Stroke()

	if row > 1 {
		lineStrokeWidth := 1.0
		dc.DrawLine(lineOriginX, lineOriginY+lineStrokeWidth, x+(rectW/2), y-lineStrokeWidth)
		dc.SetRGB(1, 1, 1)
		dc.SetLineWidth(lineStrokeWidth)
		dc.Stroke()
	}

	fontPaddingX := 5.0

	dc.SetRGB(0, 0, 0)
	dc.DrawStringWrapped(text, x+(rectW/2), y+(rectH/2), 0.5, 0.5, rectW-fontPaddingX, 1.0, gg.AlignCenter)

	return x + rectW/2, y + rectH
}

// rows groups the nodes by depth, breadth first.
func rows(root *TreeNode) [][]Member {
	var result [][]Member

	level := []Member{{Node: root}}
	for len(level) > 0 {
		result = append(result, level)

		var next []Member
		for _, member := range level {
			for _, child := range member.Node.Children {
				next = append(next, Member{Parent: member.Node, Node: child})
			}
		}
		level = next
	}

	return result
}

func maxRowElements(rows [][]Member) int {
	var max int

	for _, members := range rows {
		if len(members) > max {
			max = len(members)
		}
	}

	return max
}

// DrawTree renders the tree as a PNG image into w.
func DrawTree(w io.Writer, tree *TreeNode, layout Layout) error {
	treeList := rows(tree)

	rowCount := float64(len(treeList))
	maxRowElementsCount := float64(maxRowElements(treeList))

	width := (maxRowElementsCount * layout.RectW) + ((maxRowElementsCount - 1) * layout.GapX) + layout.PaddingLeft + layout.PaddingRight
	height := (rowCount*layout.RectH + (rowCount-1)*layout.GapY) + layout.PaddingTop + layout.PaddingBottom

	dc := gg.NewContext(int(width), int(height))

	dc.SetHexColor(layout.BackgroundHexColor)
	dc.Clear()

	origins := make(map[*TreeNode]OriginType)
	origins[nil] = OriginType{X: width / 2, Y: 0}

	for index, members := range treeList {
		row := index + 1

		for memberIndex, member := range members {
			origin := origins[member.Parent]

			originX, originY := drawBox(dc, int64(row), int64(len(members)), int64(memberIndex+1), layout, width, origin.X, origin.Y, member.Node.Name)

			origins[member.Node] = OriginType{X: originX, Y: originY}
		}
	}

	return dc.EncodePNG(w)
}
