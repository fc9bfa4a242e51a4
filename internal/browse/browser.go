package browse

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/pixil98/go-blueprints/internal/blueprint"
	"github.com/pixil98/go-blueprints/internal/display"
	"github.com/rivo/tview"
)

// Browser is an interactive terminal view of the inheritance tree: the
// hierarchy on the left, the selected blueprint's resolved properties on the
// right. Children load lazily so trees with tens of thousands of blueprints
// open instantly.
type Browser struct {
	resolver *blueprint.Resolver
	app      *tview.Application
	detail   *tview.TextView
}

// NewBrowser creates a browser over a resolver's tree.
func NewBrowser(resolver *blueprint.Resolver) *Browser {
	return &Browser{
		resolver: resolver,
		app:      tview.NewApplication(),
	}
}

// Start runs the terminal UI until the context ends or the user quits.
func (b *Browser) Start(ctx context.Context) error {
	tree := b.resolver.Tree()

	rootNode := tview.NewTreeNode(tree.Root.ID()).
		SetReference(tree.Root).
		SetColor(tcell.ColorGreen)
	b.addChildren(rootNode, tree.Root)

	treeView := tview.NewTreeView().
		SetRoot(rootNode).
		SetCurrentNode(rootNode)
	treeView.SetBorder(true).SetTitle("blueprints")

	b.detail = tview.NewTextView().SetDynamicColors(false)
	b.detail.SetBorder(true).SetTitle("properties")

	treeView.SetChangedFunc(func(tn *tview.TreeNode) {
		if node, ok := tn.GetReference().(*blueprint.Node); ok {
			b.showDetail(node)
		}
	})
	treeView.SetSelectedFunc(func(tn *tview.TreeNode) {
		node, ok := tn.GetReference().(*blueprint.Node)
		if !ok {
			return
		}
		if len(tn.GetChildren()) == 0 {
			b.addChildren(tn, node)
			return
		}
		tn.SetExpanded(!tn.IsExpanded())
	})

	flex := tview.NewFlex().
		AddItem(treeView, 0, 1, true).
		AddItem(b.detail, 0, 2, false)

	b.showDetail(tree.Root)

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			b.app.Stop()
		case <-stop:
		}
	}()
	defer close(stop)

	return b.app.SetRoot(flex, true).Run()
}

// addChildren attaches one level of child nodes, sorted by ID.
func (b *Browser) addChildren(tn *tview.TreeNode, node *blueprint.Node) {
	children := make([]*blueprint.Node, len(node.Children))
	copy(children, node.Children)
	sort.Slice(children, func(i, j int) bool {
		return children[i].ID() < children[j].ID()
	})

	for _, child := range children {
		cn := tview.NewTreeNode(child.ID()).SetReference(child)
		if len(child.Children) > 0 {
			cn.SetColor(tcell.ColorGreen)
		}
		tn.AddChild(cn)
	}
}

// statProps maps stat property names to their stat fragment names, for range
// annotation in the detail pane.
var statProps = map[string]string{
	"strength":     "Strength",
	"agility":      "Agility",
	"toughness":    "Toughness",
	"intelligence": "Intelligence",
	"willpower":    "Willpower",
	"ego":          "Ego",
	"hitpoints":    "Hitpoints",
}

// showDetail renders every known property of the blueprint into the detail
// pane. Stat dice strings are annotated with their analyzed range.
func (b *Browser) showDetail(node *blueprint.Node) {
	props := blueprint.Properties()
	sort.Strings(props)

	var sb strings.Builder
	if v, err := b.resolver.Resolve(node, "displayname"); err == nil {
		if name, ok := v.(string); ok && name != "" {
			fmt.Fprintf(&sb, "%s\n", display.Capitalize(name))
		}
	}
	fmt.Fprintf(&sb, "%s\n\n", node.InheritancePath())
	for _, prop := range props {
		v, err := b.resolver.Resolve(node, prop)
		if err != nil {
			continue
		}
		if s, ok := v.(string); ok {
			if s == "" {
				continue
			}
			// The scaling sValue form is not a plain dice string
			if stat, isStat := statProps[prop]; isStat && !strings.Contains(s, ",") {
				if min, avg, max, err := b.resolver.StatRange(node, stat); err == nil && max > min {
					fmt.Fprintf(&sb, "%-16s %s (%d to %d, avg %.1f)\n", prop, s, min, max, avg)
					continue
				}
			}
		}
		fmt.Fprintf(&sb, "%-16s %v\n", prop, v)
	}
	b.detail.SetText(sb.String())
}
