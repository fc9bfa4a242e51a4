package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/pixil98/go-blueprints/internal/blueprint"
	"github.com/pixil98/go-blueprints/internal/render"
	"github.com/pixil98/go-errors"
)

// Exporter writes one text summary per blueprint, and a tile image for every
// blueprint that renders one, into an output directory.
type Exporter struct {
	resolver   *blueprint.Resolver
	compositor *render.Compositor
	outDir     string
	tmpl       string
	wrapWidth  int
}

// ExporterOpt configures an Exporter.
type ExporterOpt func(*Exporter)

// WithTiles enables tile image output through the given compositor.
func WithTiles(c *render.Compositor) ExporterOpt {
	return func(e *Exporter) {
		e.compositor = c
	}
}

// WithTemplate overrides the summary template.
func WithTemplate(tmpl string) ExporterOpt {
	return func(e *Exporter) {
		e.tmpl = tmpl
	}
}

// WithWrapWidth overrides the column width descriptions are wrapped to.
func WithWrapWidth(width int) ExporterOpt {
	return func(e *Exporter) {
		e.wrapWidth = width
	}
}

// NewExporter creates an exporter writing into outDir.
func NewExporter(resolver *blueprint.Resolver, outDir string, opts ...ExporterOpt) *Exporter {
	e := &Exporter{
		resolver: resolver,
		outDir:   outDir,
		tmpl:     DefaultSummaryTemplate,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start runs one full export and returns. Per-blueprint failures are
// collected; one bad blueprint never stops the batch.
func (e *Exporter) Start(ctx context.Context) error {
	if err := os.MkdirAll(e.outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	index := e.resolver.Tree().Index
	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	el := errors.NewErrorList()
	summaries, tiles, failures := 0, 0, 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		node := index[id]

		if err := e.writeSummary(node); err != nil {
			el.Add(fmt.Errorf("exporting %s: %w", id, err))
			failures++
			continue
		}
		summaries++

		if e.compositor == nil || !e.resolver.HasTile(node) {
			continue
		}
		if err := e.writeTile(node); err != nil {
			el.Add(fmt.Errorf("exporting %s tile: %w", id, err))
			failures++
			continue
		}
		tiles++
	}

	slog.InfoContext(ctx, "export finished", "summaries", summaries, "tiles", tiles, "failures", failures)
	return el.Err()
}

func (e *Exporter) writeSummary(node *blueprint.Node) error {
	summary, err := Summarize(e.resolver, node, e.wrapWidth)
	if err != nil {
		return err
	}
	text, err := ExpandTemplate(e.tmpl, summary)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(e.outDir, node.ID()+".txt"), []byte(text), 0644)
}

// writeTile writes the tile at native size and the enlarged wiki-style
// variant.
func (e *Exporter) writeTile(node *blueprint.Node) error {
	tile, err := e.compositor.Compose(e.resolver.RenderAttributes(node))
	if err != nil {
		return err
	}

	data, err := tile.PNG()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(e.outDir, node.ID()+".png"), data, 0644); err != nil {
		return err
	}

	big, err := tile.BigPNG()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(e.outDir, node.ID()+"-big.png"), big, 0644)
}
