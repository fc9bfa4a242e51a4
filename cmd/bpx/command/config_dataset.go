package command

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pixil98/go-blueprints/internal/blueprint"
	"github.com/pixil98/go-blueprints/internal/chargen"
	"github.com/pixil98/go-blueprints/internal/render"
	"github.com/pixil98/go-blueprints/internal/storage"
	"github.com/pixil98/go-errors"
)

// DatasetConfig points at the raw game data: the blueprint markup directory,
// plus optional pronoun assets, tile textures, and character code files.
type DatasetConfig struct {
	Blueprints string                          `json:"blueprints"`
	Pronouns   AssetConfig[*blueprint.Pronoun] `json:"pronouns"`
	Textures   string                          `json:"textures"`
	Codes      string                          `json:"codes"`
}

func (c *DatasetConfig) validate() error {
	el := errors.NewErrorList()

	if c.Blueprints == "" {
		el.Add(fmt.Errorf("blueprints: path is required"))
	} else if _, err := os.Stat(c.Blueprints); err != nil {
		el.Add(fmt.Errorf("blueprints: invalid path %q: %w", c.Blueprints, err))
	}

	if c.Pronouns.Path != "" {
		el.Add(c.Pronouns.Validate("pronouns"))
	}
	for name, path := range map[string]string{"textures": c.Textures, "codes": c.Codes} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			el.Add(fmt.Errorf("%s: invalid path %q: %w", name, path, err))
		}
	}

	return el.Err()
}

// BuildResolver loads the blueprint set, links the inheritance tree, and
// attaches the pronoun assets when configured.
func (c *DatasetConfig) BuildResolver() (*blueprint.Resolver, error) {
	res, err := blueprint.LoadDir(c.Blueprints)
	if err != nil {
		return nil, fmt.Errorf("loading blueprints: %w", err)
	}

	tree, err := blueprint.BuildTree(res.Records)
	if err != nil {
		return nil, fmt.Errorf("linking blueprints: %w", err)
	}

	var opts []blueprint.ResolverOpt
	if c.Pronouns.Path != "" {
		pronouns, err := c.Pronouns.BuildFileStore()
		if err != nil {
			return nil, fmt.Errorf("creating pronoun store: %w", err)
		}
		opts = append(opts, blueprint.WithPronouns(pronouns))
	}

	return blueprint.NewResolver(tree, opts...), nil
}

// BuildCompositor creates the tile compositor over the texture directory, or
// nil when no textures are configured.
func (c *DatasetConfig) BuildCompositor() *render.Compositor {
	if c.Textures == "" {
		return nil
	}
	dir := c.Textures
	return render.NewCompositor(func(name string) (image.Image, error) {
		return imaging.Open(filepath.Join(dir, name))
	})
}

// BuildCodes loads the character code tables, or nil when not configured.
func (c *DatasetConfig) BuildCodes() (*chargen.Codes, error) {
	if c.Codes == "" {
		return nil, nil
	}
	return chargen.LoadCodes(c.Codes)
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}
