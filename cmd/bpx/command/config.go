package command

import (
	"github.com/pixil98/go-errors"
)

type Config struct {
	Dataset DatasetConfig `json:"dataset"`
	Nats    NatsConfig    `json:"nats"`
	Export  ExportConfig  `json:"export"`
	Browse  BrowseConfig  `json:"browse"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	el.Add(c.Dataset.validate())
	el.Add(c.Nats.validate())

	return el.Err()
}

// ExportConfig enables the batch exporter. An empty output path disables it.
type ExportConfig struct {
	OutDir    string `json:"out_dir"`
	Template  string `json:"template"`
	WrapWidth int    `json:"wrap_width"`
}

func (c *ExportConfig) enabled() bool {
	return c.OutDir != ""
}

// BrowseConfig enables the interactive tree browser.
type BrowseConfig struct {
	Enabled bool `json:"enabled"`
}
