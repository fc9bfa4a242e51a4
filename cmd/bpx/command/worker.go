package command

import (
	"fmt"

	"github.com/pixil98/go-blueprints/internal/browse"
	"github.com/pixil98/go-blueprints/internal/export"
	"github.com/pixil98/go-blueprints/internal/messaging"
	service "github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	resolver, err := cfg.Dataset.BuildResolver()
	if err != nil {
		return nil, fmt.Errorf("building resolver: %w", err)
	}

	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	var queryOpts []messaging.QueryServiceOpt
	codes, err := cfg.Dataset.BuildCodes()
	if err != nil {
		return nil, fmt.Errorf("loading character codes: %w", err)
	}
	if codes != nil {
		queryOpts = append(queryOpts, messaging.WithCodes(codes))
	}

	workers := service.WorkerList{
		"nats":  natsServer,
		"query": messaging.NewQueryService(natsServer, resolver, queryOpts...),
	}

	if cfg.Export.enabled() {
		var exportOpts []export.ExporterOpt
		if c := cfg.Dataset.BuildCompositor(); c != nil {
			exportOpts = append(exportOpts, export.WithTiles(c))
		}
		if cfg.Export.Template != "" {
			exportOpts = append(exportOpts, export.WithTemplate(cfg.Export.Template))
		}
		if cfg.Export.WrapWidth > 0 {
			exportOpts = append(exportOpts, export.WithWrapWidth(cfg.Export.WrapWidth))
		}
		workers["exporter"] = export.NewExporter(resolver, cfg.Export.OutDir, exportOpts...)
	}

	if cfg.Browse.Enabled {
		workers["browser"] = browse.NewBrowser(resolver)
	}

	return workers, nil
}
