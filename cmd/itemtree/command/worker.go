package command

import (
	"fmt"

	"github.com/pixil98/go-itemtree/internal/driver"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Load item templates
	cat, err := cfg.Storage.BuildCatalog()
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}

	// Open the snapshot backend
	store, err := cfg.Storage.Snapshots.BuildStore()
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	server, err := cfg.Nats.BuildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	svc := cfg.Vault.BuildService(cat, store, server)

	// Setup the driver to tick effects
	d := driver.NewDriver([]driver.Manager{
		svc,
	}, driver.WithTickLength(cfg.tickLength()))

	// Create a worker list
	return service.WorkerList{
		"driver": d,
		"nats":   server,
		"vault":  svc,
	}, nil
}
