package session

import (
	"context"

	"github.com/roach88/deckcfg/internal/model"
)

// Backend persists the two documents as raw JSON. A document that does not
// exist yet is reported as *model.NotFoundError; any other failure is a
// transport failure.
type Backend interface {
	LoadConfiguration(ctx context.Context) ([]byte, error)
	SaveConfiguration(ctx context.Context, data []byte) error
	LoadBindings(ctx context.Context) ([]byte, error)
	SaveBindings(ctx context.Context, data []byte) error
}

// Inventory lists the installed applications.
type Inventory interface {
	ListInstalledApps(ctx context.Context) ([]string, error)
}

// ActionSink receives every fired binding.
type ActionSink func(model.Binding)
