//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/orderledger/server/internal/infra/config"
)

// InitializeApp wires the application from cfg.
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		AppSet,
		newApp,
	)
	return nil, nil, nil
}
