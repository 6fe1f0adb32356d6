//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/undownding/city-card/internal/bootstrap"
	"github.com/undownding/city-card/internal/domain/card"
	"github.com/undownding/city-card/internal/domain/cityprofile"
	"github.com/undownding/city-card/internal/domain/geo"
	"github.com/undownding/city-card/internal/infra/config"
	"github.com/undownding/city-card/internal/infra/gateway"
	"github.com/undownding/city-card/internal/infra/geocode/nominatim"
	httpiface "github.com/undownding/city-card/internal/interface/http"
	"github.com/undownding/city-card/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideCardConfig,
		provideProfileConfig,
		provideGatewayClient,
		provideGeocodeClient,
		provideBlobStore,
		provideDescriptorStore,
		provideGenerationLog,
		provideImageNormalizer,
		provideCardMetrics,
		cityprofile.NewResolver,
		card.NewService,
		geo.NewService,
		wire.Bind(new(card.ModelClient), new(*gateway.Client)),
		wire.Bind(new(cityprofile.ModelClient), new(*gateway.Client)),
		wire.Bind(new(card.ProfileResolver), new(cityprofile.Resolver)),
		wire.Bind(new(geo.GeocodeClient), new(*nominatim.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
