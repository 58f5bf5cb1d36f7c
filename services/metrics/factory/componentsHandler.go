package factory

import (
	"github.com/iulianpascalau/dashboard-metrics/services/metrics/adapters"
	"github.com/iulianpascalau/dashboard-metrics/services/metrics/aggregator"
	"github.com/iulianpascalau/dashboard-metrics/services/metrics/api"
	"github.com/iulianpascalau/dashboard-metrics/services/metrics/config"
	"github.com/iulianpascalau/dashboard-metrics/services/metrics/storage"
)

type componentsHandler struct {
	store  api.Storage
	server Server
}

// NewComponentsHandler creates a new components handler
func NewComponentsHandler(
	serviceKeyApi string,
	authUsername string,
	authPassword string,
	cfg config.Config,
) (*componentsHandler, error) {
	store, err := storage.NewSQLiteStorage(cfg.DBPath, cfg.RetentionSeconds)
	if err != nil {
		return nil, err
	}

	socialAdapter, err := adapters.NewSocialAdapter(adapters.ArgsSocialAdapter{
		Store:      store,
		WindowDays: cfg.SocialAdapter.WindowDays,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	competitorAdapter, err := adapters.NewCompetitorAdapter(adapters.ArgsCompetitorAdapter{
		Store:   store,
		MaxRows: cfg.CompetitorAdapter.MaxRows,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	agg, err := aggregator.NewAggregator([]adapters.Adapter{socialAdapter, competitorAdapter})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	serverArgs := api.ArgsWebServer{
		ServiceKeyApi:  serviceKeyApi,
		AuthUsername:   authUsername,
		AuthPassword:   authPassword,
		ListenAddress:  cfg.ListenAddress,
		Storage:        store,
		Aggregator:     agg,
		GeneralHandler: api.CORSMiddleware,
	}

	server, err := api.NewServer(serverArgs)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &componentsHandler{
		store:  store,
		server: server,
	}, nil
}

// GetStore returns the storage component
func (ch *componentsHandler) GetStore() api.Storage {
	return ch.store
}

// GetServer returns the server component
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Start starts the inner components
func (ch *componentsHandler) Start() {
	ch.server.Start()
}

// Close closes the inner components
func (ch *componentsHandler) Close() {
	_ = ch.server.Close()
	_ = ch.store.Close()
}
