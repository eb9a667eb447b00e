package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/twmb/franz-go/pkg/sr"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/catalogfile"
	"github.com/niksmo/storefront/internal/adapter/gemini"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/imagefetch"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/schema"
)

type outbound struct {
	sqlDB     *storage.SQLDB
	records   port.RecordStorage
	model     port.GenerativeModel
	images    port.ImageFetcher
	producer  *kafka.ActivityProducer
	publisher port.ActivityPublisher
}

type coreService struct {
	catalog   *service.Catalog
	reviews   *service.Reviews
	carts     *service.Carts
	wishlists *service.Wishlists
	shoppers  *service.Shoppers
	assistant *service.Assistant
	activity  *service.Activity
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	catalog    domain.Catalog
	outbound   outbound
	service    coreService
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initCatalog()
	app.initOutboundAdapters()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initCatalog() {
	const op = "App.initCatalog"

	catalog, err := catalogfile.Load(app.cfg.Catalog.File)
	if err != nil {
		app.fallDown(op, err)
	}
	app.catalog = catalog
	slog.Info("catalog is loaded", "op", op, "products", catalog.Len())
}

func (app *App) initOutboundAdapters() {
	app.initStorage()
	app.initModel()
	app.outbound.images = imagefetch.New()
	app.initPublisher()
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	driver := app.cfg.Storage.Driver
	if driver == storage.DriverMemory {
		slog.Warn("shopper state is not durable", "op", op, "driver", driver)
		app.outbound.records = storage.NewMemRecords()
		return
	}

	sqlDB, err := storage.NewSQLDB(app.ctx, driver, app.cfg.Storage.DSN)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.sqlDB = &sqlDB
	app.outbound.records = storage.NewRecordsRepository(sqlDB)
}

func (app *App) initModel() {
	const op = "App.initModel"

	apiKey := app.cfg.Assistant.APIKey
	if apiKey == "" {
		slog.Warn("model API key is not set, assistant answers with fallbacks", "op", op)
		app.outbound.model = gemini.Unconfigured{}
		return
	}

	model, err := gemini.New(app.ctx, apiKey)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.model = model
}

func (app *App) initPublisher() {
	const op = "App.initPublisher"

	brokerCfg := app.cfg.Broker
	if !brokerCfg.Enabled {
		slog.Info("broker is disabled, activity is not published", "op", op)
		app.outbound.publisher = service.NopPublisher{}
		return
	}

	srClient, err := sr.NewClient(sr.URLs(brokerCfg.SchemaRegistryURLs...))
	if err != nil {
		app.fallDown(op, err)
	}

	activitySubject := brokerCfg.Topics.Activity + "-value"
	activitySerde, err := schema.NewSerdeActivityEventV1(
		app.ctx,
		schema.SubjectOpt(activitySubject),
		schema.SchemaIdentifierOpt(schema.NewRegistryIdentifier(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	tlsConfig, err := adapter.MakeTLSConfig(
		brokerCfg.TLS.CA, brokerCfg.TLS.Cert, brokerCfg.TLS.Key,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	producer, err := kafka.NewActivityProducer(
		kafka.ProducerClientOpt(
			app.ctx, brokerCfg.SeedBrokers, brokerCfg.Topics.Activity, tlsConfig,
		),
		kafka.ProducerEncoderOpt(activitySerde),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.outbound.producer = &producer
	app.outbound.publisher = producer
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	records := app.outbound.records
	activity := service.NewActivity(app.outbound.publisher, 0)
	carts := service.NewCarts(app.catalog, records, activity.Listen)
	wishlists := service.NewWishlists(app.catalog, records, activity.Listen)

	assistant, err := service.NewAssistant(
		app.catalog,
		app.outbound.model,
		app.outbound.images,
		carts,
		service.AssistantConfig{
			TextModel:  app.cfg.Assistant.TextModel,
			ImageModel: app.cfg.Assistant.ImageModel,
		},
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.service = coreService{
		catalog:   service.NewCatalog(app.catalog, app.cfg.Search.Debounce),
		reviews:   service.NewReviews(app.catalog, records),
		carts:     carts,
		wishlists: wishlists,
		shoppers:  service.NewShoppers(records, carts, wishlists),
		assistant: assistant,
		activity:  activity,
	}
}

func (app *App) initInboundAdapters() {
	s := app.service
	mux := http.NewServeMux()
	httphandler.RegisterHealth(mux)
	httphandler.RegisterCatalog(mux, s.catalog, s.reviews)
	httphandler.RegisterShopper(mux, s.catalog, s.carts, s.wishlists, s.shoppers)
	httphandler.RegisterAssistant(mux, s.assistant)
	httphandler.RegisterMCP(mux, httphandler.NewMCPHandler(
		s.catalog, s.reviews, s.carts, s.assistant,
	))

	handler := httphandler.Chain(mux,
		httphandler.Recovery,
		httphandler.Logging,
		httphandler.Session,
		httphandler.AllowJSON,
	)
	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServerAddr, handler, app.cfg.HTTPHandlerTimeout,
	)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.service.activity.Run(context.WithoutCancel(app.ctx))
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.service.activity.Close()
	if app.outbound.producer != nil {
		app.outbound.producer.Close()
	}
	if app.outbound.sqlDB != nil {
		app.outbound.sqlDB.Close()
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
