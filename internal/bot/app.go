// Package bot assembles the survey bot: configuration, the conversation
// engine, persistence gateways and the Telegram wiring.
package bot

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/arashpd/surveybot/core/bootstrap"
	corecmd "github.com/arashpd/surveybot/core/cmd"
	coreconfig "github.com/arashpd/surveybot/core/config"
	coretelegram "github.com/arashpd/surveybot/core/telegram"
	"github.com/arashpd/surveybot/core/telegram/router"
	tgsender "github.com/arashpd/surveybot/core/telegram/sender"
	"github.com/arashpd/surveybot/internal/record"
	"github.com/arashpd/surveybot/internal/survey"

	tele "gopkg.in/telebot.v4"
)

// AppConfig is the full configuration file shape.
type AppConfig struct {
	coreconfig.Config `yaml:",inline"`
}

// CoreConfig exposes the embedded core configuration.
func (c *AppConfig) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads and validates the configuration file.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return &AppConfig{Config: *cfg}, nil
}

// App holds the assembled application.
type App struct {
	cfg     *coreconfig.Config
	engine  *survey.Engine
	store   *survey.Store
	records *countingGateway
}

// countingGateway wraps the persistence fanout with submit counters for
// the /stats command.
type countingGateway struct {
	inner     record.Gateway
	submitted atomic.Uint64
	failed    atomic.Uint64
}

func (g *countingGateway) Append(ctx context.Context, fields []string) error {
	if err := g.inner.Append(ctx, fields); err != nil {
		g.failed.Add(1)
		return err
	}
	g.submitted.Add(1)
	return nil
}

// Bootstrap initializes logging and storage, loads the question catalog,
// and builds the conversation engine with its persistence fanout.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg := carrier.CoreConfig()

	boot, err := bootstrap.Run(bootstrap.Options{
		Config:       cfg,
		WithDatabase: cfg.Archive.Enabled,
		Database:     cfg.Archive.Database,
	})
	if err != nil {
		return nil, err
	}

	catalog, err := survey.LoadCatalog(cfg.Survey.CatalogPath)
	if err != nil {
		return nil, err
	}

	var gateways []record.Gateway
	if cfg.Sheets.Enabled {
		sheets, err := record.NewSheets(context.Background(), cfg.Sheets)
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, sheets)
	}
	if cfg.Archive.Enabled {
		archive, err := record.NewArchive(boot.DB)
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, archive)
	}
	fanout, err := record.NewFanout(gateways...)
	if err != nil {
		return nil, err
	}
	records := &countingGateway{inner: fanout}

	store := survey.NewStore()
	engine, err := survey.NewEngine(store, catalog, records, survey.Options{
		WelcomeImage: cfg.Survey.WelcomeImage,
	})
	if err != nil {
		return nil, err
	}

	return &App{cfg: cfg, engine: engine, store: store, records: records}, nil
}

// TelegramRunOptions builds the bot runtime wiring: registry, middleware
// chain and routes.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	if a.engine == nil {
		return coretelegram.RunOptions{}, fmt.Errorf("bot: engine not initialized")
	}

	reg := coretelegram.NewRegistry()
	if err := a.registerHandlers(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}

	onLimited := func(c tele.Context) error {
		_ = c.Respond(&tele.CallbackResponse{Text: "Easy! One step at a time 🙏"})
		return nil
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a, reg, router.TextOptions{
		UnknownText: func(c tele.Context) error {
			return sendPlain(c, "Send /start to begin the survey.")
		},
	})...)

	return coretelegram.RunOptions{
		Config:            a.cfg,
		Registry:          reg,
		DispatcherOptions: tgsender.Options{},
		Middlewares:       coretelegram.DefaultMiddlewares(a.cfg, onLimited),
		Routes:            routes,
	}, nil
}

// InProgress reports whether the user has an active conversation. It makes
// App satisfy the text router's Conversation interface.
func (a *App) InProgress(userID int64) bool {
	return a.engine.InProgress(userID)
}

// HandleText feeds a plain message into the conversation engine.
func (a *App) HandleText(c tele.Context) error {
	return a.dispatch(c, survey.Text{Text: c.Text()})
}
