package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jlvsolutions/WorldCities-sub000/internal/api/handler"
	"github.com/jlvsolutions/WorldCities-sub000/internal/auth"
	"github.com/jlvsolutions/WorldCities-sub000/internal/events"
	"github.com/jlvsolutions/WorldCities-sub000/internal/logger"
	worldrepo "github.com/jlvsolutions/WorldCities-sub000/internal/repository/world"
	"github.com/jlvsolutions/WorldCities-sub000/internal/server/middleware"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// Server is the wired API with the state behind it.
type Server struct {
	API      huma.API
	Router   chi.Router
	Store    *worldrepo.Store
	Tokens   *auth.RefreshStore
	JWT      *auth.JWT
	Enforcer *casbin.Enforcer
	Events   *events.Dispatcher

	cancel context.CancelFunc
}

// Handler serves the API.
func (s *Server) Handler() http.Handler { return s.Router }

// Close stops the background record gauge.
func (s *Server) Close() { s.cancel() }

func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed, err := worldrepo.LoadSeed(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}
	store := worldrepo.New(worldrepo.WithPasswordCost(cfg.PasswordCost))
	if err := store.Load(seed); err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}
	e, err := initEnforcer()
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}
	dispatcher, err := initEvents(cfg.EventsConfig)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	api := humachi.New(r, huma.DefaultConfig("World Cities API", "1.0.0"))
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		API:      api,
		Router:   r,
		Store:    store,
		Tokens:   auth.NewRefreshStore(cfg.RefreshTTL),
		JWT:      auth.NewJWT(cfg.JWTSecret, cfg.JWTTTL),
		Enforcer: e,
		Events:   dispatcher,
		cancel:   cancel,
	}

	// Middleware applies only to operations registered after it.
	setupMetrics(ctx, api, r, store, cfg.GaugeEvery)
	api.UseMiddleware(auth.Middleware(s.JWT))
	api.UseMiddleware(middleware.RBAC(api, e))

	auth.Register(api, &auth.Handler{
		Users:        store,
		JWT:          s.JWT,
		Refresh:      s.Tokens,
		SecureCookie: cfg.SecureCookie,
		Logger:       logger.L,
	})
	handler.RegisterAuth(api, &handler.AuthHandler{Enforcer: e})

	handler.RegisterEntity(api, &handler.EntityHandler[sdk.City]{Entity: sdk.Cities, Repo: store.Cities(), Events: dispatcher})
	handler.RegisterEntity(api, &handler.EntityHandler[sdk.Country]{Entity: sdk.Countries, Repo: store.Countries(), Events: dispatcher})
	handler.RegisterEntity(api, &handler.EntityHandler[sdk.AdminRegion]{Entity: sdk.AdminRegions, Repo: store.AdminRegions(), Events: dispatcher})
	handler.RegisterEntity(api, &handler.EntityHandler[sdk.User]{Entity: sdk.Users, Repo: store.Users(), Events: dispatcher})

	handler.RegisterChildren(api, sdk.Countries, sdk.Cities, store.CitiesOfCountry)
	handler.RegisterChildren(api, sdk.Countries, sdk.AdminRegions, store.RegionsOfCountry)
	handler.RegisterChildren(api, sdk.AdminRegions, sdk.Cities, store.CitiesOfRegion)
	return s, nil
}
