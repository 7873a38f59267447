package server

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/secthall/contribution-backend/internal/ai"
	"github.com/secthall/contribution-backend/internal/config"
	"github.com/secthall/contribution-backend/internal/handler"
	appmw "github.com/secthall/contribution-backend/internal/middleware"
	"github.com/secthall/contribution-backend/internal/repository"
	"github.com/secthall/contribution-backend/internal/roles"
	"github.com/secthall/contribution-backend/internal/service"
	"gorm.io/gorm"
)

type Server struct {
	e          *echo.Echo
	pointsRepo repository.PointsRepository
	grantsRepo repository.ProtegeRepository
}

func New(ctx context.Context, cfg *config.Config, db *gorm.DB) (*Server, error) {
	tiers, err := cfg.Tiers()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	gateway := roles.NewRESTClient(cfg.GatewayBaseURL, cfg.GatewayToken)

	pointsRepo := repository.NewPointsRepository(db)
	grantsRepo := repository.NewProtegeRepository(db)

	var flavor service.FlavorSource
	if cfg.FlavorTextEnabled {
		flavor = ai.NewFlavorClient()
	}

	rankSvc := service.NewRankService(pointsRepo, gateway, gateway, tiers, cfg.AnnounceChannelID, flavor)
	ledgerSvc := service.NewLedgerService(pointsRepo, rankSvc)
	protegeSvc := service.NewProtegeService(grantsRepo, ledgerSvc, gateway, gateway,
		tiers.RolesForKeys(cfg.TargetTierKeys), cfg.ProtegeBonus, cfg.AnnounceChannelID)

	pointsHandler := handler.NewPointsHandler(ledgerSvc)
	rankHandler := handler.NewRankHandler(rankSvc)
	protegeHandler := handler.NewProtegeHandler(protegeSvc, gateway, tiers.RolesForKeys(cfg.GranterTierKeys))

	var authMw *appmw.AuthMiddleware
	if cfg.FirebaseProjectID != "" {
		authMw, err = appmw.NewAuthMiddleware(ctx, cfg)
		if err != nil {
			return nil, err
		}
	} else {
		log.Printf("FIREBASE_PROJECT_ID not set; API auth disabled")
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})

	api := e.Group("/api")
	if authMw != nil {
		api.Use(authMw.RequireAuth)
	}
	api.POST("/groups/:groupID/points", pointsHandler.Award)
	api.GET("/groups/:groupID/members/:userID/points", pointsHandler.Total)
	api.GET("/groups/:groupID/leaderboard", pointsHandler.Leaderboard)
	api.POST("/groups/:groupID/members/:userID/reconcile", rankHandler.Reconcile)
	api.POST("/groups/:groupID/protege", protegeHandler.Proclaim)

	return &Server{e: e, pointsRepo: pointsRepo, grantsRepo: grantsRepo}, nil
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// SetDB swaps the underlying connection into the repositories, for
// deployments that establish the database after the listener is up.
func (s *Server) SetDB(db *gorm.DB) {
	if s.pointsRepo != nil {
		s.pointsRepo.SetDB(db)
	}
	if s.grantsRepo != nil {
		s.grantsRepo.SetDB(db)
	}
}
