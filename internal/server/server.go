// Package server assembles the services and the gin router of the API process.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"trainerdesk/internal/config"
	"trainerdesk/internal/domain/booking"
	"trainerdesk/internal/domain/feed"
	"trainerdesk/internal/domain/ledger"
	"trainerdesk/internal/domain/ot"
	"trainerdesk/internal/domain/settlement"
	"trainerdesk/internal/middleware"
	jwtsvc "trainerdesk/internal/pkg/jwt"
)

type Server struct {
	Router *gin.Engine
	Hub    *feed.Hub
	JWT    *jwtsvc.Service

	Ledger     *ledger.Service
	OT         *ot.Service
	Bookings   *booking.Service
	Settlement *settlement.Service
}

func New(cfg *config.RuntimeConfig, policy config.Policy, db *gorm.DB) *Server {
	s := &Server{
		Hub: feed.NewHub(),
		JWT: jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL),
	}

	s.Ledger = ledger.NewService(ledger.NewRepository(db))

	s.OT = ot.NewService(db, ot.NewRepository(db), policy)
	s.OT.SetPublisher(s.Hub)

	s.Bookings = booking.NewService(db, booking.NewRepository(db), s.Ledger, s.OT, policy)
	s.Bookings.SetPublisher(s.Hub)

	s.Settlement = settlement.NewService(db, settlement.NewRepository(db), s.Bookings)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorLogger(), middleware.CORS())
	if !cfg.IsProd() {
		r.Use(gin.Logger())
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	feed.NewWSHandler(s.Hub, s.JWT).RegisterRoutes(r)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(s.JWT))
	{
		ledger.NewHandler(s.Ledger).RegisterRoutes(v1)
		ot.NewHandler(s.OT).RegisterRoutes(v1)
		booking.NewHandler(s.Bookings).RegisterRoutes(v1)
		settlement.NewHandler(s.Settlement).RegisterRoutes(v1)
	}

	s.Router = r
	return s
}

func (s *Server) Close() {
	s.Hub.Close()
}
