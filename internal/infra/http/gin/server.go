package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentverse/internal/infra/config"
	"rentverse/internal/infra/obs"
)

type LeaseHTTP interface {
	Create(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	BookedPeriods(c *gin.Context)
	Mine(c *gin.Context)
	PropertyLeases(c *gin.Context)
}

type ListingHTTP interface {
	Submit(c *gin.Context)
	SetAvailability(c *gin.Context)
	Archive(c *gin.Context)
}

type AdminHTTP interface {
	PendingListings(c *gin.Context)
	ApproveListing(c *gin.Context)
	RejectListing(c *gin.Context)
	GetPolicy(c *gin.Context)
	TogglePolicy(c *gin.Context)
	RepairApprovals(c *gin.Context)
}

type Handlers struct {
	Lease          LeaseHTTP
	Listing        ListingHTTP
	Admin          AdminHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Lease != nil {
		api.POST("/leases", h.Lease.Create)
		api.GET("/leases", h.Lease.Mine)
		api.POST("/leases/:id/approve", h.Lease.Approve)
		api.POST("/leases/:id/reject", h.Lease.Reject)
		api.GET("/properties/:id/booked-periods", h.Lease.BookedPeriods)
		api.GET("/properties/:id/leases", h.Lease.PropertyLeases)
	}
	if h.Listing != nil {
		api.POST("/properties", h.Listing.Submit)
		api.PUT("/properties/:id/availability", h.Listing.SetAvailability)
		api.DELETE("/properties/:id", h.Listing.Archive)
	}
	if h.Admin != nil {
		admin := api.Group("/admin")
		admin.GET("/listings/pending", h.Admin.PendingListings)
		admin.POST("/listings/:id/approve", h.Admin.ApproveListing)
		admin.POST("/listings/:id/reject", h.Admin.RejectListing)
		admin.GET("/policy/auto-approve", h.Admin.GetPolicy)
		admin.PUT("/policy/auto-approve", h.Admin.TogglePolicy)
		admin.POST("/approvals/repair", h.Admin.RepairApprovals)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
