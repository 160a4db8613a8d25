// Package server exposes the integrity engine over HTTP.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aryankumarrai/pharmakrypt/internal/model"
	"github.com/aryankumarrai/pharmakrypt/internal/service"
)

// Server wires services into gin handlers.
type Server struct {
	scans     service.ScanService
	registry  *service.RegistryServiceImpl
	alerts    service.AlertService
	batches   service.BatchService
	log       *zap.Logger
	adminKey  string
}

// New constructs the HTTP server facade.
func New(scans service.ScanService, registry *service.RegistryServiceImpl, alerts service.AlertService, batches service.BatchService, log *zap.Logger, adminKey string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		scans:    scans,
		registry: registry,
		alerts:   alerts,
		batches:  batches,
		log:      log,
		adminKey: adminKey,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(recovery(s.log))
	r.Use(requestLogger(s.log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "pharmakrypt"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", s.handleLogin)
		v1.GET("/verify/:id", s.handleVerify)

		// Credential issuance follows the two-tier hierarchy: the root
		// authority issues manufacturers and pharmacies and owns
		// revocation and the alert feed; manufacturers only register
		// distributors beneath themselves.
		root := v1.Group("", s.adminRequired())
		{
			root.POST("/registry/manufacturers", s.handleIssueManufacturer)
			root.POST("/registry/pharmacies", s.handleIssuePharmacy)
			root.GET("/registry/:role", s.handleListCredentials)
			root.DELETE("/registry/entities/:id", s.handleRevoke)

			root.GET("/alerts", s.handleListAlerts)
			root.POST("/alerts/:id/resolve", s.handleResolveAlert)
		}

		mfg := v1.Group("", s.authRequired(model.RoleManufacturer))
		{
			mfg.POST("/registry/distributors", s.handleIssueDistributor)

			mfg.POST("/batches", s.handleCreateBatch)
			mfg.GET("/units", s.handleQueryUnits)
		}

		dist := v1.Group("", s.authRequired(model.RoleDistributor))
		{
			dist.POST("/cartons/:id/activate", s.handleActivateCarton)
		}

		pharm := v1.Group("", s.authRequired(model.RolePharmacy))
		{
			pharm.POST("/scans", s.handleScan)
			pharm.GET("/inventory", s.handleInventory)
		}
	}

	return r
}
