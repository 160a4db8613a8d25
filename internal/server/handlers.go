package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/aryankumarrai/pharmakrypt/internal/labels"
	"github.com/aryankumarrai/pharmakrypt/internal/model"
	"github.com/aryankumarrai/pharmakrypt/internal/repository"
	"github.com/aryankumarrai/pharmakrypt/internal/service"
)

type loginRequest struct {
	Role    model.Role `json:"role" binding:"required"`
	LoginID string     `json:"login_id" binding:"required"`
	Secret  string     `json:"secret"`
}

type loginResponse struct {
	Token    string     `json:"token"`
	Role     model.Role `json:"role"`
	Name     string     `json:"name"`
	Location string     `json:"location"`
	EntityID string     `json:"entity_id"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, cred, err := s.registry.Authenticate(c.Request.Context(), req.Role, req.LoginID, req.Secret, c.ClientIP())
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, loginResponse{
		Token:    token,
		Role:     cred.Role,
		Name:     cred.Name,
		Location: cred.Location,
		EntityID: cred.EntityID.String(),
	})
}

func (s *Server) handleVerify(c *gin.Context) {
	unit, err := s.scans.Verify(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, unit)
}

type issueRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location" binding:"required"`
}

func (s *Server) handleIssueManufacturer(c *gin.Context) {
	s.handleIssue(c, s.registry.IssueManufacturer)
}

func (s *Server) handleIssuePharmacy(c *gin.Context) {
	s.handleIssue(c, s.registry.IssuePharmacy)
}

func (s *Server) handleIssueDistributor(c *gin.Context) {
	s.handleIssue(c, s.registry.IssueDistributor)
}

func (s *Server) handleIssue(c *gin.Context, issue func(ctx context.Context, req service.IssueRequest) (*model.Credential, error)) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cred, err := issue(c.Request.Context(), service.IssueRequest{Name: req.Name, Location: req.Location})
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, cred)
}

func (s *Server) handleListCredentials(c *gin.Context) {
	role := model.Role(c.Param("role"))
	out, err := s.registry.List(c.Request.Context(), role)
	if err != nil {
		badRequest(c, err)
		return
	}
	success(c, out)
}

func (s *Server) handleRevoke(c *gin.Context) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := s.registry.Revoke(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	success(c, nil)
}

type createBatchRequest struct {
	ProductName string `json:"product_name" binding:"required"`
	Count       int    `json:"count" binding:"required,min=1"`
}

type createBatchResponse struct {
	BatchID  string       `json:"batch_id"`
	CartonID string       `json:"carton_id"`
	Units    []model.Unit `json:"units"`
	Manifest string       `json:"manifest"`
}

func (s *Server) handleCreateBatch(c *gin.Context) {
	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	batch, err := s.batches.CreateBatch(c.Request.Context(), req.ProductName, req.Count)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, createBatchResponse{
		BatchID:  batch.BatchID,
		CartonID: batch.CartonID,
		Units:    batch.Units,
		Manifest: labels.Manifest(batch.BatchID, batch.CartonID, batch.ProductName, batch.Units),
	})
}

func (s *Server) handleQueryUnits(c *gin.Context) {
	filter := repository.UnitFilter{
		CartonID:            c.Query("carton_id"),
		Status:              model.UnitStatus(c.Query("status")),
		DestinationPharmacy: c.Query("dest_pharmacy"),
	}
	out, err := s.batches.QueryUnits(c.Request.Context(), filter)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, out)
}

// handleInventory returns the authenticated pharmacy's stocked units.
func (s *Server) handleInventory(c *gin.Context) {
	claims := claimsFrom(c)
	out, err := s.batches.QueryUnits(c.Request.Context(), repository.UnitFilter{
		Status:              model.StatusStocked,
		DestinationPharmacy: claims.Name,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, out)
}

func (s *Server) handleListAlerts(c *gin.Context) {
	status := model.AlertStatus(c.Query("status"))
	out, err := s.alerts.List(c.Request.Context(), status, 0)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, out)
}

func (s *Server) handleResolveAlert(c *gin.Context) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := s.alerts.Resolve(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	success(c, nil)
}

type activateRequest struct {
	SessionID string `json:"session_id"`
	// DestinationLicense is a registered pharmacy login id; name and city
	// are resolved from its credential.
	DestinationLicense  string    `json:"destination_license"`
	DestinationPharmacy string    `json:"destination_pharmacy"`
	DestinationCity     string    `json:"destination_city"`
	Timestamp           time.Time `json:"timestamp"`
}

func (s *Server) handleActivateCarton(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	claims := claimsFrom(c)
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	if req.DestinationLicense != "" {
		dest, err := s.registry.Lookup(c.Request.Context(), model.RolePharmacy, req.DestinationLicense)
		if err != nil {
			fail(c, http.StatusBadRequest, "unknown destination pharmacy")
			return
		}
		req.DestinationPharmacy = dest.Name
		req.DestinationCity = dest.Location
	}
	if req.DestinationPharmacy == "" || req.DestinationCity == "" {
		fail(c, http.StatusBadRequest, "missing destination")
		return
	}

	out, err := s.scans.ActivateCarton(c.Request.Context(), service.ActivationRequest{
		SessionID:           req.SessionID,
		CartonID:            c.Param("id"),
		Actor:               service.Actor{Role: claims.Role, Name: claims.Name, Location: claims.Location},
		DestinationPharmacy: req.DestinationPharmacy,
		DestinationCity:     req.DestinationCity,
		Timestamp:           req.Timestamp,
	})
	respondOutcome(c, out, err)
}

type scanRequest struct {
	SessionID string               `json:"session_id"`
	UnitID    string               `json:"unit_id" binding:"required"`
	Mode      service.PharmacyMode `json:"mode" binding:"required"`
	Timestamp time.Time            `json:"timestamp"`
}

func (s *Server) handleScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Mode != service.ModeStock && req.Mode != service.ModeDispense {
		fail(c, http.StatusBadRequest, "mode must be stock or dispense")
		return
	}
	claims := claimsFrom(c)
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	out, err := s.scans.ProcessScan(c.Request.Context(), service.ScanRequest{
		SessionID: req.SessionID,
		UnitID:    req.UnitID,
		Actor:     service.Actor{Role: claims.Role, Name: claims.Name, Location: claims.Location},
		Mode:      req.Mode,
		Timestamp: req.Timestamp,
	})
	respondOutcome(c, out, err)
}

// respondOutcome renders scan outcomes: anomalies and rejections still carry
// the outcome payload so the client can display what happened.
func respondOutcome(c *gin.Context, out model.Outcome, err error) {
	if err == nil {
		success(c, out)
		return
	}
	code := statusOf(err)
	if code == http.StatusUnprocessableEntity || code == http.StatusConflict {
		if out.Kind != "" {
			failWith(c, code, err.Error(), out)
			return
		}
	}
	failErr(c, err)
}
