package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-auditor/constants"
	"github.com/joseph-ayodele/invoice-auditor/internal/approval"
	"github.com/joseph-ayodele/invoice-auditor/internal/common"
	"github.com/joseph-ayodele/invoice-auditor/internal/export"
	"github.com/joseph-ayodele/invoice-auditor/internal/ingest"
	"github.com/joseph-ayodele/invoice-auditor/internal/repository"
)

func (s *Server) handleUploadInvoice(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})
		return
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}

	res := s.ingestSvc.Ingest(c.Request.Context(), ingest.IngestRequest{
		Data:     data,
		Filename: fh.Filename,
		MIMEType: fh.Header.Get("Content-Type"),
		Source:   constants.SourceUpload,
	})
	if res.Status == constants.IngestFailed {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleIngestEmail(c *gin.Context) {
	res := s.ingestSvc.PollMailbox(c.Request.Context())
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleListInvoices(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	invs, err := s.invoices.List(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("api.list_invoices_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list invoices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": invs})
}

func (s *Server) handleGetInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return
	}
	inv, err := s.invoices.GetByID(c.Request.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}
	if err != nil {
		s.logger.Error("api.get_invoice_failed", "invoice_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load invoice"})
		return
	}
	c.JSON(http.StatusOK, inv)
}

type updateRouteRequest struct {
	RouteStage string `json:"route_stage" binding:"required"`
	ReviewedBy string `json:"reviewed_by" binding:"required"`
}

func (s *Server) handleUpdateRoute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return
	}

	var req updateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "route_stage and reviewed_by are required"})
		return
	}

	inv, err := s.invoices.GetByID(c.Request.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}
	if err != nil {
		s.logger.Error("api.update_route_load_failed", "invoice_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load invoice"})
		return
	}

	stage := constants.ApprovalStage(req.RouteStage)
	if _, err := approval.Transition(inv.ApprovalStage, stage); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.invoices.UpdateRoute(c.Request.Context(), &repository.UpdateRouteRequest{
		ID:         id,
		Stage:      stage,
		ReviewedBy: req.ReviewedBy,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("api.update_route_failed", "invoice_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update route"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.ingestSvc.Health().Snapshot())
}

func (s *Server) handleMetrics(c *gin.Context) {
	invs, err := s.invoices.List(c.Request.Context(), 0)
	if err != nil {
		s.logger.Error("api.metrics_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute metrics"})
		return
	}
	c.JSON(http.StatusOK, export.Metrics(invs))
}

func (s *Server) handleExport(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	data, err := s.exports.ExportInvoicesXLSX(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("api.export_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build export"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
