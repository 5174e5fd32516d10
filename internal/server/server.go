package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/invoice-auditor/internal/export"
	"github.com/joseph-ayodele/invoice-auditor/internal/ingest"
	"github.com/joseph-ayodele/invoice-auditor/internal/repository"
)

// Server is the invoice auditor HTTP surface.
type Server struct {
	ingestSvc *ingest.Service
	invoices  repository.InvoiceRepository
	exports   *export.Service
	router    *gin.Engine
	logger    *slog.Logger
}

// NewServer wires the API routes.
func NewServer(
	ingestSvc *ingest.Service,
	invoices repository.InvoiceRepository,
	exports *export.Service,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.Default()

	s := &Server{
		ingestSvc: ingestSvc,
		invoices:  invoices,
		exports:   exports,
		router:    router,
		logger:    logger,
	}

	api := router.Group("/api")
	{
		api.POST("/upload-invoice", s.handleUploadInvoice)
		api.POST("/ingest-email", s.handleIngestEmail)
		api.GET("/invoices", s.handleListInvoices)
		api.GET("/invoice/:id", s.handleGetInvoice)
		api.POST("/route/:id", s.handleUpdateRoute)
		api.GET("/health", s.handleHealth)
		api.GET("/metrics", s.handleMetrics)
		api.GET("/export", s.handleExport)
	}

	return s
}

// Handler exposes the router for an http.Server.
func (s *Server) Handler() *gin.Engine {
	return s.router
}
