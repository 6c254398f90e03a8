package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"aish-backend/internal/apperr"
	"aish-backend/internal/models"

	"github.com/gin-gonic/gin"
)

// CaseService is the case store used by CaseHandler.
type CaseService interface {
	ListCases(ctx context.Context) ([]models.Case, error)
	GetCase(ctx context.Context, id string) (*models.Case, error)
	CreateCase(ctx context.Context, in *models.CaseInput) (*models.Case, error)
	UpdateCase(ctx context.Context, id string, raw models.RawCase) (*models.Case, error)
	DeleteCase(ctx context.Context, id string) (*models.Case, error)
	SyncCases(ctx context.Context, batch []models.RawCase) models.SyncResult
	Stats(ctx context.Context) (*models.CaseStats, error)
}

// --- Structs for Request Binding ---

type SyncCasesRequest struct {
	Cases json.RawMessage `json:"cases"`
}

// --- Handler Functions ---

type CaseHandler struct {
	cases CaseService
}

func NewCaseHandler(cases CaseService) *CaseHandler {
	return &CaseHandler{cases: cases}
}

func (h *CaseHandler) List(c *gin.Context) {
	cases, err := h.cases.ListCases(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch cases")
		return
	}
	c.JSON(http.StatusOK, cases)
}

func (h *CaseHandler) Get(c *gin.Context) {
	found, err := h.cases.GetCase(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch case")
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *CaseHandler) Create(c *gin.Context) {
	var req models.CaseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	created, err := h.cases.CreateCase(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create case")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Sync stores a batch of cases recorded while the client was offline.
func (h *CaseHandler) Sync(c *gin.Context) {
	var req SyncCasesRequest
	var batch []models.RawCase
	if err := c.ShouldBindJSON(&req); err != nil || !isJSONArray(req.Cases) || json.Unmarshal(req.Cases, &batch) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sync payload. Expected { cases: [...] }"})
		return
	}

	res := h.cases.SyncCases(c.Request.Context(), batch)
	body := gin.H{
		"message": fmt.Sprintf("Synced %d cases successfully", len(res.Cases)),
		"cases":   res.Cases,
	}
	if len(res.Errors) > 0 {
		body["errors"] = res.Errors
	}
	c.JSON(http.StatusOK, body)
}

func (h *CaseHandler) Update(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	updated, err := h.cases.UpdateCase(c.Request.Context(), c.Param("id"), models.RawCase(raw))
	if err != nil {
		respondError(c, err, "Failed to update case")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CaseHandler) Delete(c *gin.Context) {
	deleted, err := h.cases.DeleteCase(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to delete case")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Case deleted successfully", "deletedCase": deleted})
}

func (h *CaseHandler) Stats(c *gin.Context) {
	st, err := h.cases.Stats(c.Request.Context())
	if err != nil {
		c.JSON(apperr.KindOf(err).HTTPStatus(), gin.H{"error": "Failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, st)
}

func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
