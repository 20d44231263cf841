package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/usecase-engine/internal/proposal"
	"github.com/pdiddy/usecase-engine/internal/store"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

const (
	msgMissingSubject  = "Please enter a company or industry name."
	msgHistoryDisabled = "run history is disabled"
	maxListLimit       = 100
)

type createProposalRequest struct {
	CompanyOrIndustry string `json:"company_or_industry"`
	Context           string `json:"context"`
}

func (s *Server) createProposal(c *gin.Context) {
	var req createProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	subject := types.Subject{CompanyOrIndustry: req.CompanyOrIndustry, Context: req.Context}
	if strings.TrimSpace(subject.CompanyOrIndustry) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingSubject})
		return
	}
	if _, err := subject.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.runTimeout)
	defer cancel()

	result, err := s.runner.Run(ctx, subject)
	if err != nil {
		if errors.Is(err, types.ErrInvalidSubject) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("pipeline run failed", zap.String("subject", subject.CompanyOrIndustry), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) listProposals(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgHistoryDisabled})
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxListLimit)
	}

	runs, err := s.history.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("listing runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []types.RunRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) getProposal(c *gin.Context) {
	rec, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) downloadMarkdown(c *gin.Context) {
	rec, ok := s.lookup(c)
	if !ok {
		return
	}
	if rec.Status != types.RunCompleted || rec.Proposal == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "proposal not available for this run"})
		return
	}

	name := filepath.Base(rec.MarkdownPath)
	if rec.MarkdownPath == "" {
		name = proposal.FileBase(rec.CompanyOrIndustry, rec.FinishedAt) + ".md"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(rec.Proposal))
}

// lookup writes the error response itself when it returns false.
func (s *Server) lookup(c *gin.Context) (*types.RunRecord, bool) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgHistoryDisabled})
		return nil, false
	}
	rec, err := s.history.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return nil, false
	}
	if err != nil {
		s.logger.Error("looking up run", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up run"})
		return nil, false
	}
	return rec, true
}
