package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yaklabco/docqa/internal/llm"
	"github.com/yaklabco/docqa/internal/logging"
	"github.com/yaklabco/docqa/internal/service"
	"github.com/yaklabco/docqa/pkg/model"
	"github.com/yaklabco/docqa/pkg/pipeline"
	"github.com/yaklabco/docqa/pkg/plan"
	"github.com/yaklabco/docqa/pkg/region"
)

// Error codes returned in ErrorResponse.Error.
const (
	codeMalformedToolCall = "malformed_tool_call"
	codeInvalidRequest    = "invalid_request"
	codeBackendFailed     = "backend_unavailable"
	codeDocTooLarge       = "document_too_large"
	codeInternal          = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error             string           `json:"error"`
	Reason            string           `json:"reason"`
	Kind              plan.FailureKind `json:"kind,omitempty"`
	OffendingIssueIDs []string         `json:"offending_issue_ids,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status             string `json:"status"`
	TGI                bool   `json:"tgi"`
	TGIBaseURL         string `json:"tgi_base_url"`
	OpenRouterFallback bool   `json:"openrouter_fallback"`
	OpenRouterModel    string `json:"openrouter_model"`
}

// ReviewRequest is the body of POST /review.
type ReviewRequest struct {
	Doc *string `json:"doc" binding:"required"`
}

// ValidateRequest is the body of POST /v1/validate.
type ValidateRequest struct {
	Document *string `json:"document" binding:"required"`

	// CodeEditAllowed overrides the threshold decision when set.
	CodeEditAllowed *bool `json:"code_edit_allowed"`

	Issues       []model.Issue       `json:"issues"`
	LintFindings []model.LintFinding `json:"lint_findings"`
	OrigName     string              `json:"orig_name"`
	NewName      string              `json:"new_name"`
}

// ValidateResponse is the body of a successful POST /v1/validate.
type ValidateResponse struct {
	*pipeline.Output
	CodeEditAllowed bool `json:"code_edit_allowed"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:             "ok",
		TGI:                s.health != nil && s.health.PrimaryHealthy(c.Request.Context()),
		TGIBaseURL:         s.cfg.Backend.BaseURL,
		OpenRouterFallback: s.cfg.Fallback.Enabled(),
		OpenRouterModel:    s.cfg.Fallback.Model,
	})
}

func (s *Server) handleReview(c *gin.Context) {
	const endpoint = "review"

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.review(endpoint, outcomeBadRequest)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: codeInvalidRequest, Reason: err.Error()})
		return
	}

	resp, err := s.reviewer.Review(c.Request.Context(), *req.Doc)
	if err != nil {
		s.reviewError(c, endpoint, err)
		return
	}

	s.metrics.review(endpoint, outcomeAccepted)
	s.metrics.attempts.Observe(float64(resp.Attempts))
	c.JSON(http.StatusOK, resp)
}

// reviewError maps a review failure to a status code and body.
func (s *Server) reviewError(c *gin.Context, endpoint string, err error) {
	_ = c.Error(err)

	var exhausted *service.ExhaustedError
	switch {
	case errors.As(err, &exhausted):
		s.metrics.review(endpoint, outcomeMalformed)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: codeMalformedToolCall, Reason: exhausted.Reason()})
	case errors.Is(err, service.ErrDocTooLarge):
		s.metrics.review(endpoint, outcomeBadRequest)
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: codeDocTooLarge, Reason: err.Error()})
	case errors.Is(err, service.ErrBackend):
		s.metrics.review(endpoint, outcomeBackendError)
		status := http.StatusBadGateway
		if errors.Is(err, llm.ErrNoBackend) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, ErrorResponse{Error: codeBackendFailed, Reason: err.Error()})
	default:
		s.metrics.review(endpoint, outcomeError)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: codeInternal, Reason: err.Error()})
	}
}

func (s *Server) handleValidate(c *gin.Context) {
	const endpoint = "validate"
	logger := logging.FromContext(c.Request.Context())

	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.review(endpoint, outcomeBadRequest)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: codeInvalidRequest, Reason: err.Error()})
		return
	}

	doc := *req.Document
	detected := region.Detect(doc)
	codeEditAllowed := s.cfg.CodeEditAllowed(detected.CodeRatio)
	if req.CodeEditAllowed != nil {
		codeEditAllowed = *req.CodeEditAllowed
	}

	out, err := pipeline.Run(pipeline.Input{
		Document:        doc,
		CodeEditAllowed: codeEditAllowed,
		Issues:          req.Issues,
		LintFindings:    req.LintFindings,
		Regions:         detected.Regions,
		Options: pipeline.Options{
			OrigName:   req.OrigName,
			NewName:    req.NewName,
			SkipVerify: !s.cfg.Review.VerifyDiff,
		},
	})
	if err != nil {
		if mtc, ok := plan.AsMalformed(err); ok {
			s.metrics.Malformed(mtc.Kind)
			s.metrics.review(endpoint, outcomeMalformed)
			logger.Info("edit batch rejected", logging.FieldKind, mtc.Kind, logging.FieldReason, mtc.Reason)
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:             codeMalformedToolCall,
				Reason:            mtc.Reason,
				Kind:              mtc.Kind,
				OffendingIssueIDs: mtc.IssueIDs,
			})
			return
		}
		s.reviewError(c, endpoint, err)
		return
	}

	s.metrics.DuplicatesFiltered(len(out.Duplicates))
	s.metrics.review(endpoint, outcomeAccepted)
	c.JSON(http.StatusOK, ValidateResponse{Output: out, CodeEditAllowed: codeEditAllowed})
}
