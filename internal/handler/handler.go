package handler

import (
	"context"
	"errors"
	"net/http"

	"tgparser/internal/domain"
	"tgparser/internal/pool"
	"tgparser/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Parser is the enumeration surface the HTTP layer consumes
type Parser interface {
	StartEnumeration(ctx context.Context, groupLink string) (*domain.GroupInfo, error)
	GetMembers(ctx context.Context, groupID string) ([]domain.MemberRecord, error)
	GroupInfo(groupID string) (*domain.GroupInfo, error)
	Progress(groupID string) (int, domain.JobState, bool)
}

// PoolStatusProvider yields the credential pool view
type PoolStatusProvider interface {
	Status() domain.PoolStatus
}

// Handler wires the parser API onto echo routes
type Handler struct {
	parser Parser
	status PoolStatusProvider
	logger *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(parser Parser, status PoolStatusProvider, logger *zap.Logger) *Handler {
	return &Handler{
		parser: parser,
		status: status,
		logger: logger,
	}
}

// Register registers all routes
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/", h.handleRoot)
	e.POST("/api/parse-group", h.handleParseGroup)
	e.GET("/api/group-info/:group_id", h.handleGroupInfo)
	e.GET("/api/group-members/:group_id", h.handleGroupMembers)
	e.GET("/api/group-members/:group_id/progress", h.handleProgress)
	e.GET("/api/pool-status", h.handlePoolStatus)
}

// apiResponse is the success/data/error envelope callers consume
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

type membersResponse struct {
	Success    bool                  `json:"success"`
	Data       []domain.MemberRecord `json:"data"`
	Error      string                `json:"error,omitempty"`
	TotalCount int                   `json:"total_count"`
	HasMore    bool                  `json:"has_more"`
}

type progressData struct {
	Progress int             `json:"progress"`
	State    domain.JobState `json:"state"`
}

func (h *Handler) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Telegram Group Parser API",
	})
}

func (h *Handler) handleParseGroup(c echo.Context) error {
	groupLink := c.QueryParam("group_link")

	info, err := h.parser.StartEnumeration(c.Request().Context(), groupLink)
	if err != nil {
		h.logger.Warn("Group resolution failed",
			zap.String("group_link", groupLink),
			zap.Error(err),
		)
		return c.JSON(http.StatusOK, apiResponse{
			Success: false,
			Error:   userMessage(err),
		})
	}

	return c.JSON(http.StatusOK, apiResponse{Success: true, Data: info})
}

func (h *Handler) handleGroupInfo(c echo.Context) error {
	groupID := c.Param("group_id")

	info, err := h.parser.GroupInfo(groupID)
	if err != nil {
		h.logger.Warn("Group info lookup failed",
			zap.String("group_id", groupID),
			zap.Error(err),
		)
		return c.JSON(http.StatusOK, apiResponse{
			Success: false,
			Error:   userMessage(err),
		})
	}
	if info == nil {
		return c.JSON(http.StatusNotFound, apiResponse{
			Success: false,
			Error:   "group has not been parsed yet",
		})
	}

	return c.JSON(http.StatusOK, apiResponse{Success: true, Data: info})
}

func (h *Handler) handleGroupMembers(c echo.Context) error {
	groupID := c.Param("group_id")

	members, err := h.parser.GetMembers(c.Request().Context(), groupID)
	if err != nil {
		h.logger.Warn("Member enumeration failed",
			zap.String("group_id", groupID),
			zap.Error(err),
		)
		return c.JSON(http.StatusOK, membersResponse{
			Success: false,
			Error:   userMessage(err),
		})
	}

	return c.JSON(http.StatusOK, membersResponse{
		Success:    true,
		Data:       members,
		TotalCount: len(members),
		HasMore:    false,
	})
}

func (h *Handler) handleProgress(c echo.Context) error {
	groupID := c.Param("group_id")

	progress, state, ok := h.parser.Progress(groupID)
	if !ok {
		return c.JSON(http.StatusNotFound, apiResponse{
			Success: false,
			Error:   "no enumeration job for this group",
		})
	}

	return c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Data:    progressData{Progress: progress, State: state},
	})
}

func (h *Handler) handlePoolStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status.Status())
}

// userMessage keeps the admin-rights failure distinguishable from the
// generic retry-exhausted one; anything unexpected gets a neutral wrapper.
func userMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidGroupLink),
		errors.Is(err, service.ErrGroupAccessDenied),
		errors.Is(err, service.ErrRetryBudgetExhausted):
		return err.Error()
	case errors.Is(err, pool.ErrNoCredentialAvailable):
		return "all bot credentials are cooling down, try again later"
	default:
		return "an unexpected error occurred: " + err.Error()
	}
}
