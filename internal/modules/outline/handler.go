package outline

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/presenton/core/internal/pkg/pagination"
	"github.com/presenton/core/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	outlines := rg.Group("/outlines")
	outlines.GET("/stream/:id", h.streamOutlines)
	outlines.GET("/:id", h.getOutlines)
	outlines.GET("/:id/runs", h.listRuns)

	presentations := rg.Group("/presentations")
	presentations.GET("", h.listPresentations)
	presentations.POST("", h.createPresentation)
	presentations.GET("/:id", h.getPresentation)
}

// GET /outlines/stream/:id
func (h *Handler) streamOutlines(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		writeLookupError(c, err)
		return
	}
	h.svc.Stream(ctx, p, openSSE(c))
}

// GET /outlines/:id
func (h *Handler) getOutlines(c *gin.Context) {
	status, err := h.svc.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeLookupError(c, err)
		return
	}
	response.OK(c, status)
}

// GET /outlines/:id/runs?limit=20
func (h *Handler) listRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.svc.Runs(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeLookupError(c, err)
		return
	}
	response.OK(c, runs)
}

// GET /presentations?page=1&size=10
func (h *Handler) listPresentations(c *gin.Context) {
	items, page, err := h.svc.List(c.Request.Context(), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, page)
}

// POST /presentations
func (h *Handler) createPresentation(c *gin.Context) {
	var dto CreatePresentationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	p, err := h.svc.Create(c.Request.Context(), dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, p)
}

// GET /presentations/:id
func (h *Handler) getPresentation(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeLookupError(c, err)
		return
	}
	response.OK(c, p)
}

func writeLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPresentationNotFound):
		response.NotFoundMsg(c, "Presentation not found")
	case errors.Is(err, ErrLedgerDisabled):
		response.NotFoundMsg(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
