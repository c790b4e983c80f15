package handler

import (
	"net/http"
	"time"

	"edms/internal/service"
	"edms/pkg/response"

	"github.com/gin-gonic/gin"
)

type RecordsHandler struct {
	recordsService service.RecordsService
	now            func() time.Time
}

func NewRecordsHandler(recordsService service.RecordsService) *RecordsHandler {
	return &RecordsHandler{recordsService: recordsService, now: time.Now}
}

func (h *RecordsHandler) RegisterRoutes(router *gin.RouterGroup) {
	records := router.Group("/records")
	{
		records.GET("/dashboard", h.GetDashboard)
		records.GET("/disposal-due", h.GetDisposalDue)
	}
}

// GetDashboard groups a unit's filed records by disposal year and SSIC bucket
// @Summary      Records dashboard
// @Tags         records
// @Security     BearerAuth
// @Produce      json
// @Param        unit_uic  query     string  false  "Unit identification code (defaults to your unit)"
// @Param        view      query     string  false  "originator (default) or command"
// @Success      200       {object}  response.Response{data=[]retention.YearGroup}
// @Failure      400       {object}  response.Response
// @Router       /api/records/dashboard [get]
func (h *RecordsHandler) GetDashboard(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	groups, err := h.recordsService.Dashboard(c.Request.Context(), userID, c.Query("unit_uic"), c.Query("view"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, groups))
}

// GetDisposalDue lists filed records whose disposal date has been reached
// @Summary      Records due for disposal
// @Tags         records
// @Security     BearerAuth
// @Produce      json
// @Param        unit_uic  query     string  false  "Unit identification code (defaults to your unit)"
// @Param        as_of     query     string  false  "Reference date YYYY-MM-DD (default today)"
// @Success      200       {object}  response.Response{data=[]retention.Record}
// @Failure      400       {object}  response.Response
// @Router       /api/records/disposal-due [get]
func (h *RecordsHandler) GetDisposalDue(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	asOf := h.now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid as_of date, expected YYYY-MM-DD"))
			return
		}
		asOf = parsed
	}

	records, err := h.recordsService.DueForDisposal(c.Request.Context(), userID, c.Query("unit_uic"), asOf)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}
