package handler

import (
	"net/http"
	"strconv"

	"edms/internal/service"
	"edms/pkg/pagination"
	"edms/pkg/response"

	"github.com/gin-gonic/gin"
)

// IdempotencyHeader carries a client-chosen key that makes a retried write a no-op.
const IdempotencyHeader = "Idempotency-Key"

type RequestHandler struct {
	requestService service.RequestService
}

func NewRequestHandler(requestService service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

// RegisterRoutes mounts the request endpoints on an authenticated group.
func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/requests")
	{
		requests.POST("", h.SubmitRequest)
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
		requests.PATCH("/:id", h.EditRequest)
		requests.DELETE("/:id", h.DeleteRequest)
		requests.GET("/:id/permissions", h.GetPermissions)
		requests.POST("/:id/transitions", h.TransitionRequest)
	}
}

// SubmitRequest creates a request and routes it to its first reviewing echelon
// @Summary      Submit a request
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.SubmitInput  true  "Request payload"
// @Success      201      {object}  response.Response{data=model.Request}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/requests [post]
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	var req service.SubmitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	created, err := h.requestService.Submit(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// ListRequests returns requests filtered by unit, stage, owner and filing state
// @Summary      List requests
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        unit_uic  query     string  false  "Unit identification code"
// @Param        stage     query     string  false  "Current stage"
// @Param        mine      query     bool    false  "Only requests uploaded by the caller"
// @Param        filed     query     bool    false  "Filter by filing state"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=response.Page}
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	filter := service.ListFilter{
		UnitUIC: c.Query("unit_uic"),
		Stage:   c.Query("stage"),
		Page:    p.Page,
		Limit:   p.Limit,
	}
	if mine, err := strconv.ParseBool(c.DefaultQuery("mine", "false")); err == nil {
		filter.Mine = mine
	}
	if raw := c.Query("filed"); raw != "" {
		filed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid filed flag"))
			return
		}
		filter.Filed = &filed
	}

	requests, total, err := h.requestService.List(c.Request.Context(), userID, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, requests, total, p))
}

// GetRequest returns one request with its full activity log
// @Summary      Get a request
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.Request}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	req, err := h.requestService.Get(c.Request.Context(), id, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// EditRequest lets the originator change a request before Commander approval
// @Summary      Edit a request
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id               path      string             true   "Request ID"
// @Param        Idempotency-Key  header    string             false  "Client intent key"
// @Param        request          body      service.EditInput  true   "Fields to change"
// @Success      200              {object}  response.Response{data=model.Request}
// @Failure      403              {object}  response.Response
// @Failure      409              {object}  response.Response
// @Router       /api/requests/{id} [patch]
func (h *RequestHandler) EditRequest(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.EditInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	req.IntentKey = c.GetHeader(IdempotencyHeader)

	updated, err := h.requestService.Edit(c.Request.Context(), id, userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, updated))
}

// DeleteRequest removes a request; an audit entry outlives it
// @Summary      Delete a request
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [delete]
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.requestService.Delete(c.Request.Context(), id, userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id}))
}

// GetPermissions reports what the caller may do with a request right now
// @Summary      Request permissions
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.Permissions}
// @Router       /api/requests/{id}/permissions [get]
func (h *RequestHandler) GetPermissions(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	perms, err := h.requestService.Permissions(c.Request.Context(), id, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// TransitionRequest applies a routing action to a request
// @Summary      Apply a transition
// @Description  Approve, send back, route, decide, return, archive or file a request.
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id               path      string                   true   "Request ID"
// @Param        Idempotency-Key  header    string                   false  "Client intent key"
// @Param        request          body      service.TransitionInput  true   "Transition"
// @Success      200              {object}  response.Response{data=model.Request}
// @Failure      400              {object}  response.Response
// @Failure      403              {object}  response.Response
// @Failure      409              {object}  response.Response
// @Router       /api/requests/{id}/transitions [post]
func (h *RequestHandler) TransitionRequest(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.TransitionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	req.IntentKey = c.GetHeader(IdempotencyHeader)

	updated, err := h.requestService.Transition(c.Request.Context(), id, userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, updated))
}
