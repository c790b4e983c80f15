package handler

import (
	"net/http"

	"edms/internal/service"
	"edms/pkg/pagination"
	"edms/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.UpsertUser)
		users.GET("/:id", h.GetUser)
	}
}

// UpsertUser creates or replaces a roster entry
// @Summary      Create or update a roster entry
// @Description  Unit admins only. "N/A" in company/platoon fields is stored as empty.
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        user  body      service.UpsertUserRequest  true  "Roster entry"
// @Success      200   {object}  response.Response{data=model.User}
// @Failure      400   {object}  response.Response
// @Failure      403   {object}  response.Response
// @Router       /api/users [post]
func (h *UserHandler) UpsertUser(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	var req service.UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	user, err := h.userService.Upsert(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// GetUser retrieves a roster entry by ID
// @Summary      Get user by ID
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=model.User}
// @Failure      404  {object}  response.Response
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// ListUsers retrieves a paginated roster
// @Summary      List users
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        unit_uic  query     string  false  "Unit identification code"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=response.Page}
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	users, total, err := h.userService.List(c.Request.Context(), userID, c.Query("unit_uic"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, users, total, p))
}
