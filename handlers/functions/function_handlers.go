package functions

import (
	"net/http"

	"codewhisperer/operations"
	"codewhisperer/utils/response"
	"codewhisperer/worksheet"

	"github.com/gin-gonic/gin"
)

// CallRequest carries the operation inputs; non-string values are stringified
type CallRequest struct {
	Inputs []interface{} `json:"inputs"`
}

type Handler struct {
	registry *operations.Registry
}

func NewHandler(registry *operations.Registry) *Handler {
	return &Handler{registry: registry}
}

// ListFunctions returns the function library
// @Summary List functions
// @Tags Functions
// @Produce json
// @Success 200 {array} operations.Operation
// @Router /functions [get]
// @Security Bearer
func (h *Handler) ListFunctions(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.List())
}

// CallFunction invokes one operation; failures come back as success=false, never as a server error
// @Summary Call a function
// @Tags Functions
// @Accept json
// @Produce json
// @Param id path string true "Function ID"
// @Param call body CallRequest true "Inputs"
// @Success 200 {object} operations.CallResult
// @Failure 404 {object} map[string]string
// @Router /functions/{id} [post]
// @Security Bearer
func (h *Handler) CallFunction(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.registry.Lookup(id); !ok {
		response.Error(c, http.StatusNotFound, "Function not found")
		return
	}
	var req CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, operations.CallResult{Success: false, Error: "invalid request: " + err.Error()})
		return
	}
	args := make([]string, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		args = append(args, worksheet.Stringify(in))
	}
	c.JSON(http.StatusOK, h.registry.Call(id, args))
}

// RegisterRoutes registers the function library routes
func RegisterRoutes(r *gin.RouterGroup, h *Handler, auth gin.HandlerFunc) {
	functions := r.Group("/functions")
	functions.Use(auth)
	{
		functions.GET("", h.ListFunctions)
		functions.POST("/:id", h.CallFunction)
	}
}
