package directory

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// 1. Office (geofence zone) registration
	// POST /offices
	r.POST("/offices", h.CreateOffice)
	// GET /offices/:company (each office carries its employee count)
	r.GET("/offices/:company", h.ListOffices)
	// 2. Employee registration and lookup
	// POST /employees
	r.POST("/employees", h.CreateEmployee)
	// POST /employees/lookup (branch + company -> records + count)
	r.POST("/employees/lookup", h.LookupEmployees)
}

// RegisterAdminRoutes mounts the destructive endpoints; the caller puts
// them behind the admin role.
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// DELETE /offices/:office_ulid
	r.DELETE("/offices/:office_ulid", h.DeleteOffice)
	// DELETE /employees/:employee_id
	r.DELETE("/employees/:employee_id", h.DeleteEmployee)
}

// ---------- handlers ----------

func (h *Handler) CreateOffice(c *gin.Context) {
	var req CreateOfficeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(ErrCodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.CreateOffice(c.Request.Context(), req)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}

	c.Header("Location", "/offices/"+res.OfficeULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListOffices(c *gin.Context) {
	company := c.Param("company")
	res, err := h.svc.ListOffices(c.Request.Context(), company)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteOffice(c *gin.Context) {
	if err := h.svc.DeleteOffice(c.Request.Context(), c.Param("office_ulid")); err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateEmployee(c *gin.Context) {
	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(ErrCodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.CreateEmployee(c.Request.Context(), req)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) LookupEmployees(c *gin.Context) {
	var req LookupEmployeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(ErrCodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.LookupEmployees(c.Request.Context(), req)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteEmployee(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("employee_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(ErrCodeInvalidArgument, "employee id must be numeric"))
		return
	}
	if err := h.svc.DeleteEmployee(c.Request.Context(), id); err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- helpers ----------

type errorDTO struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	var de *DomainError
	if errors.As(err, &de) {
		return errorBody(de.Code, de.Message)
	}
	return errorBody(ErrCodeInternal, "internal error")
}
