package appointment

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/dental-api/internal/handler"
	"github.com/jwalitptl/dental-api/internal/model"
	"github.com/jwalitptl/dental-api/internal/view"
	apperrors "github.com/jwalitptl/dental-api/pkg/errors"
)

type Store interface {
	Patients() []model.Patient
	Appointments() []model.Appointment
	Appointment(id int64) (model.Appointment, bool)
	AddAppointment(ctx context.Context, fields model.AppointmentFields) (model.Appointment, error)
	UpdateAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListAppointments)
		appointments.POST("", h.CreateAppointment)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.DELETE("/:id", h.DeleteAppointment)
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(apperrors.BadRequest("invalid appointment ID", err))
		return 0, false
	}
	return id, true
}

// ListAppointments supports ?status= (or "all") and ?q= over title and
// patient name. Results are most recent first, with patient names.
func (h *Handler) ListAppointments(c *gin.Context) {
	var filters model.AppointmentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		_ = c.Error(apperrors.BadRequest("invalid filters", err))
		return
	}
	if filters.Status != "" && filters.Status != "all" {
		if _, err := model.ParseAppointmentStatus(string(filters.Status)); err != nil {
			_ = c.Error(apperrors.BadRequest(err.Error(), nil))
			return
		}
	}

	patients := h.store.Patients()
	list := view.FilterAppointments(h.store.Appointments(), patients, filters.Status, filters.SearchTerm)
	out := make([]view.Activity, len(list))
	for i, a := range list {
		out[i] = view.Activity{Appointment: a, PatientName: view.PatientName(patients, a.PatientID)}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, found := h.store.Appointment(id)
	if !found {
		_ = c.Error(apperrors.NotFound("appointment", nil))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(view.Activity{
		Appointment: a,
		PatientName: view.PatientName(h.store.Patients(), a.PatientID),
	}))
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.AppointmentFields
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest("invalid request body", err))
		return
	}

	a, err := h.store.AddAppointment(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(a))
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req model.AppointmentFields
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest("invalid request body", err))
		return
	}

	a, err := h.store.UpdateAppointment(c.Request.Context(), model.Appointment{ID: id, AppointmentFields: req})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(a))
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteAppointment(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("appointment deleted"))
}
