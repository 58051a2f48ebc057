package patient

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

// Store is what the patient screens need from the domain store.
type Store interface {
	Patients() []model.Patient
	Patient(id int64) (model.Patient, bool)
	Appointments() []model.Appointment
	AddPatient(ctx context.Context, fields model.PatientFields) (model.Patient, error)
	UpdatePatient(ctx context.Context, p model.Patient) (model.Patient, error)
	DeletePatient(ctx context.Context, id int64) error
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("", h.ListPatients)
		patients.POST("", h.CreatePatient)
		patients.GET("/:id", h.GetPatient)
		patients.PUT("/:id", h.UpdatePatient)
		patients.DELETE("/:id", h.DeletePatient)
		patients.GET("/:id/appointments", h.ListAppointments)
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(apperrors.BadRequest("invalid patient ID", err))
		return 0, false
	}
	return id, true
}

// ListPatients returns every patient with its appointment count. ?q=
// narrows by name, email or phone.
func (h *Handler) ListPatients(c *gin.Context) {
	patients := view.FilterPatients(h.store.Patients(), c.Query("q"))
	c.JSON(http.StatusOK, handler.NewSuccessResponse(view.Summaries(patients, h.store.Appointments())))
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, found := h.store.Patient(id)
	if !found {
		_ = c.Error(apperrors.NotFound("patient", nil))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.PatientFields
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest("invalid request body", err))
		return
	}

	p, err := h.store.AddPatient(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req model.PatientFields
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest("invalid request body", err))
		return
	}

	p, err := h.store.UpdatePatient(c.Request.Context(), model.Patient{ID: id, PatientFields: req})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

// DeletePatient also removes the patient's appointments.
func (h *Handler) DeletePatient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.store.DeletePatient(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("patient deleted"))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, found := h.store.Patient(id); !found {
		_ = c.Error(apperrors.NotFound("patient", nil))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(view.AppointmentsForPatient(h.store.Appointments(), id)))
}
