package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/dental-api/internal/handler"
	"github.com/jwalitptl/dental-api/internal/model"
	"github.com/jwalitptl/dental-api/internal/view"
	apperrors "github.com/jwalitptl/dental-api/pkg/errors"
)

type Store interface {
	Patients() []model.Patient
	Appointments() []model.Appointment
}

type Handler struct {
	store    Store
	now      func() time.Time
	location *time.Location
}

// NewHandler builds the dashboard handler. loc is the clinic's time zone
// for calendar days; nil means UTC.
func NewHandler(store Store, now func() time.Time, loc *time.Location) *Handler {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{store: store, now: now, location: loc}
}

// Dashboard shows the clinic dashboard to admins and a personal one to
// patients.
func (h *Handler) Dashboard(c *gin.Context) {
	session := handler.SessionFrom(c)
	if session == nil {
		_ = c.Error(apperrors.Unauthorized(nil))
		return
	}
	patients, appointments := h.store.Patients(), h.store.Appointments()

	if session.Role == model.RolePatient {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(view.BuildPatientDashboard(*session, patients, appointments, h.now())))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(view.BuildAdminDashboard(patients, appointments, h.now())))
}

// PatientView is the patient's own record and appointment history.
func (h *Handler) PatientView(c *gin.Context) {
	session := handler.SessionFrom(c)
	if session == nil {
		_ = c.Error(apperrors.Unauthorized(nil))
		return
	}
	d := view.BuildPatientDashboard(*session, h.store.Patients(), h.store.Appointments(), h.now())
	if d.Patient == nil {
		_ = c.Error(apperrors.NotFound("patient record", nil))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

type Stats struct {
	TotalPatients     int                             `json:"totalPatients"`
	TotalAppointments int                             `json:"totalAppointments"`
	Revenue           float64                         `json:"revenue"`
	CompletionRate    float64                         `json:"completionRate"`
	StatusCounts      map[model.AppointmentStatus]int `json:"statusCounts"`
	Upcoming          int                             `json:"upcomingAppointments"`
}

func (h *Handler) Stats(c *gin.Context) {
	patients, appointments := h.store.Patients(), h.store.Appointments()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(Stats{
		TotalPatients:     len(patients),
		TotalAppointments: len(appointments),
		Revenue:           view.Revenue(appointments),
		CompletionRate:    view.CompletionRate(appointments),
		StatusCounts:      view.CountByStatus(appointments),
		Upcoming:          len(view.UpcomingAppointments(appointments, h.now())),
	}))
}

// Calendar lays out ?month=YYYY-MM, defaulting to the current month.
func (h *Handler) Calendar(c *gin.Context) {
	now := h.now().In(h.location)
	year, month := now.Year(), now.Month()
	if m := c.Query("month"); m != "" {
		var err error
		if year, month, err = view.ParseMonth(m); err != nil {
			_ = c.Error(apperrors.BadRequest(err.Error(), nil))
			return
		}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(
		view.MonthCalendar(h.store.Appointments(), h.store.Patients(), year, month, h.location),
	))
}
