package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// AppointmentStatuses lists every status in display order.
var AppointmentStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
	AppointmentStatusCompleted,
	AppointmentStatusCancelled,
}

func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	for _, st := range AppointmentStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid appointment status %q", s)
}

func (s *AppointmentStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*s = ""
		return nil
	}
	parsed, err := ParseAppointmentStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// AppointmentFields are the editable parts of an appointment.
type AppointmentFields struct {
	PatientID           int64             `json:"patientId" yaml:"patientId" binding:"required"`
	Title               string            `json:"title" yaml:"title" binding:"required"`
	Description         string            `json:"description" yaml:"description"`
	Comments            string            `json:"comments,omitempty" yaml:"comments,omitempty"`
	Status              AppointmentStatus `json:"status" yaml:"status" binding:"omitempty,oneof=pending confirmed completed cancelled"`
	AppointmentDate     DateTime          `json:"appointmentDate" yaml:"appointmentDate" binding:"required"`
	Treatment           string            `json:"treatment" yaml:"treatment"`
	Cost                float64           `json:"cost" yaml:"cost" binding:"gte=0"`
	NextAppointmentDate DateTime          `json:"nextAppointmentDate" yaml:"nextAppointmentDate"`
	Files               []string          `json:"files" yaml:"files"`
}

type Appointment struct {
	ID                int64 `json:"id" yaml:"id"`
	AppointmentFields `yaml:",inline"`
	CreatedAt         time.Time `json:"createdAt" yaml:"createdAt"`
}

// Normalize fills defaults the forms leave blank.
func (f *AppointmentFields) Normalize() {
	if f.Status == "" {
		f.Status = AppointmentStatusPending
	}
	if f.Files == nil {
		f.Files = []string{}
	}
}

func (a Appointment) IsCompleted() bool {
	return a.Status == AppointmentStatusCompleted
}

// AppointmentFilters narrows the appointment list.
type AppointmentFilters struct {
	Status     AppointmentStatus `form:"status"`
	SearchTerm string            `form:"q"`
}
