package model

import (
	"time"
)

// PatientFields are the editable parts of a patient record.
type PatientFields struct {
	FullName         string `json:"fullName" yaml:"fullName" binding:"required"`
	Email            string `json:"email" yaml:"email" binding:"required"`
	Phone            string `json:"phone" yaml:"phone" binding:"required"`
	DateOfBirth      string `json:"dateOfBirth" yaml:"dateOfBirth"`
	Address          string `json:"address" yaml:"address"`
	EmergencyContact string `json:"emergencyContact" yaml:"emergencyContact"`
	HealthInfo       string `json:"healthInfo,omitempty" yaml:"healthInfo,omitempty"`
}

type Patient struct {
	ID            int64 `json:"id" yaml:"id"`
	PatientFields `yaml:",inline"`
	CreatedAt     time.Time `json:"createdAt" yaml:"createdAt"`
}

// PatientSummary is a patient with its appointment count.
type PatientSummary struct {
	Patient
	AppointmentCount int `json:"appointmentCount"`
}
