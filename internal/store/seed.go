package store

import (
	"time"

	"github.com/jwalitptl/dental-api/internal/model"
)

// SamplePatients is the data a fresh clinic starts with.
func SamplePatients(now time.Time) []model.Patient {
	return []model.Patient{
		{
			ID: 1,
			PatientFields: model.PatientFields{
				FullName:         "John Doe",
				Email:            "john@email.com",
				Phone:            "+1234567890",
				DateOfBirth:      "1990-05-15",
				Address:          "123 Main St, City",
				EmergencyContact: "+1987654321",
				HealthInfo:       "No known allergies",
			},
			CreatedAt: now,
		},
		{
			ID: 2,
			PatientFields: model.PatientFields{
				FullName:         "Jane Smith",
				Email:            "jane@email.com",
				Phone:            "+1234567891",
				DateOfBirth:      "1985-08-22",
				Address:          "456 Oak Ave, City",
				EmergencyContact: "+1987654322",
				HealthInfo:       "Allergic to penicillin",
			},
			CreatedAt: now,
		},
	}
}

// SampleAppointments matches SamplePatients.
func SampleAppointments(now time.Time) []model.Appointment {
	return []model.Appointment{
		{
			ID: 1,
			AppointmentFields: model.AppointmentFields{
				PatientID:           1,
				Title:               "Routine Checkup",
				Description:         "Regular dental examination",
				Comments:            "Patient complained of tooth sensitivity",
				AppointmentDate:     model.MustDateTime("2025-07-05T10:00:00"),
				Status:              model.AppointmentStatusCompleted,
				Cost:                150,
				Treatment:           "Cleaning and fluoride treatment",
				NextAppointmentDate: model.MustDateTime("2025-10-05T10:00:00"),
				Files:               []string{},
			},
			CreatedAt: now,
		},
		{
			ID: 2,
			AppointmentFields: model.AppointmentFields{
				PatientID:       2,
				Title:           "Root Canal",
				Description:     "Root canal treatment for molar",
				Comments:        "Severe pain in lower right molar",
				AppointmentDate: model.MustDateTime("2025-07-10T14:00:00"),
				Status:          model.AppointmentStatusPending,
				Files:           []string{},
			},
			CreatedAt: now,
		},
	}
}
