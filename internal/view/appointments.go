package view

import (
	"slices"
	"strings"
	"time"

	"github.com/jwalitptl/dental-api/internal/model"
)

func byDateAsc(a, b model.Appointment) int {
	return a.AppointmentDate.Compare(b.AppointmentDate.Time)
}

func byDateDesc(a, b model.Appointment) int {
	return b.AppointmentDate.Compare(a.AppointmentDate.Time)
}

// UpcomingAppointments keeps appointments at or after now, soonest first.
// Equal dates keep their input order.
func UpcomingAppointments(appointments []model.Appointment, now time.Time) []model.Appointment {
	out := make([]model.Appointment, 0)
	for _, a := range appointments {
		if !a.AppointmentDate.Before(now) {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, byDateAsc)
	return out
}

// PastOrCompleted keeps appointments before now plus any completed ones,
// most recent first.
func PastOrCompleted(appointments []model.Appointment, now time.Time) []model.Appointment {
	out := make([]model.Appointment, 0)
	for _, a := range appointments {
		if a.AppointmentDate.Before(now) || a.IsCompleted() {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, byDateDesc)
	return out
}

// CompletionRate is completed/total, 0 for no appointments.
func CompletionRate(appointments []model.Appointment) float64 {
	if len(appointments) == 0 {
		return 0
	}
	completed := 0
	for _, a := range appointments {
		if a.IsCompleted() {
			completed++
		}
	}
	return float64(completed) / float64(len(appointments))
}

// Revenue sums the cost of completed appointments.
func Revenue(appointments []model.Appointment) float64 {
	var total float64
	for _, a := range appointments {
		if a.IsCompleted() {
			total += a.Cost
		}
	}
	return total
}

// CountByStatus always has an entry for every status.
func CountByStatus(appointments []model.Appointment) map[model.AppointmentStatus]int {
	counts := make(map[model.AppointmentStatus]int, len(model.AppointmentStatuses))
	for _, st := range model.AppointmentStatuses {
		counts[st] = 0
	}
	for _, a := range appointments {
		counts[a.Status]++
	}
	return counts
}

// FilterAppointments keeps appointments with the given status ("" or "all"
// for any) whose title or patient name contains term, ignoring case. The
// result is most recent first.
func FilterAppointments(appointments []model.Appointment, patients []model.Patient, status model.AppointmentStatus, term string) []model.Appointment {
	lower := strings.ToLower(strings.TrimSpace(term))
	out := make([]model.Appointment, 0)
	for _, a := range appointments {
		if status != "" && status != "all" && a.Status != status {
			continue
		}
		if lower != "" {
			name := ""
			if p, ok := FindPatient(patients, a.PatientID); ok {
				name = p.FullName
			}
			if !strings.Contains(strings.ToLower(a.Title), lower) && !strings.Contains(strings.ToLower(name), lower) {
				continue
			}
		}
		out = append(out, a)
	}
	slices.SortStableFunc(out, byDateDesc)
	return out
}

// Activity is an appointment shown with its patient's name.
type Activity struct {
	model.Appointment
	PatientName string `json:"patientName"`
}

// RecentActivity returns at most n appointments, most recent first.
func RecentActivity(appointments []model.Appointment, patients []model.Patient, n int) []Activity {
	sorted := slices.Clone(appointments)
	slices.SortStableFunc(sorted, byDateDesc)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]Activity, len(sorted))
	for i, a := range sorted {
		out[i] = Activity{Appointment: a, PatientName: PatientName(patients, a.PatientID)}
	}
	return out
}

func limit(appointments []model.Appointment, n int) []model.Appointment {
	if len(appointments) > n {
		return appointments[:n]
	}
	return appointments
}
