package view

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/jwalitptl/dental-api/internal/model"
)

const UnknownPatient = "Unknown Patient"

// FilterPatients keeps patients whose name or email contains term, ignoring
// case, or whose phone contains term verbatim. An empty term keeps all.
func FilterPatients(patients []model.Patient, term string) []model.Patient {
	if term == "" {
		return slices.Clone(patients)
	}
	lower := strings.ToLower(term)
	out := make([]model.Patient, 0, len(patients))
	for _, p := range patients {
		if strings.Contains(strings.ToLower(p.FullName), lower) ||
			strings.Contains(strings.ToLower(p.Email), lower) ||
			strings.Contains(p.Phone, term) {
			out = append(out, p)
		}
	}
	return out
}

// PatientName returns the patient's full name or UnknownPatient.
func PatientName(patients []model.Patient, id int64) string {
	if p, ok := FindPatient(patients, id); ok {
		return p.FullName
	}
	return UnknownPatient
}

func FindPatient(patients []model.Patient, id int64) (model.Patient, bool) {
	i := slices.IndexFunc(patients, func(p model.Patient) bool { return p.ID == id })
	if i < 0 {
		return model.Patient{}, false
	}
	return patients[i], true
}

// PatientByEmail matches case-insensitively; patient accounts are linked to
// patient records this way.
func PatientByEmail(patients []model.Patient, email string) (model.Patient, bool) {
	email = strings.TrimSpace(email)
	i := slices.IndexFunc(patients, func(p model.Patient) bool { return strings.EqualFold(p.Email, email) })
	if i < 0 {
		return model.Patient{}, false
	}
	return patients[i], true
}

// AppointmentsForPatient keeps the patient's appointments in their original order.
func AppointmentsForPatient(appointments []model.Appointment, patientID int64) []model.Appointment {
	out := make([]model.Appointment, 0)
	for _, a := range appointments {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out
}

// Summaries pairs every patient with its appointment count.
func Summaries(patients []model.Patient, appointments []model.Appointment) []model.PatientSummary {
	counts := make(map[int64]int, len(patients))
	for _, a := range appointments {
		counts[a.PatientID]++
	}
	out := make([]model.PatientSummary, len(patients))
	for i, p := range patients {
		out[i] = model.PatientSummary{Patient: p, AppointmentCount: counts[p.ID]}
	}
	return out
}

// TopPatientsByAppointmentCount returns at most n patients, busiest first.
// Ties keep patient order.
func TopPatientsByAppointmentCount(patients []model.Patient, appointments []model.Appointment, n int) []model.PatientSummary {
	summaries := Summaries(patients, appointments)
	slices.SortStableFunc(summaries, func(a, b model.PatientSummary) int {
		return cmp.Compare(b.AppointmentCount, a.AppointmentCount)
	})
	if n >= 0 && len(summaries) > n {
		summaries = summaries[:n]
	}
	return summaries
}

// Age is the number of whole years between dateOfBirth (YYYY-MM-DD) and now,
// or -1 when the date does not parse.
func Age(dateOfBirth string, now time.Time) int {
	dob, err := time.Parse("2006-01-02", strings.TrimSpace(dateOfBirth))
	if err != nil {
		return -1
	}
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}
