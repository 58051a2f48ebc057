package model

// Snapshot is the whole clinic state, as persisted and exported.
type Snapshot struct {
	Session      *Session      `json:"session,omitempty" yaml:"session,omitempty"`
	Patients     []Patient     `json:"patients" yaml:"patients"`
	Appointments []Appointment `json:"appointments" yaml:"appointments"`
}

// Collection names a persisted collection.
type Collection string

const (
	CollectionSession      Collection = "session"
	CollectionPatients     Collection = "patients"
	CollectionAppointments Collection = "appointments"
)
