package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/dental-api/internal/model"
	"github.com/jwalitptl/dental-api/internal/repository"
	"github.com/jwalitptl/dental-api/pkg/metrics"
	"github.com/jwalitptl/dental-api/pkg/validator"
)

const restoreTimeout = 5 * time.Second

var (
	ErrNotFound = errors.New("record not found")
	ErrInvalid  = errors.New("invalid record")
	ErrNotReady = errors.New("store not loaded")
)

// Persister saves and restores whole collections by key.
type Persister interface {
	Load(ctx context.Context, key string, dst interface{}) (bool, error)
	Save(ctx context.Context, key string, value interface{}) error
	Remove(ctx context.Context, key string) error
}

// Store is the single source of truth for the signed-in session, patients
// and appointments. Every mutation is applied in memory and then written
// through to the Persister; if the write fails the mutation is undone.
// Readers always get copies.
type Store struct {
	persister  Persister
	directory  Directory
	ids        IDGenerator
	now        func() time.Time
	newTokenID func() string
	logger     zerolog.Logger
	metrics    *metrics.Metrics

	seedPatients     func(time.Time) []model.Patient
	seedAppointments func(time.Time) []model.Appointment

	mu           sync.Mutex
	loaded       bool
	session      *model.Session
	patients     []model.Patient
	appointments []model.Appointment
	pending      []Change

	subMu     sync.Mutex
	subs      map[int]chan Change
	nextSub   int
	observers []Observer
}

func New(persister Persister, opts ...Option) *Store {
	s := &Store{
		persister:        persister,
		now:              time.Now,
		newTokenID:       uuid.NewString,
		logger:           log.Logger,
		seedPatients:     SamplePatients,
		seedAppointments: SampleAppointments,
		patients:         []model.Patient{},
		appointments:     []model.Appointment{},
		subs:             make(map[int]chan Change),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = NewMonotonicIDs(s.now)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewNop()
	}
	s.logger = s.logger.With().Str("component", "store").Logger()
	return s
}

// unlock releases the store lock and then delivers queued changes.
func (s *Store) unlock() {
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	s.emit(pending)
}

func (s *Store) queue(kind ChangeKind, collection model.Collection, id int64) {
	s.pending = append(s.pending, Change{Kind: kind, Collection: collection, ID: id, At: s.now().UTC()})
}

// Load restores all three collections. A stored session that does not
// decode is discarded. Missing or undecodable patients and appointments
// are replaced by the seed data, which is written back immediately. A stored
// null collection is written back as an empty one.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlock()

	var session model.Session
	found, err := s.persister.Load(ctx, repository.KeySession, &session)
	switch {
	case errors.Is(err, repository.ErrCorrupt):
		s.logger.Warn().Err(err).Msg("discarding unreadable session")
		if err := s.persister.Remove(ctx, repository.KeySession); err != nil {
			return err
		}
		s.session = nil
	case err != nil:
		return err
	case found && session.Role.Valid():
		s.session = &session
	default:
		s.session = nil
	}

	var patients []model.Patient
	found, err = s.persister.Load(ctx, repository.KeyPatients, &patients)
	if err != nil && !errors.Is(err, repository.ErrCorrupt) {
		return err
	}
	if !found || err != nil {
		if err != nil {
			s.logger.Warn().Err(err).Msg("reseeding unreadable patients")
		}
		patients = s.seedPatients(s.now().UTC())
		if err := s.persister.Save(ctx, repository.KeyPatients, patients); err != nil {
			return err
		}
	}
	if patients == nil {
		patients = []model.Patient{}
		if err := s.persister.Save(ctx, repository.KeyPatients, patients); err != nil {
			return err
		}
	}

	var appointments []model.Appointment
	found, err = s.persister.Load(ctx, repository.KeyAppointments, &appointments)
	if err != nil && !errors.Is(err, repository.ErrCorrupt) {
		return err
	}
	if !found || err != nil {
		if err != nil {
			s.logger.Warn().Err(err).Msg("reseeding unreadable appointments")
		}
		appointments = s.seedAppointments(s.now().UTC())
		if err := s.persister.Save(ctx, repository.KeyAppointments, appointments); err != nil {
			return err
		}
	}
	if appointments == nil {
		appointments = []model.Appointment{}
		if err := s.persister.Save(ctx, repository.KeyAppointments, appointments); err != nil {
			return err
		}
	}

	for i := range appointments {
		appointments[i].Normalize()
	}

	s.patients = patients
	s.appointments = appointments
	s.observeIDs()
	s.loaded = true
	s.updateGauges()

	s.logger.Info().
		Int("patients", len(s.patients)).
		Int("appointments", len(s.appointments)).
		Bool("session", s.session != nil).
		Msg("state loaded")
	return nil
}

func (s *Store) observeIDs() {
	for _, p := range s.patients {
		s.ids.Observe(p.ID)
	}
	for _, a := range s.appointments {
		s.ids.Observe(a.ID)
	}
}

func (s *Store) updateGauges() {
	s.metrics.CollectionItems.WithLabelValues(string(model.CollectionPatients)).Set(float64(len(s.patients)))
	s.metrics.CollectionItems.WithLabelValues(string(model.CollectionAppointments)).Set(float64(len(s.appointments)))
}

// persist writes the given keys in order. When one fails, undo restores the
// in-memory state and keys already written are rewritten from it. The
// rewrites run detached from ctx so a cancelled request still restores them.
func (s *Store) persist(ctx context.Context, op string, undo func(), keys ...string) error {
	for i, key := range keys {
		if err := s.write(ctx, key); err != nil {
			undo()
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
			defer cancel()
			for _, written := range keys[:i] {
				if rerr := s.write(rctx, written); rerr != nil {
					s.logger.Error().Err(rerr).Str("key", written).Msg("failed to restore key after rollback")
				}
			}
			s.metrics.StoreMutations.WithLabelValues(op, "error").Inc()
			s.logger.Error().Err(err).Str("operation", op).Msg("mutation rolled back")
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	s.metrics.StoreMutations.WithLabelValues(op, "success").Inc()
	s.updateGauges()
	return nil
}

func (s *Store) write(ctx context.Context, key string) error {
	switch key {
	case repository.KeySession:
		if s.session == nil {
			return s.persister.Remove(ctx, key)
		}
		return s.persister.Save(ctx, key, s.session)
	case repository.KeyPatients:
		return s.persister.Save(ctx, key, s.patients)
	case repository.KeyAppointments:
		return s.persister.Save(ctx, key, s.appointments)
	}
	return fmt.Errorf("unknown key %q", key)
}

func (s *Store) ready() error {
	if !s.loaded {
		return ErrNotReady
	}
	return nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalid, err)
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
}

// Login checks credentials and, on success, makes the account the live
// session. Wrong credentials report false without an error.
func (s *Store) Login(ctx context.Context, email, password string) (bool, error) {
	_, ok, err := s.SignIn(ctx, email, password)
	return ok, err
}

// SignIn is Login returning the new session.
func (s *Store) SignIn(ctx context.Context, email, password string) (model.Session, bool, error) {
	if s.directory == nil {
		return model.Session{}, false, nil
	}
	session, ok := s.directory.Verify(email, password)
	if !ok {
		s.metrics.StoreMutations.WithLabelValues("login", "rejected").Inc()
		return model.Session{}, false, nil
	}

	s.mu.Lock()
	defer s.unlock()
	if err := s.ready(); err != nil {
		return model.Session{}, false, err
	}

	session.TokenID = s.newTokenID()
	prev := s.session
	s.session = &session
	if err := s.persist(ctx, "login", func() { s.session = prev }, repository.KeySession); err != nil {
		return model.Session{}, false, err
	}
	s.queue(ChangeReplaced, model.CollectionSession, session.ID)
	s.logger.Info().Int64("user_id", session.ID).Str("role", session.Role.String()).Msg("signed in")
	return session, true, nil
}

// Logout clears the live session. Logging out with no session is a no-op.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlock()
	if err := s.ready(); err != nil {
		return err
	}

	prev := s.session
	s.session = nil
	if err := s.persist(ctx, "logout", func() { s.session = prev }, repository.KeySession); err != nil {
		return err
	}
	if prev != nil {
		s.queue(ChangeDeleted, model.CollectionSession, prev.ID)
	}
	return nil
}

// Session returns a copy of the live session, or nil.
func (s *Store) Session() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	session := *s.session
	return &session
}

func (s *Store) Patients() []model.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.patients)
}

func (s *Store) Appointments() []model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Appointment, len(s.appointments))
	for i, a := range s.appointments {
		out[i] = cloneAppointment(a)
	}
	return out
}

func (s *Store) Patient(id int64) (model.Patient, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.patients, func(p model.Patient) bool { return p.ID == id })
	if i < 0 {
		return model.Patient{}, false
	}
	return s.patients[i], true
}

func (s *Store) Appointment(id int64) (model.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.appointments, func(a model.Appointment) bool { return a.ID == id })
	if i < 0 {
		return model.Appointment{}, false
	}
	return cloneAppointment(s.appointments[i]), true
}

func (s *Store) AddPatient(ctx context.Context, fields model.PatientFields) (model.Patient, error) {
	if err := validator.Struct(fields); err != nil {
		return model.Patient{}, invalid(err)
	}

	s.mu.Lock()
	defer s.unlock()
	if err := s.ready(); err != nil {
		return model.Patient{}, err
	}

	p := model.Patient{ID: s.ids.Next(), PatientFields: fields, CreatedAt: s.now().UTC()}
	prev := s.patients
	s.patients = appendCopy(prev, p)
	if err := s.persist(ctx, "add_patient", func() { s.patients = prev }, repository.KeyPatients); err != nil {
		return model.Patient{}, err
	}
	s.queue(ChangeCreated, model.CollectionPatients, p.ID)
	return p, nil
}

// UpdatePatient replaces the record with p.ID. CreatedAt is kept from the
// stored record.
func (s *Store) UpdatePatient(ctx context.Context, p model.Patient) (model.Patient, error) {
	if err := validator.Struct(p.PatientFields); err != nil {
		return model.Patient{}, invalid(err)
	}

	s.mu.Lock()
	defer s.unlock()
	if err := s.ready(); err != nil {
		return model.Patient{}, err
	}

	i := slices.IndexFunc(s.patients, func(existing model.Patient) bool { return existing.ID == p.ID })
	if i < 0 {
		return model.Patient{}, notFound("patient", p.ID)
	}
	p.CreatedAt = s.patients[i].CreatedAt

	prev := s.patients
	s.patients = replaceAt(prev, i, p)
	if err := s.persist(ctx, "update_patient", func() { s.patients = prev }, repository.KeyPatients); err != nil {
		return model.Patient{}, err
	}
	s.queue(ChangeUpdated, model.CollectionPatients, p.ID)
	return p, nil
}

// DeletePatient removes the patient and every appointment that references it.
func (s *Store) DeletePatient(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.unlock()
	if err := s.ready(); err != nil {
		return err
	}

	if !slices.ContainsFunc(s.patients, func(p model.Patient) bool { return p.ID == id }) {
		return notFound("patient", id)
	}

	prevPatients, prevAppointments := s.patients, s.appointments
	var removed []int64
	s.patients = removeWhere(prevPatients, func(p model.Patient) bool { return p.ID == id })
	s.appointments = removeWhere(prevAppointments, func(a model.Appointment) bool {
		if a.PatientID == id {
			removed = append(removed, a.ID)
			return true
		}
		return false
	})

	undo := func() {
		s.patients = prevPatients
		s.appointments = prevAppointments
	}
	if err := s.persist(ctx, "delete_patient", undo, repository.KeyPatients, repository.KeyAppointments); err != nil {
		return err
	}

	s.queue(ChangeDeleted, model.CollectionPatients, id)
	for _, aid := range removed {
		s.queue(ChangeDeleted, model.CollectionAppointments, aid)
	}
	s.logger.Info().Int64("patient_id", id).Int("appointments", len(removed)).Msg("patient deleted")
	return nil
}

// AddAppointment stores a new appointment. The patient id is not checked
// against the patient list.
func (s *Store) AddAppointment(ctx context.Context, fields model.AppointmentFields) (model.Appointment, error) {
	fields.Normalize()
	if err := validator.Struct(fields); err != nil {
		return model.Appointment{}, invalid(err)
	}

	s.mu.Lock()
	defer s.unlock()
	if err := s.ready(); err != nil {
		return model.Appointment{}, err
	}

	a := model.Appointment{ID: s.ids.Next(), AppointmentFields: fields, CreatedAt: s.now().UTC()}
	a.Files = slices.Clone(a.Files)
	prev := s.appointments
	s.appointments = appendCopy(prev, a)
	if err := s.persist(ctx, "add_appointment", func() { s.appointments = prev }, repository.KeyAppointments); err != nil {
		return model.Appointment{}, err
	}
	s.queue(ChangeCreated, model.CollectionAppointments, a.ID)
	return cloneAppointment(a), nil
}

// UpdateAppointment replaces the record with a.ID. CreatedAt is kept from
// the stored record.
func (s *Store) UpdateAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	a.Normalize()
	if err := validator.Struct(a.AppointmentFields); err != nil {
		return model.Appointment{}, invalid(err)
	}

	s.mu.Lock()
	defer s.unlock()
	if err := s.ready(); err != nil {
		return model.Appointment{}, err
	}

	i := slices.IndexFunc(s.appointments, func(existing model.Appointment) bool { return existing.ID == a.ID })
	if i < 0 {
		return model.Appointment{}, notFound("appointment", a.ID)
	}
	a.CreatedAt = s.appointments[i].CreatedAt
	a.Files = slices.Clone(a.Files)

	prev := s.appointments
	s.appointments = replaceAt(prev, i, a)
	if err := s.persist(ctx, "update_appointment", func() { s.appointments = prev }, repository.KeyAppointments); err != nil {
		return model.Appointment{}, err
	}
	s.queue(ChangeUpdated, model.CollectionAppointments, a.ID)
	return cloneAppointment(a), nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.unlock()
	if err := s.ready(); err != nil {
		return err
	}

	if !slices.ContainsFunc(s.appointments, func(a model.Appointment) bool { return a.ID == id }) {
		return notFound("appointment", id)
	}

	prev := s.appointments
	s.appointments = removeWhere(prev, func(a model.Appointment) bool { return a.ID == id })
	if err := s.persist(ctx, "delete_appointment", func() { s.appointments = prev }, repository.KeyAppointments); err != nil {
		return err
	}
	s.queue(ChangeDeleted, model.CollectionAppointments, id)
	return nil
}

// Export returns a copy of the whole state.
func (s *Store) Export() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := model.Snapshot{
		Patients:     slices.Clone(s.patients),
		Appointments: make([]model.Appointment, len(s.appointments)),
	}
	if s.session != nil {
		session := *s.session
		snap.Session = &session
	}
	for i, a := range s.appointments {
		snap.Appointments[i] = cloneAppointment(a)
	}
	return snap
}

// Import replaces patients and appointments with snap's. The live session
// is left alone. Every record is validated before anything is written.
func (s *Store) Import(ctx context.Context, snap model.Snapshot) error {
	patients := slices.Clone(snap.Patients)
	if patients == nil {
		patients = []model.Patient{}
	}
	appointments := make([]model.Appointment, len(snap.Appointments))
	for i, a := range snap.Appointments {
		a = cloneAppointment(a)
		a.Normalize()
		appointments[i] = a
	}

	seen := make(map[int64]bool)
	for _, p := range patients {
		if err := validator.Struct(p.PatientFields); err != nil {
			return invalid(fmt.Errorf("patient %d: %w", p.ID, err))
		}
		if seen[p.ID] {
			return invalid(fmt.Errorf("duplicate patient id %d", p.ID))
		}
		seen[p.ID] = true
	}
	clear(seen)
	for _, a := range appointments {
		if err := validator.Struct(a.AppointmentFields); err != nil {
			return invalid(fmt.Errorf("appointment %d: %w", a.ID, err))
		}
		if seen[a.ID] {
			return invalid(fmt.Errorf("duplicate appointment id %d", a.ID))
		}
		seen[a.ID] = true
	}

	s.mu.Lock()
	defer s.unlock()

	prevPatients, prevAppointments := s.patients, s.appointments
	s.patients, s.appointments = patients, appointments
	undo := func() {
		s.patients = prevPatients
		s.appointments = prevAppointments
	}
	if err := s.persist(ctx, "import", undo, repository.KeyPatients, repository.KeyAppointments); err != nil {
		return err
	}
	s.observeIDs()
	s.loaded = true
	s.queue(ChangeReplaced, model.CollectionPatients, 0)
	s.queue(ChangeReplaced, model.CollectionAppointments, 0)
	s.logger.Info().Int("patients", len(patients)).Int("appointments", len(appointments)).Msg("state imported")
	return nil
}

func cloneAppointment(a model.Appointment) model.Appointment {
	a.Files = slices.Clone(a.Files)
	if a.Files == nil {
		a.Files = []string{}
	}
	return a
}

func appendCopy[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}

func replaceAt[T any](s []T, i int, v T) []T {
	out := slices.Clone(s)
	out[i] = v
	return out
}

func removeWhere[T any](s []T, drop func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if !drop(v) {
			out = append(out, v)
		}
	}
	return out
}
