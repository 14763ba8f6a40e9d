package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medbook-web/internal/model"
	"github.com/jwalitptl/medbook-web/internal/repository"
	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
	"github.com/jwalitptl/medbook-web/pkg/metrics"
	"github.com/jwalitptl/medbook-web/pkg/reqseq"
)

const (
	SlotsField = "dashboard.slots"

	msgFetchFailed   = "Failed to fetch appointments. Please try again."
	msgDeleteFailed  = "Failed to delete appointment. Please try again."
	msgDeleted       = "Appointment deleted successfully"
	msgUpdated       = "Appointment updated successfully."
	msgUpdateFailed  = "Appointment update failed"
	msgSlotsFailed   = "Failed to fetch available slots. Please try again."
	msgSlotRequired  = "Please select an available time slot."
	msgDateOutOfSync = "Check the available slots for the new date first."
)

var (
	ErrStaleResponse = errors.New("slot response superseded by a newer request")
	ErrNoModal       = errors.New("no appointment is being edited")
)

type Service struct {
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	states       repository.Store[model.DashboardState]
	seq          *reqseq.Sequencer
	ttl          time.Duration
	metrics      *metrics.Metrics
}

func NewService(
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	states repository.Store[model.DashboardState],
	seq *reqseq.Sequencer,
	ttl time.Duration,
	m *metrics.Metrics,
) *Service {
	return &Service{
		appointments: appointments,
		doctors:      doctors,
		states:       states,
		seq:          seq,
		ttl:          ttl,
		metrics:      m,
	}
}

func stateKey(sid string) string {
	return "dashboard:" + sid
}

func (s *Service) load(ctx context.Context, sid string, owner string) (model.DashboardState, error) {
	state, _, err := s.states.Get(ctx, stateKey(sid))
	if err != nil {
		return model.DashboardState{}, fmt.Errorf("failed to load dashboard state: %w", err)
	}
	if state.Owner != owner {
		state = model.DashboardState{Owner: owner}
	}
	return state, nil
}

func (s *Service) save(ctx context.Context, sid string, state model.DashboardState) error {
	if err := s.states.Set(ctx, stateKey(sid), state, s.ttl); err != nil {
		return fmt.Errorf("failed to save dashboard state: %w", err)
	}
	return nil
}

// View returns the dashboard for sess.UserName. The list is fetched once per
// user and cached; refresh forces a new fetch. A pending notice is returned
// once and then dropped.
func (s *Service) View(ctx context.Context, sid string, sess model.Session, authToken string, refresh bool) (model.DashboardState, error) {
	if !sess.Authenticated() {
		return model.DashboardState{}, apperrors.Unauthorized("", nil)
	}
	state, err := s.load(ctx, sid, sess.UserName)
	if err != nil {
		return model.DashboardState{}, err
	}

	if !state.Loaded || refresh {
		list, err := s.appointments.ListByUser(ctx, authToken, sess.UserName)
		if err != nil {
			log.Warn().Err(err).Str("user", sess.UserName).Msg("failed to fetch appointments")
			state.Appointments = nil
			state.Loaded = false
			state.Notice = model.Failure(msgFetchFailed)
		} else {
			state.Appointments = list
			state.Loaded = true
		}
	}

	view := state
	state.Notice = nil
	if err := s.save(ctx, sid, state); err != nil {
		return model.DashboardState{}, err
	}
	return view, nil
}

// Delete removes the appointment from the list only after the backend confirms
// it. The outcome is reported through the next notice; the returned error is
// about the state store only.
func (s *Service) Delete(ctx context.Context, sid string, sess model.Session, authToken, id string) error {
	state, err := s.load(ctx, sid, sess.UserName)
	if err != nil {
		return err
	}

	msg, err := s.appointments.Delete(ctx, authToken, id)
	if err != nil {
		log.Warn().Err(err).Str("appointment", id).Msg("failed to delete appointment")
		state.Notice = model.Failure(msgDeleteFailed)
	} else {
		if msg == "" {
			msg = msgDeleted
		}
		state.Remove(id)
		if state.Modal != nil && state.Modal.AppointmentID == id {
			state.Modal = nil
		}
		state.Notice = model.Success(msg)
	}

	return s.save(ctx, sid, state)
}

// OpenEdit opens (or keeps open) the edit modal for appointment id and loads
// the slots for the modal's date. A non-empty date moves the modal to that
// date first, dropping the selected slot.
func (s *Service) OpenEdit(ctx context.Context, sid string, sess model.Session, id, date string) (model.DashboardState, error) {
	state, err := s.load(ctx, sid, sess.UserName)
	if err != nil {
		return model.DashboardState{}, err
	}

	if state.Modal == nil || state.Modal.AppointmentID != id {
		appt, ok := state.Find(id)
		if !ok {
			return model.DashboardState{}, apperrors.NotFound("appointment", nil)
		}
		state.Modal = &model.EditModal{
			AppointmentID: appt.ID,
			DoctorID:      appt.Doctor.ID,
			DoctorName:    appt.Doctor.Name,
			Date:          model.NormalizeDate(appt.Date),
			Slot:          appt.TimeSlot,
		}
	}
	if date != "" {
		state.Modal.ChangeDate(date)
	}
	state.Modal.Error = ""

	if err := s.save(ctx, sid, state); err != nil {
		return model.DashboardState{}, err
	}
	return s.fetchOptions(ctx, sid, sess, *state.Modal)
}

func (s *Service) fetchOptions(ctx context.Context, sid string, sess model.Session, want model.EditModal) (model.DashboardState, error) {
	token, err := s.seq.Issue(ctx, reqseq.Key(sid, SlotsField))
	if err != nil {
		return model.DashboardState{}, err
	}
	doc, fetchErr := s.doctors.GetWithSlots(ctx, want.DoctorID, want.Date)

	var result model.DashboardState
	err = s.seq.Commit(ctx, token, func() error {
		current, err := s.load(ctx, sid, sess.UserName)
		if err != nil {
			return err
		}
		m := current.Modal
		if m == nil || m.AppointmentID != want.AppointmentID || m.Date != want.Date {
			return reqseq.ErrStale
		}

		if fetchErr != nil {
			log.Warn().Err(fetchErr).Str("doctor", want.DoctorID).Str("date", want.Date).Msg("failed to fetch slots")
			m.Options = nil
			m.Error = msgSlotsFailed
		} else {
			m.Options = doc.AvailableSlots
		}
		if m.Slot != "" && !m.CanSave() {
			m.Slot = ""
		}

		result = current
		return s.save(ctx, sid, current)
	})
	if errors.Is(err, reqseq.ErrStale) {
		s.metrics.Stale(SlotsField)
		return model.DashboardState{}, ErrStaleResponse
	}
	if err != nil {
		return model.DashboardState{}, err
	}
	return result, nil
}

// Save submits the modal. slot must be one of the options loaded for the
// modal's date. On failure the modal stays open with the error.
func (s *Service) Save(ctx context.Context, sid string, sess model.Session, authToken, id, date, slot string) (model.DashboardState, error) {
	state, err := s.load(ctx, sid, sess.UserName)
	if err != nil {
		return model.DashboardState{}, err
	}
	m := state.Modal
	if m == nil || m.AppointmentID != id {
		return state, apperrors.BadRequest("No appointment is being edited.", ErrNoModal)
	}

	m.Slot = slot
	m.Error = ""
	switch {
	case date != m.Date:
		m.Slot = ""
		m.Error = msgDateOutOfSync
	case !m.CanSave():
		m.Slot = ""
		m.Error = msgSlotRequired
	}
	if m.Error != "" {
		if err := s.save(ctx, sid, state); err != nil {
			return model.DashboardState{}, err
		}
		return state, apperrors.Validation(map[string]string{"slot": m.Error})
	}

	msg, err := s.appointments.Update(ctx, authToken, id, model.UpdateAppointmentRequest{Date: m.Date, TimeSlot: m.Slot})
	if err != nil {
		log.Warn().Err(err).Str("appointment", id).Msg("failed to update appointment")
		m.Error = msgUpdateFailed
		if saveErr := s.save(ctx, sid, state); saveErr != nil {
			return model.DashboardState{}, saveErr
		}
		return state, apperrors.BadRequest(msgUpdateFailed, err)
	}

	if msg == "" {
		msg = msgUpdated
	}
	state.Patch(id, m.Date, m.Slot)
	state.Modal = nil
	state.Notice = model.Success(msg)
	if err := s.save(ctx, sid, state); err != nil {
		return model.DashboardState{}, err
	}
	return state, nil
}

func (s *Service) CloseEdit(ctx context.Context, sid string, sess model.Session) error {
	state, err := s.load(ctx, sid, sess.UserName)
	if err != nil {
		return err
	}
	state.Modal = nil
	return s.save(ctx, sid, state)
}
