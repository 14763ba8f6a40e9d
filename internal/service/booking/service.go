package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medbook-web/internal/model"
	"github.com/jwalitptl/medbook-web/internal/repository"
	"github.com/jwalitptl/medbook-web/internal/service/session"
	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
	"github.com/jwalitptl/medbook-web/pkg/metrics"
	"github.com/jwalitptl/medbook-web/pkg/reqseq"
)

const (
	SlotsField = "booking.slots"

	msgFetchFailed   = "Failed to fetch doctor details. Please try again."
	msgBookingFailed = "Failed to book the appointment. Please try again with different date."
)

var (
	// ErrStaleResponse is returned when a newer slot request for the same
	// session superseded this one. The stored state is left to the newer request.
	ErrStaleResponse = errors.New("slot response superseded by a newer request")
	ErrBookingFailed = errors.New("booking failed")
)

type Service struct {
	doctors      repository.DoctorRepository
	appointments repository.AppointmentRepository
	states       repository.Store[model.BookingState]
	sessions     *session.Service
	seq          *reqseq.Sequencer
	location     *time.Location
	now          func() time.Time
	ttl          time.Duration
	metrics      *metrics.Metrics
}

func NewService(
	doctors repository.DoctorRepository,
	appointments repository.AppointmentRepository,
	states repository.Store[model.BookingState],
	sessions *session.Service,
	seq *reqseq.Sequencer,
	location *time.Location,
	ttl time.Duration,
	m *metrics.Metrics,
) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{
		doctors:      doctors,
		appointments: appointments,
		states:       states,
		sessions:     sessions,
		seq:          seq,
		location:     location,
		now:          time.Now,
		ttl:          ttl,
		metrics:      m,
	}
}

func stateKey(sid string) string {
	return "booking:" + sid
}

// State returns the stored form of the session without fetching anything.
func (s *Service) State(ctx context.Context, sid string) (model.BookingState, error) {
	state, _, err := s.states.Get(ctx, stateKey(sid))
	if err != nil {
		return model.BookingState{}, fmt.Errorf("failed to load booking state: %w", err)
	}
	return state, nil
}

func (s *Service) save(ctx context.Context, sid string, state model.BookingState) error {
	if err := s.states.Set(ctx, stateKey(sid), state, s.ttl); err != nil {
		return fmt.Errorf("failed to save booking state: %w", err)
	}
	return nil
}

func (s *Service) today() string {
	return model.FormatDate(s.now().In(s.location))
}

// Open loads the booking form for doctorID and fetches that doctor's slots
// for the form's date. A stored form is reused only for the same doctor and
// the same Session.SelectedBookingDate; otherwise it starts over from the
// session date, or today when the session has none. date overrides the form's
// date when set and is written back to Session.SelectedBookingDate. Every call
// makes exactly one slot fetch when the session is authenticated and none
// otherwise.
func (s *Service) Open(ctx context.Context, sid string, sess model.Session, doctorID, date string) (model.BookingState, error) {
	state, err := s.State(ctx, sid)
	if err != nil {
		return model.BookingState{}, err
	}
	if state.DoctorID != doctorID || state.SessionDate != sess.SelectedBookingDate {
		state = model.BookingState{DoctorID: doctorID, SessionDate: sess.SelectedBookingDate}
	}
	if state.Date == "" {
		state.Date = sess.SelectedBookingDate
	}
	if state.Date == "" {
		state.Date = s.today()
	}

	if date != "" {
		state.ChangeDate(date)
		if date != sess.SelectedBookingDate {
			if err := s.sessions.SetSelectedBookingDate(ctx, sid, date); err != nil {
				return model.BookingState{}, err
			}
		}
		state.SessionDate = date
	}
	state.Error = ""

	if !sess.Authenticated() {
		state.Slots = nil
		state.Slot = ""
		return state, s.save(ctx, sid, state)
	}

	if err := s.save(ctx, sid, state); err != nil {
		return model.BookingState{}, err
	}
	return s.fetchSlots(ctx, sid, state)
}

func (s *Service) fetchSlots(ctx context.Context, sid string, want model.BookingState) (model.BookingState, error) {
	token, err := s.seq.Issue(ctx, reqseq.Key(sid, SlotsField))
	if err != nil {
		return model.BookingState{}, err
	}
	doc, fetchErr := s.doctors.GetWithSlots(ctx, want.DoctorID, want.Date)

	var result model.BookingState
	err = s.seq.Commit(ctx, token, func() error {
		current, err := s.State(ctx, sid)
		if err != nil {
			return err
		}
		if current.DoctorID != want.DoctorID || current.Date != want.Date {
			return reqseq.ErrStale
		}

		if fetchErr != nil {
			log.Warn().Err(fetchErr).Str("doctor", want.DoctorID).Str("date", want.Date).Msg("failed to fetch slots")
			current.Slots = nil
			current.Error = msgFetchFailed
		} else {
			current.Doctor = doc
			current.Slots = doc.AvailableSlots
			current.Error = ""
		}
		if current.Slot != "" && !current.Offers(current.Slot) {
			current.Slot = ""
		}

		result = current
		return s.save(ctx, sid, current)
	})
	if errors.Is(err, reqseq.ErrStale) {
		s.metrics.Stale(SlotsField)
		return model.BookingState{}, ErrStaleResponse
	}
	if err != nil {
		return model.BookingState{}, err
	}
	return result, nil
}

// Book submits the selected slot. The slot must be one of the slots loaded
// for date; otherwise nothing is sent to the backend.
func (s *Service) Book(ctx context.Context, sid string, sess model.Session, authToken, date, slot string) (model.BookingState, error) {
	state, err := s.State(ctx, sid)
	if err != nil {
		return model.BookingState{}, err
	}
	state.Slot = slot
	state.Error = ""

	fields := map[string]string{}
	switch {
	case date == "":
		fields["date"] = "Please select a date."
	case date != state.Date:
		fields["date"] = "Check the available slots for the new date first."
	}
	switch {
	case slot == "":
		fields["slot"] = "Please select a time slot."
	case !state.Offers(slot):
		fields["slot"] = "The selected time slot is not available on this date."
		state.Slot = ""
	}
	if len(fields) > 0 {
		if err := s.save(ctx, sid, state); err != nil {
			return model.BookingState{}, err
		}
		return state, apperrors.Validation(fields)
	}

	err = s.appointments.Create(ctx, authToken, model.CreateAppointmentRequest{
		DoctorID:    state.DoctorID,
		PatientName: sess.UserName,
		Date:        state.Date,
		TimeSlot:    state.Slot,
	})
	if err != nil {
		log.Warn().Err(err).Str("doctor", state.DoctorID).Str("date", state.Date).Msg("booking failed")
		state.Error = msgBookingFailed
		if saveErr := s.save(ctx, sid, state); saveErr != nil {
			return model.BookingState{}, saveErr
		}
		return state, apperrors.BadRequest(msgBookingFailed, fmt.Errorf("%w: %v", ErrBookingFailed, err))
	}

	log.Info().Str("doctor", state.DoctorID).Str("date", state.Date).Str("slot", state.Slot).Msg("appointment booked")
	if err := s.states.Delete(ctx, stateKey(sid)); err != nil {
		log.Warn().Err(err).Msg("failed to clear booking state")
	}
	return state, nil
}
