package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medbook-web/internal/model"
	sessionrepo "github.com/jwalitptl/medbook-web/internal/repository/session"
	"github.com/jwalitptl/medbook-web/internal/service/session"
	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
	"github.com/jwalitptl/medbook-web/pkg/reqseq"
)

type slotCall struct{ id, date string }

type fakeDoctorRepo struct {
	calls  []slotCall
	slots  map[string][]string
	err    error
	during func(date string)
}

func (f *fakeDoctorRepo) ListAvailable(context.Context, string) ([]model.Doctor, error) {
	return nil, errors.New("not used")
}

func (f *fakeDoctorRepo) GetWithSlots(_ context.Context, id, date string) (*model.Doctor, error) {
	f.calls = append(f.calls, slotCall{id, date})
	if f.during != nil {
		hook := f.during
		f.during = nil
		hook(date)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.Doctor{ID: id, Name: "Dr. Smith", AvailableSlots: f.slots[date]}, nil
}

type fakeAppointmentRepo struct {
	created []model.CreateAppointmentRequest
	err     error
}

func (f *fakeAppointmentRepo) Create(_ context.Context, _ string, req model.CreateAppointmentRequest) error {
	f.created = append(f.created, req)
	return f.err
}

func (f *fakeAppointmentRepo) ListByUser(context.Context, string, string) ([]model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) Delete(context.Context, string, string) (string, error) {
	return "", nil
}

func (f *fakeAppointmentRepo) Update(context.Context, string, string, model.UpdateAppointmentRequest) (string, error) {
	return "", nil
}

type fixture struct {
	svc      *Service
	doctors  *fakeDoctorRepo
	appts    *fakeAppointmentRepo
	sessions *session.Service
}

func newFixture() *fixture {
	doctors := &fakeDoctorRepo{slots: map[string][]string{
		"2024-12-28": {"09:00", "09:30"},
		"2024-12-29": {"10:00"},
	}}
	appts := &fakeAppointmentRepo{}
	sessions := session.NewService(sessionrepo.NewMemoryStore[model.Session](time.Hour, time.Hour), time.Hour, nil)
	svc := NewService(doctors, appts, sessionrepo.NewMemoryStore[model.BookingState](time.Hour, time.Hour),
		sessions, reqseq.New(time.Hour), time.UTC, time.Hour, nil)
	return &fixture{svc: svc, doctors: doctors, appts: appts, sessions: sessions}
}

var alice = model.Session{UserName: "alice", SelectedBookingDate: "2024-12-28"}

func TestOpenUsesSelectedBookingDate(t *testing.T) {
	f := newFixture()

	state, err := f.svc.Open(context.Background(), "sid", alice, "d1", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-28", state.Date)
	assert.Equal(t, []string{"09:00", "09:30"}, state.Slots)
	assert.Equal(t, []slotCall{{"d1", "2024-12-28"}}, f.doctors.calls)
}

func TestOpenFollowsNewHandOffDate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// the form for d1 on the 28th is left behind
	state, err := f.svc.Open(ctx, "sid", alice, "d1", "")
	require.NoError(t, err)
	require.Equal(t, "2024-12-28", state.Date)

	// back on the doctor list the user picks the 29th and books d1 again
	require.NoError(t, f.sessions.SetSelectedBookingDate(ctx, "sid", "2024-12-29"))
	sess, err := f.sessions.Get(ctx, "sid")
	require.NoError(t, err)
	sess.UserName = "alice"

	f.doctors.calls = nil
	state, err = f.svc.Open(ctx, "sid", sess, "d1", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-29", state.Date)
	assert.Equal(t, []string{"10:00"}, state.Slots)
	assert.Equal(t, []slotCall{{"d1", "2024-12-29"}}, f.doctors.calls)

	_, err = f.svc.Book(ctx, "sid", sess, "tok", "2024-12-29", "10:00")
	require.NoError(t, err)
	require.Len(t, f.appts.created, 1)
	assert.Equal(t, "2024-12-29", f.appts.created[0].Date)
}

func TestOpenKeepsFormAfterOwnDateChange(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Open(ctx, "sid", alice, "d1", "2024-12-29")
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, "sid", alice, "tok", "", "10:00")
	require.Error(t, err)

	// the next page load carries the date the form itself wrote to the session
	moved := model.Session{UserName: "alice", SelectedBookingDate: "2024-12-29"}
	state, err := f.svc.Open(ctx, "sid", moved, "d1", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-29", state.Date)
	assert.Equal(t, "10:00", state.Slot)
	assert.Empty(t, f.appts.created)
}

func TestOpenWithoutSessionDateUsesToday(t *testing.T) {
	f := newFixture()
	f.svc.location = time.FixedZone("IST", 5*3600+1800)
	f.svc.now = func() time.Time { return time.Date(2024, 12, 27, 20, 0, 0, 0, time.UTC) }

	state, err := f.svc.Open(context.Background(), "sid", model.Session{UserName: "alice"}, "d1", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-28", state.Date)
	assert.Equal(t, []string{"09:00", "09:30"}, state.Slots)
	assert.Equal(t, []slotCall{{"d1", "2024-12-28"}}, f.doctors.calls)
}

func TestOpenUnauthenticatedSkipsFetch(t *testing.T) {
	f := newFixture()

	state, err := f.svc.Open(context.Background(), "sid", model.Session{SelectedBookingDate: "2024-12-28"}, "d1", "")
	require.NoError(t, err)
	assert.Empty(t, state.Slots)
	assert.Empty(t, f.doctors.calls)
}

func TestChangeDateClearsSlotAndFetchesOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Open(ctx, "sid", alice, "d1", "")
	require.NoError(t, err)
	f.appts.err = errors.New("down")
	state, err := f.svc.Book(ctx, "sid", alice, "tok", "2024-12-28", "09:00")
	require.Error(t, err)
	require.Equal(t, "09:00", state.Slot)

	f.doctors.calls = nil
	state, err = f.svc.Open(ctx, "sid", alice, "d1", "2024-12-29")
	require.NoError(t, err)
	assert.Empty(t, state.Slot)
	assert.Equal(t, []string{"10:00"}, state.Slots)
	assert.Equal(t, []slotCall{{"d1", "2024-12-29"}}, f.doctors.calls)

	sess, err := f.sessions.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-29", sess.SelectedBookingDate)
}

func TestStaleSlotResponseIsDiscarded(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.doctors.during = func(string) {
		_, err := f.svc.Open(ctx, "sid", alice, "d1", "2024-12-29")
		require.NoError(t, err)
	}

	_, err := f.svc.Open(ctx, "sid", alice, "d1", "2024-12-28")
	assert.ErrorIs(t, err, ErrStaleResponse)

	state, err := f.svc.State(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-29", state.Date)
	assert.Equal(t, []string{"10:00"}, state.Slots)
}

func TestFetchFailure(t *testing.T) {
	f := newFixture()
	f.doctors.err = errors.New("down")

	state, err := f.svc.Open(context.Background(), "sid", alice, "d1", "")
	require.NoError(t, err)
	assert.Equal(t, msgFetchFailed, state.Error)
	assert.Empty(t, state.Slots)
}

func TestBook(t *testing.T) {
	t.Run("requires an offered slot", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()
		_, err := f.svc.Open(ctx, "sid", alice, "d1", "")
		require.NoError(t, err)

		_, err = f.svc.Book(ctx, "sid", alice, "tok", "2024-12-28", "")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrValidation))

		_, err = f.svc.Book(ctx, "sid", alice, "tok", "2024-12-28", "10:00")
		assert.Contains(t, apperrors.FieldsOf(err), "slot")
		assert.Empty(t, f.appts.created)
	})

	t.Run("success sends the session user", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()
		_, err := f.svc.Open(ctx, "sid", alice, "d1", "")
		require.NoError(t, err)

		_, err = f.svc.Book(ctx, "sid", alice, "tok", "2024-12-28", "09:30")
		require.NoError(t, err)
		require.Len(t, f.appts.created, 1)
		assert.Equal(t, model.CreateAppointmentRequest{DoctorID: "d1", PatientName: "alice", Date: "2024-12-28", TimeSlot: "09:30"}, f.appts.created[0])

		state, err := f.svc.State(ctx, "sid")
		require.NoError(t, err)
		assert.Empty(t, state.DoctorID)
	})

	t.Run("failure keeps the form", func(t *testing.T) {
		f := newFixture()
		f.appts.err = apperrors.Rejected("slot taken")
		ctx := context.Background()
		_, err := f.svc.Open(ctx, "sid", alice, "d1", "")
		require.NoError(t, err)

		state, err := f.svc.Book(ctx, "sid", alice, "tok", "2024-12-28", "09:00")
		assert.ErrorIs(t, err, ErrBookingFailed)
		assert.Equal(t, msgBookingFailed, state.Error)
		assert.Equal(t, "09:00", state.Slot)
	})
}
