package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medbook-web/internal/model"
	sessionrepo "github.com/jwalitptl/medbook-web/internal/repository/session"
)

func TestSessionDefaultsAndSetters(t *testing.T) {
	ctx := context.Background()
	svc := NewService(sessionrepo.NewMemoryStore[model.Session](time.Hour, time.Hour), time.Hour, nil)

	sess, err := svc.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, model.Session{}, sess)
	assert.False(t, sess.Authenticated())

	require.NoError(t, svc.SetUserName(ctx, "sid", "alice"))
	require.NoError(t, svc.SetSelectedBookingDate(ctx, "sid", "2024-12-28"))

	sess, err = svc.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, model.Session{UserName: "alice", SelectedBookingDate: "2024-12-28"}, sess)

	other, err := svc.Get(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other.UserName)

	require.NoError(t, svc.Clear(ctx, "sid"))
	sess, err = svc.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, model.Session{}, sess)
}

func TestSessionLastWriteWins(t *testing.T) {
	ctx := context.Background()
	svc := NewService(sessionrepo.NewMemoryStore[model.Session](time.Hour, time.Hour), time.Hour, nil)

	require.NoError(t, svc.SetSelectedBookingDate(ctx, "sid", "2024-12-28"))
	require.NoError(t, svc.SetSelectedBookingDate(ctx, "sid", "2024-12-30"))

	sess, err := svc.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-30", sess.SelectedBookingDate)
}
