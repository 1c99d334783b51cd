package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/internal/models"
	appErrors "github.com/noah-isme/lakeview-records-api/pkg/errors"
)

func newSessionServiceFixture() (*SessionService, *mockSessionStore) {
	store := newMockSessionStore()
	svc := NewSessionService(store, disabledCache(), nil, zap.NewNop())
	return svc, store
}

func TestParseSessionName(t *testing.T) {
	start, end, err := ParseSessionName("2024/2025")
	require.NoError(t, err)
	assert.Equal(t, 2024, start)
	assert.Equal(t, 2025, end)

	_, _, err = ParseSessionName("2024-2025")
	assert.Error(t, err)

	_, _, err = ParseSessionName("2024/2026")
	assert.Error(t, err)

	_, _, err = ParseSessionName("abcd/2025")
	assert.Error(t, err)
}

func TestSessionServiceCreateDefaults(t *testing.T) {
	svc, _ := newSessionServiceFixture()

	session, err := svc.Create(context.Background(), CreateSessionRequest{Name: "2025/2026"})
	require.NoError(t, err)

	assert.Equal(t, 2025, session.StartYear)
	assert.Equal(t, 2026, session.EndYear)
	assert.Equal(t, models.SessionTypeRegular, session.Type)
	assert.Equal(t, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), session.StartDate)
	assert.Equal(t, time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC), session.EndDate)
	assert.Equal(t, session.StartDate.AddDate(0, 0, 14), session.RegistrationDeadline)
	assert.False(t, session.IsActive)
}

func TestSessionServiceCreateRejectsDuplicateName(t *testing.T) {
	svc, store := newSessionServiceFixture()
	store.sessions["sess-1"] = &models.AcademicSession{ID: "sess-1", Name: "2025/2026"}

	_, err := svc.Create(context.Background(), CreateSessionRequest{Name: "2025/2026"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceCreateActivateDeactivatesOthers(t *testing.T) {
	svc, store := newSessionServiceFixture()
	store.sessions["sess-old"] = &models.AcademicSession{ID: "sess-old", Name: "2024/2025", IsActive: true}

	session, err := svc.Create(context.Background(), CreateSessionRequest{Name: "2025/2026", Activate: true})
	require.NoError(t, err)
	assert.True(t, session.IsActive)
	assert.False(t, store.sessions["sess-old"].IsActive)

	active, err := svc.GetActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025/2026", active.Name)
}

func TestSessionServiceSetActiveUnknownSession(t *testing.T) {
	svc, _ := newSessionServiceFixture()

	err := svc.SetActive(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceGetActiveRequiresOne(t *testing.T) {
	svc, _ := newSessionServiceFixture()

	_, err := svc.GetActive(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoActiveSession.Code, appErrors.FromError(err).Code)
}
