package wizard

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eventdraw/drawbot/internal/domain"
	"github.com/eventdraw/drawbot/internal/participant"
)

// MockParticipantService
type MockParticipantService struct {
	mock.Mock
}

func (m *MockParticipantService) Register(ctx context.Context, eventID uuid.UUID, reg participant.Registration) (*domain.Participant, error) {
	args := m.Called(ctx, eventID, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Participant), args.Error(1)
}

func (m *MockParticipantService) List(ctx context.Context, eventID uuid.UUID) ([]domain.Participant, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Participant), args.Error(1)
}

func (m *MockParticipantService) FindByShortID(ctx context.Context, shortID int) (*domain.Participant, error) {
	args := m.Called(ctx, shortID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Participant), args.Error(1)
}

func (m *MockParticipantService) FindByPlatformID(ctx context.Context, eventID uuid.UUID, platform, platformID string) (*domain.Participant, error) {
	args := m.Called(ctx, eventID, platform, platformID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Participant), args.Error(1)
}

func (m *MockParticipantService) ClaimPrize(ctx context.Context, eventID uuid.UUID, shortID int) (*domain.WinnerInfo, error) {
	args := m.Called(ctx, eventID, shortID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WinnerInfo), args.Error(1)
}

func startSession(t *testing.T, svc *MockParticipantService) (*Wizard, uuid.UUID) {
	t.Helper()
	eventID := uuid.New()
	svc.On("FindByPlatformID", mock.Anything, eventID, "discord", "42").
		Return(nil, domain.ErrContactNotFound)

	w := New(svc)
	prompt, err := w.Start(context.Background(), eventID, "discord", "42", "ada")
	require.NoError(t, err)
	require.Contains(t, prompt, "last name")
	return w, eventID
}

func TestWizardFullRegistration(t *testing.T) {
	svc := new(MockParticipantService)
	w, eventID := startSession(t, svc)

	svc.On("Register", mock.Anything, eventID, participant.Registration{
		Platform:    "discord",
		PlatformID:  "42",
		DisplayName: "ada",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		PhoneNumber: "+15550100",
	}).Return(&domain.Participant{ShortID: 123456}, nil)

	ctx := context.Background()

	reply, done, err := w.Input(ctx, "discord", "42", "Lovelace")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Contains(t, reply, "first name")

	reply, done, err = w.Input(ctx, "discord", "42", "Ada")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Contains(t, reply, "phone")

	reply, done, err = w.Input(ctx, "discord", "42", "+15550100")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Contains(t, reply, "Ada Lovelace")

	reply, done, err = w.Input(ctx, "discord", "42", "yes")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Contains(t, reply, "123456")

	assert.False(t, w.Active("discord", "42"), "session must be closed after enrollment")
}

func TestWizardRejectsBadPhone(t *testing.T) {
	svc := new(MockParticipantService)
	w, _ := startSession(t, svc)
	ctx := context.Background()

	_, _, err := w.Input(ctx, "discord", "42", "Lovelace")
	require.NoError(t, err)
	_, _, err = w.Input(ctx, "discord", "42", "Ada")
	require.NoError(t, err)

	reply, done, err := w.Input(ctx, "discord", "42", "call me maybe")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Contains(t, reply, "phone number")

	// The step does not advance; a valid number is still accepted
	reply, done, err = w.Input(ctx, "discord", "42", "+15550100")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Contains(t, reply, "confirm")
}

func TestWizardDecliningConfirmationRestarts(t *testing.T) {
	svc := new(MockParticipantService)
	w, _ := startSession(t, svc)
	ctx := context.Background()

	for _, input := range []string{"Lovelace", "Ada", "+15550100"} {
		_, _, err := w.Input(ctx, "discord", "42", input)
		require.NoError(t, err)
	}

	reply, done, err := w.Input(ctx, "discord", "42", "no")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Contains(t, reply, "last name")

	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
	assert.True(t, w.Active("discord", "42"))
}

func TestWizardCancel(t *testing.T) {
	svc := new(MockParticipantService)
	w, _ := startSession(t, svc)

	reply, ok := w.Cancel("discord", "42")
	assert.True(t, ok)
	assert.Contains(t, reply, "cancelled")
	assert.False(t, w.Active("discord", "42"))

	_, ok = w.Cancel("discord", "42")
	assert.False(t, ok, "second cancel finds nothing")
}

func TestWizardInputWithoutSession(t *testing.T) {
	w := New(new(MockParticipantService))

	_, _, err := w.Input(context.Background(), "discord", "42", "hello")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestWizardStartForRegisteredContact(t *testing.T) {
	svc := new(MockParticipantService)
	eventID := uuid.New()
	svc.On("FindByPlatformID", mock.Anything, eventID, "discord", "42").
		Return(&domain.Participant{ShortID: 654321}, nil)

	w := New(svc)
	reply, err := w.Start(context.Background(), eventID, "discord", "42", "ada")
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	assert.Contains(t, reply, "654321")
	assert.False(t, w.Active("discord", "42"))
}

func TestWizardDuplicateDetectedAtConfirm(t *testing.T) {
	svc := new(MockParticipantService)
	w, eventID := startSession(t, svc)
	ctx := context.Background()

	// Someone registered through another channel mid-session
	svc.On("Register", mock.Anything, eventID, mock.Anything).
		Return(nil, domain.ErrAlreadyRegistered)

	for _, input := range []string{"Lovelace", "Ada", "+15550100"} {
		_, _, err := w.Input(ctx, "discord", "42", input)
		require.NoError(t, err)
	}

	reply, done, err := w.Input(ctx, "discord", "42", "yes")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Contains(t, reply, "already registered")
}

func TestWizardConcurrentInputsSerialize(t *testing.T) {
	svc := new(MockParticipantService)
	w, _ := startSession(t, svc)
	ctx := context.Background()

	// Chat transports deliver each message on its own goroutine; two
	// quick messages must land as two consecutive steps, in some order,
	// never both in the same field.
	replies := make([]string, 2)
	var wg sync.WaitGroup
	for i, msg := range []string{"Lovelace", "Ada"} {
		wg.Add(1)
		go func(i int, msg string) {
			defer wg.Done()
			reply, _, err := w.Input(ctx, "discord", "42", msg)
			require.NoError(t, err)
			replies[i] = reply
		}(i, msg)
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{promptFirstName, promptPhone}, replies)

	w.mu.Lock()
	s := w.sessions[sessionKey("discord", "42")]
	w.mu.Unlock()
	require.NotNil(t, s)
	assert.Equal(t, StepPhone, s.step)
	assert.ElementsMatch(t, []string{"Lovelace", "Ada"}, []string{s.reg.LastName, s.reg.FirstName})
}

func TestWizardSessionsAreIndependent(t *testing.T) {
	svc := new(MockParticipantService)
	eventID := uuid.New()
	svc.On("FindByPlatformID", mock.Anything, eventID, "discord", mock.Anything).
		Return(nil, domain.ErrContactNotFound)

	w := New(svc)
	ctx := context.Background()

	_, err := w.Start(ctx, eventID, "discord", "1", "a")
	require.NoError(t, err)
	_, err = w.Start(ctx, eventID, "discord", "2", "b")
	require.NoError(t, err)

	_, _, err = w.Input(ctx, "discord", "1", "Hopper")
	require.NoError(t, err)

	// Contact 2 is still on the first question
	reply, _, err := w.Input(ctx, "discord", "2", "Curie")
	require.NoError(t, err)
	assert.Contains(t, reply, "first name")
}
