package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/datalens-ai/lens/internal/notify"
	"github.com/datalens-ai/lens/internal/repository"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Login(ctx context.Context, email, password string) (*TokenGrant, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TokenGrant), args.Error(1)
}

func (m *mockAPI) Register(ctx context.Context, email, password, locale string) error {
	return m.Called(ctx, email, password, locale).Error(0)
}

func (m *mockAPI) CurrentUser(ctx context.Context) (*User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockAPI) VerifyEmail(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAPI) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAPI) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

type memState struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemState() *memState {
	return &memState{m: make(map[string]string)}
}

func (s *memState) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (s *memState) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *memState) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *memState) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(api API) (*Service, *memState, *notify.Recorder) {
	state := newMemState()
	recorder := &notify.Recorder{}
	svc := NewService(api, NewTokens(state), state, nil, recorder, testLogger())
	return svc, state, recorder
}

func testUser(email string) *User {
	return &User{
		ID:         "u1",
		Email:      email,
		IsVerified: true,
		Status:     "ACTIVE",
		Locale:     "en",
		Roles:      []string{"user"},
		CreatedAt:  time.Now().UTC(),
	}
}

func TestLoginSuccess(t *testing.T) {
	api := &mockAPI{}
	svc, state, recorder := newTestService(api)

	user := testUser("a@b.c")
	api.On("Login", mock.Anything, "a@b.c", "secret").Return(&TokenGrant{
		AccessToken:  "t1",
		RefreshToken: "r1",
		TokenType:    "bearer",
		User:         user,
	}, nil)

	require.NoError(t, svc.Login(context.Background(), "a@b.c", "secret"))

	require.Equal(t, StateAuthenticated, svc.Status())
	require.True(t, svc.IsAuthenticated())
	require.Equal(t, "a@b.c", svc.CurrentUser().Email)

	access, _ := state.get("access_token")
	require.Equal(t, "t1", access)
	flag, _ := state.get("is_authenticated")
	require.Equal(t, "true", flag)
	_, hasUser := state.get("user")
	require.True(t, hasUser)

	require.Equal(t, []string{"Logged in successfully"}, recorder.Successes())
	api.AssertExpectations(t)
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	api := &mockAPI{}
	svc, state, recorder := newTestService(api)

	api.On("Login", mock.Anything, "a@b.c", "wrong").Return(nil, errors.New("invalid credentials"))

	require.Error(t, svc.Login(context.Background(), "a@b.c", "wrong"))

	require.Equal(t, StateAnonymous, svc.Status())
	require.False(t, svc.IsAuthenticated())
	require.Nil(t, svc.CurrentUser())
	_, hasToken := state.get("access_token")
	require.False(t, hasToken)
	require.Len(t, recorder.Errors(), 1)
}

func TestLoginEmptyInput(t *testing.T) {
	api := &mockAPI{}
	svc, _, _ := newTestService(api)

	require.ErrorIs(t, svc.Login(context.Background(), "", "secret"), ErrInvalidInput)
	require.ErrorIs(t, svc.Login(context.Background(), "a@b.c", ""), ErrInvalidInput)
	api.AssertNotCalled(t, "Login")
}

func TestLoginFetchesUserWhenGrantOmitsIt(t *testing.T) {
	api := &mockAPI{}
	svc, _, _ := newTestService(api)

	api.On("Login", mock.Anything, "a@b.c", "secret").Return(&TokenGrant{
		AccessToken:  "t1",
		RefreshToken: "r1",
	}, nil)
	api.On("CurrentUser", mock.Anything).Return(testUser("a@b.c"), nil)

	require.NoError(t, svc.Login(context.Background(), "a@b.c", "secret"))
	require.True(t, svc.IsAuthenticated())
	require.Equal(t, "a@b.c", svc.CurrentUser().Email)
	api.AssertExpectations(t)
}

func TestLoginProfileFetchFailureClearsSession(t *testing.T) {
	api := &mockAPI{}
	svc, state, _ := newTestService(api)

	api.On("Login", mock.Anything, "a@b.c", "secret").Return(&TokenGrant{
		AccessToken:  "t1",
		RefreshToken: "r1",
	}, nil)
	api.On("CurrentUser", mock.Anything).Return(nil, errors.New("boom"))

	require.Error(t, svc.Login(context.Background(), "a@b.c", "secret"))

	require.Equal(t, StateAnonymous, svc.Status())
	_, hasToken := state.get("access_token")
	require.False(t, hasToken)
}

func TestLogoutIsIdempotent(t *testing.T) {
	api := &mockAPI{}
	svc, state, recorder := newTestService(api)

	api.On("Login", mock.Anything, "a@b.c", "secret").Return(&TokenGrant{
		AccessToken:  "t1",
		RefreshToken: "r1",
		User:         testUser("a@b.c"),
	}, nil)
	require.NoError(t, svc.Login(context.Background(), "a@b.c", "secret"))

	require.NoError(t, svc.Logout(context.Background()))
	require.NoError(t, svc.Logout(context.Background()))

	require.Equal(t, StateAnonymous, svc.Status())
	require.Nil(t, svc.CurrentUser())
	for _, slot := range []string{"access_token", "refresh_token", "user", "is_authenticated"} {
		_, ok := state.get(slot)
		require.False(t, ok, "slot %q should be cleared", slot)
	}

	// Only the first logout notifies.
	require.Equal(t, []string{"Logged in successfully", "Logged out successfully"}, recorder.Successes())
}

func TestLoadRestoresPersistedSession(t *testing.T) {
	api := &mockAPI{}
	state := newMemState()
	require.NoError(t, state.Put(context.Background(), "access_token", "t1"))
	require.NoError(t, state.Put(context.Background(), "refresh_token", "r1"))
	require.NoError(t, state.Put(context.Background(), "is_authenticated", "true"))
	require.NoError(t, state.Put(context.Background(), "user", `{"id":"u1","email":"a@b.c"}`))

	svc := NewService(api, NewTokens(state), state, nil, &notify.Recorder{}, testLogger())
	require.NoError(t, svc.Load(context.Background()))

	require.True(t, svc.IsAuthenticated())
	require.Equal(t, "a@b.c", svc.CurrentUser().Email)
}

func TestLoadDiscardsIncompleteSession(t *testing.T) {
	api := &mockAPI{}
	state := newMemState()
	// Token survived but the user slot did not.
	require.NoError(t, state.Put(context.Background(), "access_token", "t1"))
	require.NoError(t, state.Put(context.Background(), "refresh_token", "r1"))

	svc := NewService(api, NewTokens(state), state, nil, &notify.Recorder{}, testLogger())
	require.NoError(t, svc.Load(context.Background()))

	require.Equal(t, StateAnonymous, svc.Status())
	_, hasToken := state.get("access_token")
	require.False(t, hasToken)
}

func TestRefreshUserFailureLogsOut(t *testing.T) {
	api := &mockAPI{}
	svc, state, _ := newTestService(api)

	api.On("Login", mock.Anything, "a@b.c", "secret").Return(&TokenGrant{
		AccessToken:  "t1",
		RefreshToken: "r1",
		User:         testUser("a@b.c"),
	}, nil)
	require.NoError(t, svc.Login(context.Background(), "a@b.c", "secret"))

	api.On("CurrentUser", mock.Anything).Return(nil, errors.New("boom"))
	require.Error(t, svc.RefreshUser(context.Background()))

	require.Equal(t, StateAnonymous, svc.Status())
	require.Nil(t, svc.CurrentUser())
	_, hasToken := state.get("access_token")
	require.False(t, hasToken)
}

func TestRefreshUserSharesOneFetch(t *testing.T) {
	api := &mockAPI{}
	svc, _, _ := newTestService(api)

	api.On("Login", mock.Anything, "a@b.c", "secret").Return(&TokenGrant{
		AccessToken:  "t1",
		RefreshToken: "r1",
		User:         testUser("a@b.c"),
	}, nil)
	require.NoError(t, svc.Login(context.Background(), "a@b.c", "secret"))

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	api.On("CurrentUser", mock.Anything).Run(func(mock.Arguments) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
	}).Return(testUser("a@b.c"), nil)

	const workers = 6
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.RefreshUser(context.Background())
		}()
	}

	<-entered
	// Give the remaining workers time to join the in-flight fetch.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, StateAuthenticated, svc.Status())
}

func TestSetTokenRevertsOnInvalidToken(t *testing.T) {
	api := &mockAPI{}
	svc, state, recorder := newTestService(api)

	api.On("CurrentUser", mock.Anything).Return(nil, errors.New("401"))

	require.Error(t, svc.SetToken(context.Background(), "t-bad"))

	require.Equal(t, StateAnonymous, svc.Status())
	_, hasToken := state.get("access_token")
	require.False(t, hasToken)
	require.Len(t, recorder.Errors(), 1)
}

func TestSetTokenValidates(t *testing.T) {
	api := &mockAPI{}
	svc, _, _ := newTestService(api)

	api.On("CurrentUser", mock.Anything).Return(testUser("a@b.c"), nil)

	require.NoError(t, svc.SetToken(context.Background(), "t-oauth"))
	require.True(t, svc.IsAuthenticated())
	require.Equal(t, "a@b.c", svc.CurrentUser().Email)
}

func TestExpireNotifiesOnce(t *testing.T) {
	api := &mockAPI{}
	svc, _, recorder := newTestService(api)

	api.On("Login", mock.Anything, "a@b.c", "secret").Return(&TokenGrant{
		AccessToken:  "t1",
		RefreshToken: "r1",
		User:         testUser("a@b.c"),
	}, nil)
	require.NoError(t, svc.Login(context.Background(), "a@b.c", "secret"))

	svc.Expire(context.Background())
	svc.Expire(context.Background())

	require.Equal(t, StateAnonymous, svc.Status())
	require.Equal(t, []string{"Your session has expired. Please sign in again."}, recorder.Errors())
}

func TestRegister(t *testing.T) {
	api := &mockAPI{}
	svc, _, recorder := newTestService(api)

	api.On("Register", mock.Anything, "a@b.c", "secret", "en").Return(nil)

	require.NoError(t, svc.Register(context.Background(), "a@b.c", "secret", ""))
	require.Equal(t, StateAnonymous, svc.Status())
	require.Len(t, recorder.Successes(), 1)
	api.AssertExpectations(t)
}
