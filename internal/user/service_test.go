package user

import (
	"context"
	"errors"
	"testing"

	"overlaykit/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id int) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) SetLocked(ctx context.Context, id int, locked bool) (*User, error) {
	args := m.Called(ctx, id, locked)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id int, name, email, role string) (*User, error) {
	args := m.Called(ctx, id, name, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name          string
		req           RegisterRequest
		setupMock     func(*MockRepository)
		expectError   bool
		expectedError error
	}{
		{
			name: "successful registration",
			req: RegisterRequest{
				Name:     "Test User",
				Email:    "Test@Example.com",
				Password: "password123",
			},
			setupMock: func(m *MockRepository) {
				m.On("EmailExists", mock.Anything, "test@example.com").Return(false, nil)
				m.On("Create", mock.Anything, "Test User", "test@example.com", mock.Anything, RoleMember).Return(&User{
					ID:    1,
					Name:  "Test User",
					Email: "test@example.com",
					Role:  RoleMember,
				}, nil)
			},
			expectError: false,
		},
		{
			name: "email already exists",
			req: RegisterRequest{
				Name:     "Test User",
				Email:    "existing@example.com",
				Password: "password123",
			},
			setupMock: func(m *MockRepository) {
				m.On("EmailExists", mock.Anything, "existing@example.com").Return(true, nil)
			},
			expectError:   true,
			expectedError: ErrEmailExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			tt.setupMock(mockRepo)

			service := NewService(mockRepo, "test-secret")
			user, tokens, err := service.Register(context.Background(), tt.req)

			if tt.expectError {
				assert.Error(t, err)
				if tt.expectedError != nil {
					assert.Equal(t, tt.expectedError, err)
				}
				assert.Nil(t, user)
				assert.Nil(t, tokens)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				require.NotNil(t, tokens)
				assert.NotEmpty(t, tokens.AccessToken)
				assert.NotEmpty(t, tokens.RefreshToken)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestService_Login(t *testing.T) {
	passwordHash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	tests := []struct {
		name          string
		req           LoginRequest
		setupMock     func(*MockRepository)
		expectedError error
	}{
		{
			name: "successful login",
			req:  LoginRequest{Email: "test@example.com", Password: "password123"},
			setupMock: func(m *MockRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(&User{
					ID:           1,
					Email:        "test@example.com",
					PasswordHash: passwordHash,
					Role:         RoleMember,
				}, nil)
			},
		},
		{
			name: "user not found",
			req:  LoginRequest{Email: "notfound@example.com", Password: "password123"},
			setupMock: func(m *MockRepository) {
				m.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, ErrUserNotFound)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name: "wrong password",
			req:  LoginRequest{Email: "test@example.com", Password: "nope"},
			setupMock: func(m *MockRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(&User{ID: 1, PasswordHash: passwordHash}, nil)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name: "locked account",
			req:  LoginRequest{Email: "test@example.com", Password: "password123"},
			setupMock: func(m *MockRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(&User{ID: 1, PasswordHash: passwordHash, IsLocked: true}, nil)
			},
			expectedError: ErrUserLocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			tt.setupMock(mockRepo)

			service := NewService(mockRepo, "test-secret")
			user, tokens, err := service.Login(context.Background(), tt.req)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				assert.Nil(t, tokens)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				require.NotNil(t, tokens)
				assert.NotEmpty(t, tokens.AccessToken)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestService_GetByID(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("FindByID", mock.Anything, 1).Return(&User{
		ID:    1,
		Name:  "Test User",
		Email: "test@example.com",
		Role:  RoleMember,
	}, nil)

	service := NewService(mockRepo, "test-secret")
	user, err := service.GetByID(context.Background(), 1)

	assert.NoError(t, err)
	assert.NotNil(t, user)
	assert.Equal(t, 1, user.ID)
	mockRepo.AssertExpectations(t)
}

func TestService_RefreshToken_LockedUser(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("FindByID", mock.Anything, 1).Return(&User{ID: 1, Email: "a@example.com", IsLocked: true}, nil)

	tokens, err := auth.GenerateTokens(1, "a@example.com", RoleMember, "test-secret")
	require.NoError(t, err)

	service := NewService(mockRepo, "test-secret")
	_, _, err = service.RefreshToken(context.Background(), tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrUserLocked)
}

func TestService_Update_KeepsUnsetFields(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("FindByID", mock.Anything, 3).Return(&User{ID: 3, Name: "Old", Email: "old@example.com", Role: RoleMember}, nil)
	mockRepo.On("Update", mock.Anything, 3, "New", "old@example.com", RoleMember).Return(&User{ID: 3, Name: "New"}, nil)

	name := " New "
	service := NewService(mockRepo, "test-secret")
	u, err := service.Update(context.Background(), 3, UpdateRequest{Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "New", u.Name)
	mockRepo.AssertExpectations(t)
}

func TestService_Delete_NotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("Delete", mock.Anything, 9).Return(ErrUserNotFound)

	service := NewService(mockRepo, "test-secret")
	err := service.Delete(context.Background(), 9)
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestService_LookupPrincipal_ReadsStoredState(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("FindByID", mock.Anything, 4).Return(&User{ID: 4, Email: "ops@example.com", Role: RoleAdmin, IsLocked: true}, nil)
	mockRepo.On("FindByID", mock.Anything, 5).Return(nil, ErrUserNotFound)

	service := NewService(mockRepo, "test-secret")
	p, err := service.LookupPrincipal(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, auth.Principal{Email: "ops@example.com", Role: RoleAdmin, Locked: true}, *p)

	_, err = service.LookupPrincipal(context.Background(), 5)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_RegisterNeverGrantsAdmin(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("EmailExists", mock.Anything, "ops@example.com").Return(false, nil)
	mockRepo.On("Create", mock.Anything, "Mallory", "ops@example.com", mock.Anything, RoleMember).
		Return(&User{ID: 1, Name: "Mallory", Email: "ops@example.com", Role: RoleMember}, nil)

	service := NewService(mockRepo, "test-secret")
	u, _, err := service.Register(context.Background(), RegisterRequest{Name: "Mallory", Email: "OPS@example.com", Password: "password123"})

	require.NoError(t, err)
	assert.Equal(t, RoleMember, u.Role)
	mockRepo.AssertExpectations(t)
}

func TestService_GrantAdmin(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("FindByEmail", mock.Anything, "ops@example.com").Return(&User{ID: 2, Name: "Ops", Email: "ops@example.com", Role: RoleMember}, nil)
	mockRepo.On("Update", mock.Anything, 2, "Ops", "ops@example.com", RoleAdmin).Return(&User{ID: 2, Role: RoleAdmin}, nil)
	mockRepo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, ErrUserNotFound)

	service := NewService(mockRepo, "test-secret")
	u, err := service.GrantAdmin(context.Background(), " OPS@example.com ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)

	_, err = service.GrantAdmin(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	mockRepo.AssertExpectations(t)
}
