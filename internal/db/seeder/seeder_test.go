package seeder

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/app/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockUserService struct {
	user.Service
	mock.Mock
}

func (m *MockUserService) EnsureAdministrator(ctx context.Context) (*user.User, error) {
	args := m.Called(ctx)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) Register(ctx context.Context, name, email, password string) (*user.AuthResponse, error) {
	args := m.Called(ctx, name, email, password)
	if resp, ok := args.Get(0).(*user.AuthResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSeedCreatesAdministratorAndDemoCustomer(t *testing.T) {
	ctx := context.Background()
	svc := new(MockUserService)
	svc.On("EnsureAdministrator", ctx).Return(&user.User{ID: 1, Email: "admin@store.com"}, nil)
	svc.On("Register", ctx, DemoCustomerName, DemoCustomerEmail, DemoCustomerPassword).Return(&user.AuthResponse{}, nil)

	assert.NoError(t, NewSeeder(svc, zap.NewNop()).Seed(ctx))
	svc.AssertExpectations(t)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := new(MockUserService)
	svc.On("EnsureAdministrator", ctx).Return(&user.User{ID: 1}, nil)
	svc.On("Register", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil, user.ErrUserExists)

	assert.NoError(t, NewSeeder(svc, zap.NewNop()).Seed(ctx))
}

func TestSeedStopsWhenAdministratorFails(t *testing.T) {
	ctx := context.Background()
	svc := new(MockUserService)
	svc.On("EnsureAdministrator", ctx).Return(nil, errors.New("db down"))

	assert.Error(t, NewSeeder(svc, zap.NewNop()).Seed(ctx))
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
