package user

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"storefront/internal/app/session"
	"storefront/internal/presence"
	"storefront/internal/providers/redis"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

// consoleLogin is the shortcut login name accepted for the administrator
// outside production, mirroring the storefront's admin console.
const consoleLogin = "admin"

type Options struct {
	AdminName         string
	AdminEmail        string
	AdminPassword     string
	AllowConsoleLogin bool
	TouchInterval     time.Duration
	PasswordHashCost  int
}

type Service interface {
	Register(ctx context.Context, name, email, password string) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Logout(ctx context.Context, userID uint64) error
	GetProfile(ctx context.Context, userID uint64) (*Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	FindProfiles(ctx context.Context, ids []uint64) ([]Profile, error)
	Exists(ctx context.Context, userID uint64) (bool, error)
	TouchActivity(ctx context.Context, userID uint64) error
	EnsureAdministrator(ctx context.Context) (*User, error)
	AdministratorID() uint64
}

type service struct {
	repo       Repository
	sessionSvc session.Service
	redisP     *redis.RedisProvider
	logger     *zap.SugaredLogger
	opts       Options
	now        func() time.Time

	adminMu sync.RWMutex
	adminID uint64
}

func NewService(repo Repository, sessionSvc session.Service, redisP *redis.RedisProvider, logger *zap.Logger, opts Options) Service {
	if opts.PasswordHashCost == 0 {
		opts.PasswordHashCost = bcrypt.DefaultCost
	}
	return &service{
		repo:       repo,
		sessionSvc: sessionSvc,
		redisP:     redisP,
		logger:     logger.Sugar(),
		opts:       opts,
		now:        time.Now,
	}
}

func (s *service) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.PasswordHashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	u := &User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         RoleUser,
		Avatar:       avatarURL(name, "random"),
		LastActiveAt: &now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infow("User registered", "user_id", u.ID, "email", u.Email)
	return s.authResponse(u)
}

func (s *service) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	email = strings.TrimSpace(email)

	var u *User
	if s.opts.AllowConsoleLogin && email == consoleLogin && password == s.opts.AdminPassword {
		admin, err := s.administrator(ctx)
		if err != nil {
			return nil, err
		}
		u = admin
	} else {
		found, err := s.repo.FindByEmail(ctx, email)
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)); err != nil {
			return nil, ErrInvalidCredentials
		}
		u = found
	}

	now := s.now().UTC()
	if err := s.repo.UpdateLastActive(ctx, u.ID, now); err != nil {
		s.logger.Warnw("Failed to update last active on login", "user_id", u.ID, "error", err)
	} else {
		u.LastActiveAt = &now
	}

	s.logger.Infow("User logged in", "user_id", u.ID, "role", u.Role)
	return s.authResponse(u)
}

// Logout backdates last activity past the presence window so the user shows
// as offline immediately. The touch throttle is held for a full interval
// first so a request still in flight cannot mark the user online again.
func (s *service) Logout(ctx context.Context, userID uint64) error {
	if s.redisP != nil && s.opts.TouchInterval > 0 {
		if err := s.redisP.Set(ctx, touchKey(userID), 1, s.opts.TouchInterval); err != nil {
			s.logger.Warnw("Failed to hold presence throttle", "user_id", userID, "error", err)
		}
	}
	if err := s.repo.UpdateLastActive(ctx, userID, presence.OfflineAt(s.now())); err != nil {
		return fmt.Errorf("failed to mark user offline: %w", err)
	}
	return nil
}

func (s *service) GetProfile(ctx context.Context, userID uint64) (*Profile, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := u.Profile(s.now())
	return &p, nil
}

func (s *service) ListProfiles(ctx context.Context) ([]Profile, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return s.profiles(users), nil
}

func (s *service) FindProfiles(ctx context.Context, ids []uint64) ([]Profile, error) {
	users, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	return s.profiles(users), nil
}

func (s *service) Exists(ctx context.Context, userID uint64) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	_, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TouchActivity records authenticated activity. With redis available, writes
// are throttled to one per TouchInterval per user.
func (s *service) TouchActivity(ctx context.Context, userID uint64) error {
	if s.redisP != nil && s.opts.TouchInterval > 0 {
		acquired, err := s.redisP.SetNX(ctx, touchKey(userID), 1, s.opts.TouchInterval)
		if err == nil && !acquired {
			return nil
		}
		if err != nil {
			s.logger.Debugw("Presence throttle unavailable, writing through", "user_id", userID, "error", err)
		}
	}
	return s.repo.UpdateLastActive(ctx, userID, s.now())
}

// EnsureAdministrator finds any admin account or creates the configured one,
// and remembers its id as the administrator placeholder for chat grouping.
func (s *service) EnsureAdministrator(ctx context.Context) (*User, error) {
	admin, err := s.repo.FindFirstByRole(ctx, RoleAdmin)
	if errors.Is(err, ErrUserNotFound) {
		admin, err = s.createAdministrator(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve administrator: %w", err)
	}

	s.adminMu.Lock()
	s.adminID = admin.ID
	s.adminMu.Unlock()

	s.logger.Infow("Administrator resolved", "user_id", admin.ID, "email", admin.Email)
	return admin, nil
}

func (s *service) AdministratorID() uint64 {
	s.adminMu.RLock()
	defer s.adminMu.RUnlock()
	return s.adminID
}

func (s *service) createAdministrator(ctx context.Context) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(s.opts.AdminPassword), s.opts.PasswordHashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &User{
		Name:         s.opts.AdminName,
		Email:        strings.ToLower(s.opts.AdminEmail),
		PasswordHash: string(hash),
		Role:         RoleAdmin,
		Avatar:       avatarURL("Admin", "000000") + "&color=ffffff",
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, err
	}
	s.logger.Infow("Administrator account created", "user_id", admin.ID)
	return admin, nil
}

func (s *service) administrator(ctx context.Context) (*User, error) {
	id := s.AdministratorID()
	if id == 0 {
		return s.EnsureAdministrator(ctx)
	}
	admin, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return s.EnsureAdministrator(ctx)
	}
	return admin, err
}

func (s *service) authResponse(u *User) (*AuthResponse, error) {
	token, err := s.sessionSvc.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: u.Profile(s.now())}, nil
}

func (s *service) profiles(users []User) []Profile {
	now := s.now()
	out := make([]Profile, 0, len(users))
	for i := range users {
		out = append(out, users[i].Profile(now))
	}
	return out
}

func touchKey(userID uint64) string {
	return fmt.Sprintf("presence:touch:%d", userID)
}

func avatarURL(name, background string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=" + background
}
