package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/eventsphere/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
	"github.com/Shivanand-hulikatti/eventsphere/internal/repository"
)

// TokenIssuer signs a session token for an authenticated user.
type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// AccountDeleter removes an account together with its seats.
type AccountDeleter interface {
	CascadeDeleteForUser(ctx context.Context, userID string) (*model.User, int64, error)
}

// Session is a signed-in user and the token that proves it.
type Session struct {
	User  *model.User
	Token string
}

// UserService handles signup, login and account lookup.
type UserService struct {
	users   UserStore
	hasher  PasswordHasher
	tokens  TokenIssuer
	deleter AccountDeleter
	log     *zap.Logger

	clock func() time.Time
	newID func() string
}

// NewUserService constructs a UserService with its dependencies.
func NewUserService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, deleter AccountDeleter, log *zap.Logger) *UserService {
	return &UserService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		deleter: deleter,
		log:     log,
		clock:   utcNow,
		newID:   newID,
	}
}

// Signup creates a user account and signs it in.
func (s *UserService) Signup(ctx context.Context, req model.SignupRequest) (*Session, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if req.Name == "" {
		return nil, apperr.Invalid("name is required")
	}
	if req.Email == "" {
		return nil, apperr.Invalid("email is required")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	now := s.clock()
	user := &model.User{
		ID:           s.newID(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrEmailTaken
		}
		return nil, fmt.Errorf("signup: %w", err)
	}
	return s.session(user)
}

// Login checks the credentials and signs the user in. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrBadCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		return nil, apperr.ErrBadCredentials
	}
	return s.session(user)
}

// Me returns the live account behind userID.
func (s *UserService) Me(ctx context.Context, userID string) (*model.User, error) {
	if !validID(userID) {
		return nil, apperr.ErrUserNotFound
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.IsDeleted {
		return nil, apperr.ErrUserNotFound
	}
	return user, nil
}

// ListUsers returns one page of accounts, newest first.
func (s *UserService) ListUsers(ctx context.Context, page, limit int) (*model.UserPage, error) {
	page, limit = normalizePage(page, limit)
	users, total, err := s.users.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return &model.UserPage{Users: users, Pagination: model.NewPagination(page, limit, total)}, nil
}

// Delete soft-deletes the account and releases every seat it held.
func (s *UserService) Delete(ctx context.Context, userID string) (*model.User, error) {
	user, _, err := s.deleter.CascadeDeleteForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) session(user *model.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
