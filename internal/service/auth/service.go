package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"tasktracker/internal/model"
	"tasktracker/internal/util"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("operation requires the manager role")
	ErrInvalidRole        = errors.New("unknown role")
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id int) (*model.User, error)
	UpdateRole(ctx context.Context, id int, role model.Role) error
	UpdateUsername(ctx context.Context, id int, username string) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}

// TokenDenylist holds revoked tokens until their natural expiry.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenHash string) bool
}

type Service struct {
	users     UserStore
	denylist  TokenDenylist
	jwtSecret string
}

func NewService(users UserStore, denylist TokenDenylist, jwtSecret string) *Service {
	return &Service{
		users:     users,
		denylist:  denylist,
		jwtSecret: jwtSecret,
	}
}

// Register creates a new user without a role. Roles are handed out by a
// manager afterwards.
func (s *Service) Register(ctx context.Context, username, password string) (*model.User, error) {
	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if !util.CheckPassword(password, u.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return util.GenerateJWT(u.ID, s.jwtSecret)
}

// Logout revokes the presented token until it would have expired.
func (s *Service) Logout(ctx context.Context, token string) error {
	_, expiresAt, err := util.ParseJWT(token, s.jwtSecret)
	if err != nil {
		// nothing to revoke for a token we would reject anyway
		return nil
	}
	return s.denylist.Revoke(ctx, util.TokenHash(token), expiresAt)
}

// UserByID returns a user by ID.
func (s *Service) UserByID(ctx context.Context, id int) (*model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ChangeRole assigns a role to a user. Managers only.
func (s *Service) ChangeRole(ctx context.Context, actorID, targetID int, role model.Role) error {
	if !model.ValidRole(role) {
		return ErrInvalidRole
	}
	if err := s.requireManager(ctx, actorID); err != nil {
		return err
	}
	if _, err := s.UserByID(ctx, targetID); err != nil {
		return err
	}
	return s.users.UpdateRole(ctx, targetID, role)
}

// ChangeUsername renames a user. Managers only; the new name must be free.
func (s *Service) ChangeUsername(ctx context.Context, actorID, targetID int, newUsername string) error {
	if err := s.requireManager(ctx, actorID); err != nil {
		return err
	}
	if _, err := s.UserByID(ctx, targetID); err != nil {
		return err
	}

	taken, err := s.users.FindByUsername(ctx, newUsername)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if taken != nil {
		return ErrUsernameTaken
	}
	return s.users.UpdateUsername(ctx, targetID, newUsername)
}

// ChangePassword sets a new password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, actorID int, current, next string) error {
	u, err := s.UserByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !util.CheckPassword(current, u.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := util.HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, actorID, hash)
}

func (s *Service) requireManager(ctx context.Context, actorID int) error {
	actor, err := s.UserByID(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.Role != model.RoleManager {
		return ErrForbidden
	}
	return nil
}
