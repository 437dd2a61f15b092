// Package users stores accounts in the "users" collection. Password hashes stay inside the
// package; callers only ever see PublicUser values.
package users

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"readify-backend/internal/shared/storage/kv"
)

// CollectionKey is the KV key holding every user.
const CollectionKey = "users"

// Service contains business logic for users.
type Service struct {
	users    *kv.Collection[User]
	validate *validator.Validate
	log      *zap.Logger
	cost     int
	now      func() time.Time
	newID    func() string

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService builds a user service. A nil validator or logger gets a default; a cost outside
// bcrypt's range falls back to bcrypt.DefaultCost.
func NewService(users *kv.Collection[User], validate *validator.Validate, log *zap.Logger, cost int) *Service {
	if validate == nil {
		validate = validator.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		users:    users,
		validate: validate,
		log:      log,
		cost:     cost,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// List returns every user, newest first.
func (s *Service) List(ctx context.Context) ([]PublicUser, error) {
	items, err := s.users.Load(ctx)
	if err != nil {
		return nil, err
	}
	all := make([]User, 0, len(items))
	for _, u := range items {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	out := make([]PublicUser, len(all))
	for i, u := range all {
		out[i] = u.Public()
	}
	return out, nil
}

// GetByID returns one user.
func (s *Service) GetByID(ctx context.Context, id string) (PublicUser, error) {
	items, err := s.users.Load(ctx)
	if err != nil {
		return PublicUser{}, err
	}
	u, ok := items[id]
	if !ok {
		return PublicUser{}, ErrNotFound
	}
	return u.Public(), nil
}

// GetByEmail finds a user by email, ignoring case and surrounding space.
func (s *Service) GetByEmail(ctx context.Context, email string) (PublicUser, error) {
	u, err := s.findByEmail(ctx, email)
	if err != nil {
		return PublicUser{}, err
	}
	return u.Public(), nil
}

// Create validates the input, hashes the password and stores the user.
func (s *Service) Create(ctx context.Context, in CreateUserInput) (PublicUser, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return PublicUser{}, validationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return PublicUser{}, err
	}
	user := User{
		ID:           s.newID(),
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}

	err = s.users.Mutate(ctx, func(items map[string]User) (bool, error) {
		if emailTaken(items, user.Email, "") {
			return false, ErrEmailTaken
		}
		items[user.ID] = user
		return true, nil
	})
	if err != nil {
		return PublicUser{}, err
	}
	s.log.Info("user created", zap.String("user_id", user.ID), zap.String("email", user.Email), zap.String("role", user.Role))
	return user.Public(), nil
}

// Update merges the set fields into the user. A new password is hashed before the merge.
func (s *Service) Update(ctx context.Context, id string, in UpdateUserInput) (PublicUser, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		in.Email = &email
	}
	if err := s.validate.Struct(in); err != nil {
		return PublicUser{}, validationError(err)
	}

	var hash string
	if in.Password != nil {
		h, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.cost)
		if err != nil {
			return PublicUser{}, err
		}
		hash = string(h)
	}

	var updated User
	err := s.users.Mutate(ctx, func(items map[string]User) (bool, error) {
		u, ok := items[id]
		if !ok {
			return false, ErrNotFound
		}
		if in.Email != nil && emailTaken(items, *in.Email, id) {
			return false, ErrEmailTaken
		}
		if in.Name != nil {
			u.Name = *in.Name
		}
		if in.Email != nil {
			u.Email = *in.Email
		}
		if in.Role != nil {
			u.Role = *in.Role
		}
		if hash != "" {
			u.PasswordHash = hash
		}
		updated = u
		if in.empty() {
			return false, nil
		}
		items[id] = u
		return true, nil
	})
	if err != nil {
		return PublicUser{}, err
	}
	s.log.Info("user updated", zap.String("user_id", id), zap.Bool("password_changed", in.Password != nil))
	return updated.Public(), nil
}

// Delete removes the user. Deleting an absent user is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.users.Mutate(ctx, func(items map[string]User) (bool, error) {
		if _, ok := items[id]; !ok {
			return false, nil
		}
		delete(items, id)
		return true, nil
	})
	if err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("user_id", id))
	return nil
}

// DeleteAs deletes id on behalf of actorID, refusing to let an account delete itself.
func (s *Service) DeleteAs(ctx context.Context, actorID, id string) error {
	if actorID != "" && actorID == id {
		return ErrSelfDelete
	}
	return s.Delete(ctx, id)
}

// ChangePassword replaces the password after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	items, err := s.users.Load(ctx)
	if err != nil {
		return err
	}
	u, ok := items[userID]
	if !ok {
		return ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}
	_, err = s.Update(ctx, userID, UpdateUserInput{Password: &newPassword})
	if errors.Is(err, ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// Authenticate checks an email and password pair. Unknown emails and wrong passwords both
// yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (PublicUser, error) {
	u, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return PublicUser{}, ErrInvalidCredentials
	}
	if err != nil {
		return PublicUser{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.log.Info("authentication rejected", zap.String("user_id", u.ID))
		return PublicUser{}, ErrInvalidCredentials
	}
	return u.Public(), nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return User{}, ErrNotFound
	}
	items, err := s.users.Load(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range items {
		if normalizeEmail(u.Email) == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// dummy returns a hash at the service cost so unknown emails take as long as wrong passwords.
func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.cost)
	})
	return s.dummyHash
}

func emailTaken(items map[string]User, email, exceptID string) bool {
	for id, u := range items {
		if id != exceptID && normalizeEmail(u.Email) == email {
			return true
		}
	}
	return false
}
