package memstore

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/domains/user"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	return r.s.run(ctx, func() error {
		if _, ok := r.s.findUsername(u.Username); ok {
			return user.ErrUsernameTaken
		}
		r.s.users[u.ID] = *u
		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var found user.User
	err := r.s.run(ctx, func() error {
		u, ok := r.s.users[id]
		if !ok {
			return user.ErrUserNotFound
		}
		found = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	var found user.User
	err := r.s.run(ctx, func() error {
		u, ok := r.s.findUsername(username)
		if !ok {
			return user.ErrUserNotFound
		}
		found = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.s.run(ctx, func() error {
		_, exists = r.s.findUsername(username)
		return nil
	})
	return exists, err
}

// findUsername matches the way the users_username_key index does.
func (s *Store) findUsername(username string) (user.User, bool) {
	key := user.NormalizeUsername(username)
	for _, u := range s.users {
		if user.NormalizeUsername(u.Username) == key {
			return u, true
		}
	}
	return user.User{}, false
}
