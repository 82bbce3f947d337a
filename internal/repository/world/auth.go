package worldrepo

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

func (s *Store) byEmail(email string) (account, bool) {
	email = strings.TrimSpace(email)
	for _, a := range s.users.all() {
		if strings.EqualFold(a.Email, email) {
			return a, true
		}
	}
	return account{}, false
}

// Authenticate checks email and password. Any mismatch yields
// ErrBadCredentials so callers cannot tell which part was wrong.
func (s *Store) Authenticate(_ context.Context, email, password string) (sdk.User, error) {
	s.mu.RLock()
	a, ok := s.byEmail(email)
	s.mu.RUnlock()
	if !ok {
		return sdk.User{}, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(password)) != nil {
		return sdk.User{}, ErrBadCredentials
	}
	return a.public(), nil
}

// UserByID returns the public view of user id.
func (s *Store) UserByID(ctx context.Context, id string) (sdk.User, error) {
	return s.Users().Get(ctx, id)
}

// Register creates a RegisteredUser account.
func (s *Store) Register(_ context.Context, req sdk.RegisterRequest) (sdk.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail(req.Email); taken {
		return sdk.User{}, sdk.Errorf(sdk.ErrDuplicate, "The email %s is already registered.", strings.TrimSpace(req.Email))
	}
	return s.createUser(sdk.User{Name: req.Name, Email: req.Email, Password: req.Password, Roles: []string{sdk.RoleRegisteredUser}})
}

// EmailTaken reports whether an account uses email.
func (s *Store) EmailTaken(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail(email)
	return ok, nil
}
