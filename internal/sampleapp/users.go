package sampleapp

import (
	"context"
	"sync"

	"velkro/platform/apperr"

	"golang.org/x/crypto/bcrypt"
)

// User is a stored account. Only Profile is ever returned to clients.
type User struct {
	ID           string
	Email        string
	Firstname    string
	passwordHash []byte
}

// Profile is the public view of a user.
type Profile struct {
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
}

// Profile returns the public view of u.
func (u *User) Profile() Profile {
	return Profile{Email: u.Email, Firstname: u.Firstname}
}

// Users is an in-memory user store.
type Users struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]*User
}

// NewUsers creates an empty store.
func NewUsers() *Users {
	return &Users{
		byID:    make(map[string]*User),
		byEmail: make(map[string]*User),
	}
}

// NewDemoUsers returns a store holding the demo account 123 / foo@foo.com / bar.
func NewDemoUsers() (*Users, error) {
	users := NewUsers()
	if err := users.Add("123", "foo@foo.com", "bar", "bar"); err != nil {
		return nil, err
	}
	return users, nil
}

// Add stores a user with a bcrypt hash of password.
func (s *Users) Add(id, email, firstname, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return apperr.WrapInternal("password-hash-failed", "", err).WithOp("users.Add")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := &User{ID: id, Email: email, Firstname: firstname, passwordHash: hash}
	s.byID[id] = u
	s.byEmail[email] = u
	return nil
}

// Find returns the user with the given id.
func (s *Users) Find(ctx context.Context, id string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, apperr.Internal("user-not-found", "user not found")
	}
	return u, nil
}

// Authenticate returns the id of the user matching email and password.
func (s *Users) Authenticate(ctx context.Context, email, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	u, ok := s.byEmail[email]
	s.mu.RUnlock()
	if !ok {
		return "", apperr.Internal("incorrect-password", "")
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return "", apperr.WrapInternal("incorrect-password", "", err)
	}
	return u.ID, nil
}
