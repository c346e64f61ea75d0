// Package users keeps the till's staff accounts. Accounts are persisted
// alongside the ledger under the "users" key.
package users

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/ledger/internal/auth"
	"github.com/kiwari-pos/ledger/internal/enum"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidUser        = errors.New("invalid user")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLastAdmin          = errors.New("cannot remove the last admin")
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Directory is a concurrency-safe list of users.
type Directory struct {
	mu    sync.RWMutex
	users []User
}

func NewDirectory(users []User) *Directory {
	return &Directory{users: slices.Clone(users)}
}

// Create adds a user with a bcrypt-hashed password. Usernames are
// case-insensitive and stored lower-cased.
func (d *Directory) Create(username, fullName, password, role string) (User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	switch {
	case username == "":
		return User{}, fmt.Errorf("%w: username is required", ErrInvalidUser)
	case len(password) < 4:
		return User{}, fmt.Errorf("%w: password must be at least 4 characters", ErrInvalidUser)
	case !enum.IsUserRole(role):
		return User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, role)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.indexByName(username) >= 0 {
		return User{}, fmt.Errorf("%s: %w", username, ErrDuplicateUsername)
	}
	u := User{
		ID:           uuid.New(),
		Username:     username,
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	d.users = append(d.users, u)
	return u, nil
}

// EnsureAdmin creates an admin account when the directory is empty. It
// reports whether an account was created.
func (d *Directory) EnsureAdmin(username, password string) (bool, error) {
	if d.Len() > 0 {
		return false, nil
	}
	if _, err := d.Create(username, "Administrator", password, enum.UserRoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

// Authenticate returns the user whose credentials match.
func (d *Directory) Authenticate(username, password string) (User, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	d.mu.RLock()
	idx := d.indexByName(username)
	var u User
	if idx >= 0 {
		u = d.users[idx]
	}
	d.mu.RUnlock()

	if idx < 0 || !auth.CheckPassword(u.PasswordHash, password) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (d *Directory) Get(id uuid.UUID) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// Delete removes a user. The last remaining admin cannot be removed.
func (d *Directory) Delete(id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := slices.IndexFunc(d.users, func(u User) bool { return u.ID == id })
	if idx < 0 {
		return ErrNotFound
	}
	if d.users[idx].Role == enum.UserRoleAdmin && d.countRole(enum.UserRoleAdmin) == 1 {
		return ErrLastAdmin
	}
	d.users = slices.Delete(d.users, idx, idx+1)
	return nil
}

// List returns all users in creation order.
func (d *Directory) List() []User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.users)
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}

func (d *Directory) indexByName(username string) int {
	for i := range d.users {
		if d.users[i].Username == username {
			return i
		}
	}
	return -1
}

func (d *Directory) countRole(role string) int {
	n := 0
	for _, u := range d.users {
		if u.Role == role {
			n++
		}
	}
	return n
}
