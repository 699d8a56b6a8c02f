package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vibast-solutions/ms-go-reports/app/entity"
)

var ErrDuplicateEmail = errors.New("email already registered")

// UserDirectory is the in-memory user store, keyed by canonical email.
// Lookups by id are a linear scan; the directory is small by design and all
// state is process-lifetime.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[string]*entity.User
	seq   int
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{users: make(map[string]*entity.User)}
}

// Create assigns the user a fresh id and inserts it under its canonical
// email. Returns ErrDuplicateEmail when the key is taken.
func (d *UserDirectory) Create(_ context.Context, user *entity.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[user.CanonicalEmail]; ok {
		return ErrDuplicateEmail
	}

	user.ID = fmt.Sprintf("user_%d", d.seq)
	d.seq++

	stored := *user
	d.users[user.CanonicalEmail] = &stored
	return nil
}

func (d *UserDirectory) FindByCanonicalEmail(_ context.Context, canonicalEmail string) (*entity.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[canonicalEmail]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (d *UserDirectory) FindByID(_ context.Context, id string) (*entity.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, user := range d.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

// Update overwrites the record with the given id. When the canonical email
// changed, the directory entry is re-keyed: the old key is removed and the
// record inserted under the new one. Returns ErrDuplicateEmail when the new
// key belongs to a different user.
func (d *UserDirectory) Update(_ context.Context, user *entity.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var oldKey string
	for key, existing := range d.users {
		if existing.ID == user.ID {
			oldKey = key
			break
		}
	}
	if oldKey == "" {
		return errors.New("user not found")
	}

	if user.CanonicalEmail != oldKey {
		if _, taken := d.users[user.CanonicalEmail]; taken {
			return ErrDuplicateEmail
		}
		delete(d.users, oldKey)
	}

	stored := *user
	d.users[user.CanonicalEmail] = &stored
	return nil
}
