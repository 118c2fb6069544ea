package users

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-lite/internal/shared"
)

const ownerID = "b7e2d9c4-3a1f-4c6e-9d8b-2f5a7c1e0b93"

type memoryRepo struct {
	users  map[string]*User
	hashes map[string]string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]*User), hashes: make(map[string]string)}
}

func (m *memoryRepo) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memoryRepo) GetProfile(ctx context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *memoryRepo) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	u.FullName = in.FullName
	u.Phone = in.Phone
	u.UpdatedAt = time.Now()
	out := *u
	return &out, nil
}

func (m *memoryRepo) PasswordHash(ctx context.Context, id string) (string, error) {
	hash, ok := m.hashes[id]
	if !ok {
		return "", shared.ErrNotFound
	}
	return hash, nil
}

func (m *memoryRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if _, ok := m.hashes[id]; !ok {
		return shared.ErrNotFound
	}
	m.hashes[id] = hash
	return nil
}

func seededService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	repo.users[ownerID] = &User{ID: ownerID, Email: "owner@test.local", FullName: "Owner", IsActive: true}
	hash, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.hashes[ownerID] = string(hash)
	svc := NewService(repo)
	svc.cost = bcrypt.MinCost
	return svc, repo
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := seededService(t)

	profile, err := svc.UpdateProfile(context.Background(), ownerID, ProfileUpdate{FullName: "  Owner Two ", Phone: "+6281234567890"})
	require.NoError(t, err)
	assert.Equal(t, "Owner Two", profile.FullName)
	assert.Equal(t, "+6281234567890", profile.Phone)
}

func TestUpdateProfileValidation(t *testing.T) {
	svc, repo := seededService(t)

	cases := []ProfileUpdate{
		{FullName: "   "},
		{FullName: "Owner", Phone: "0812-not-e164"},
		{FullName: string(make([]byte, 121))},
	}
	for _, in := range cases {
		_, err := svc.UpdateProfile(context.Background(), ownerID, in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Equal(t, "Owner", repo.users[ownerID].FullName)
}

func TestChangePassword(t *testing.T) {
	svc, repo := seededService(t)

	err := svc.ChangePassword(context.Background(), ownerID, PasswordChange{CurrentPassword: "old-password", NewPassword: "new-password"})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[ownerID]), []byte("new-password")))
}

func TestChangePasswordRejects(t *testing.T) {
	svc, repo := seededService(t)
	before := repo.hashes[ownerID]

	err := svc.ChangePassword(context.Background(), ownerID, PasswordChange{CurrentPassword: "wrong-password", NewPassword: "new-password"})
	assert.ErrorIs(t, err, ErrInvalidPassword)

	err = svc.ChangePassword(context.Background(), ownerID, PasswordChange{CurrentPassword: "old-password", NewPassword: "old-password"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = svc.ChangePassword(context.Background(), ownerID, PasswordChange{CurrentPassword: "old-password", NewPassword: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, before, repo.hashes[ownerID])
}

func TestChangePasswordRejectsOverlongPassword(t *testing.T) {
	svc, repo := seededService(t)
	before := repo.hashes[ownerID]

	err := svc.ChangePassword(context.Background(), ownerID, PasswordChange{CurrentPassword: "old-password", NewPassword: strings.Repeat("a", 80)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// 30 runes but 90 bytes.
	err = svc.ChangePassword(context.Background(), ownerID, PasswordChange{CurrentPassword: "old-password", NewPassword: strings.Repeat("€", 30)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, before, repo.hashes[ownerID])
}

func TestChangePasswordUnknownUser(t *testing.T) {
	svc, _ := seededService(t)

	err := svc.ChangePassword(context.Background(), "missing", PasswordChange{CurrentPassword: "old-password", NewPassword: "new-password"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
