package mocks

import (
	"errors"
	"strings"
	"sync"
)

// ErrPasswordMismatch is returned by MockPasswordHasher.Compare on mismatch.
var ErrPasswordMismatch = errors.New("password mismatch")

// MockPasswordHasher implements auth.PasswordHasher without bcrypt's cost.
// Hashes are the password prefixed with "hashed:".
type MockPasswordHasher struct {
	mu sync.Mutex

	// HashErr, when set, is returned by Hash
	HashErr error

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

// Hash implements the auth.PasswordHasher interface
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	if m.HashErr != nil {
		return "", m.HashErr
	}
	return "hashed:" + password, nil
}

// Compare implements the auth.PasswordHasher interface
func (m *MockPasswordHasher) Compare(hashedPassword, password string) error {
	m.mu.Lock()
	m.CompareCallCount++
	m.mu.Unlock()

	if strings.TrimPrefix(hashedPassword, "hashed:") == password && strings.HasPrefix(hashedPassword, "hashed:") {
		return nil
	}
	return ErrPasswordMismatch
}
