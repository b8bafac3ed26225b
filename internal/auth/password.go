package auth

import (
	"errors"
	"fmt"

	"github.com/rs/xid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used in production.
//
// Set cost so that hashing takes ~200–300ms on production hardware.
const DefaultCost = 12

// unusablePrefix marks a password hash that can never match any input.
// Accounts created through GitHub login get one.
const unusablePrefix = "!"

// ErrPasswordTooLong is returned by Hash for inputs bcrypt would truncate.
var ErrPasswordTooLong = errors.New("auth: password must be 72 bytes or fewer")

// PasswordService provides bcrypt hashing and verification.
//
// bcrypt generates a random salt per hash and embeds salt and cost in the
// output, so a single string column is enough to store it:
//
//	$2a$12$<22-char salt><31-char hash>
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given bcrypt cost.
// A zero cost selects DefaultCost. Tests pass bcrypt.MinCost (4) to keep
// hashing fast.
func NewPasswordService(cost int) *PasswordService {
	if cost == 0 {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// Returns ErrPasswordTooLong if the plaintext is longer than 72 bytes; bcrypt
// would otherwise silently ignore everything past that point.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Unusable returns a stored-password value that Verify always rejects.
func (p *PasswordService) Unusable() string {
	return unusablePrefix + xid.New().String()
}

// IsUsable reports whether hash was produced by Hash rather than Unusable.
func IsUsable(hash string) bool {
	return hash != "" && hash[:1] != unusablePrefix
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
//
// Returns nil if they match, a non-nil error if they don't. The comparison
// inside bcrypt is constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if !IsUsable(hash) {
		return fmt.Errorf("auth: account has no usable password")
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
