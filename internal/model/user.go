// Package model defines the data structures used throughout the application.
package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// User represents a registered account.
//
// Email is the login identifier and is unique across all users. The domain
// part is stored lowercased (see NormalizeEmail); the local part keeps the
// casing the user registered with.
//
// PasswordHash is a bcrypt hash and is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"isActive"`
	IsStaff      bool      `json:"isStaff"`
	IsSuperuser  bool      `json:"isSuperuser"`
	CreatedAt    time.Time `json:"createdAt"`
}

// String returns the user's email.
func (u User) String() string {
	return u.Email
}

// NormalizeEmail lowercases the domain portion of an email address.
//
//	"Someone@GMAIL.COM" → "Someone@gmail.com"
//
// Input without an "@" is returned unchanged; validating the address is the
// caller's job.
//
// WHY SPLIT ON THE LAST "@"?
// A domain can never contain "@", but a quoted local part can
// ("a@b"@example.com). Splitting on the first "@" would lowercase part of the
// mailbox name, which the receiving server is allowed to treat as
// case-sensitive. Everything after the last "@" is always the domain.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + cases.Lower(language.Und).String(email[at+1:])
}
