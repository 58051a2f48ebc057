package auth

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/dental-api/internal/config"
	"github.com/jwalitptl/dental-api/internal/model"
	"github.com/jwalitptl/dental-api/pkg/security"
)

// Directory checks credentials and returns the matching session.
type Directory interface {
	Verify(email, password string) (model.Session, bool)
}

type account struct {
	session      model.Session
	passwordHash string
}

// StaticDirectory is a fixed set of accounts held in memory.
type StaticDirectory struct {
	hasher   security.PasswordHasher
	accounts map[string]account
	// dummy is compared against for unknown emails so both paths cost a hash.
	dummy string
}

// NewStaticDirectory builds the directory from configuration. Plaintext
// passwords are hashed here and never kept.
func NewStaticDirectory(accounts []config.AccountConfig, hasher security.PasswordHasher) (*StaticDirectory, error) {
	d := &StaticDirectory{hasher: hasher, accounts: make(map[string]account, len(accounts))}

	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}
	d.dummy = dummy

	for i, a := range accounts {
		email := normalizeEmail(a.Email)
		if email == "" {
			return nil, fmt.Errorf("account %d: email is required", i)
		}
		if _, dup := d.accounts[email]; dup {
			return nil, fmt.Errorf("account %d: duplicate email %s", i, email)
		}
		role, err := model.ParseRole(a.Role)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", email, err)
		}

		hash := a.PasswordHash
		if hash == "" {
			if hash, err = hasher.Hash(a.Password); err != nil {
				return nil, fmt.Errorf("account %s: %w", email, err)
			}
		}

		d.accounts[email] = account{
			session:      model.Session{ID: a.ID, Email: email, Name: a.Name, Role: role},
			passwordHash: hash,
		}
	}
	return d, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (d *StaticDirectory) Verify(email, password string) (model.Session, bool) {
	a, ok := d.accounts[normalizeEmail(email)]
	if !ok {
		_ = d.hasher.Compare(d.dummy, password)
		return model.Session{}, false
	}
	if err := d.hasher.Compare(a.passwordHash, password); err != nil {
		return model.Session{}, false
	}
	return a.session, true
}

// Len reports how many accounts the directory holds.
func (d *StaticDirectory) Len() int {
	return len(d.accounts)
}
