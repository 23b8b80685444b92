package valueobject

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/domainerror"
)

const (
	// PasswordCost is the bcrypt work factor applied to new passwords.
	PasswordCost = 10

	// bcrypt ignores input past 72 bytes, so longer passwords are refused.
	PasswordMaxBytes = 72

	// PasswordSymbols is the accepted symbol set. Comma and pipe are left out
	// because they are separators in validator tags.
	PasswordSymbols = "!@#$%^&*()-_=+[]{};:'\".<>/?\\`~"
)

var ErrPasswordMismatch = errors.New("password does not match")

type passwordRule struct {
	tag    string
	reason string
}

// Checked in order; the first failing rule is reported.
var passwordRules = []passwordRule{
	{tag: "min=8", reason: "must be at least 8 characters long"},
	{tag: "containsany=ABCDEFGHIJKLMNOPQRSTUVWXYZ", reason: "must contain at least one uppercase letter"},
	{tag: "containsany=abcdefghijklmnopqrstuvwxyz", reason: "must contain at least one lowercase letter"},
	{tag: "containsany=0123456789", reason: "must contain at least one digit"},
	{tag: "containsany=" + PasswordSymbols, reason: "must contain at least one symbol of " + PasswordSymbols},
}

// Password holds a bcrypt digest. The plaintext is never retained.
type Password struct {
	hash string
}

// CreatePassword checks plain against the password policy and hashes it.
func CreatePassword(plain string) (Password, error) {
	if err := ValidatePassword(plain); err != nil {
		return Password{}, err
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return Password{}, err
	}
	return Password{hash: string(b)}, nil
}

// PasswordFromHash wraps an existing digest, e.g. when loading from storage.
func PasswordFromHash(hash string) (Password, error) {
	if hash == "" {
		return Password{}, domainerror.Validation("password_hash", "is required")
	}
	return Password{hash: hash}, nil
}

// ValidatePassword runs the policy without hashing.
func ValidatePassword(plain string) error {
	if plain == "" {
		return domainerror.Validation("password", "is required")
	}
	if len(plain) > PasswordMaxBytes {
		return domainerror.Validation("password", "must be at most 72 bytes long")
	}
	for _, r := range passwordRules {
		if err := validate.Var(plain, r.tag); err != nil {
			return domainerror.Validation("password", r.reason)
		}
	}
	return nil
}

func IsValidPassword(plain string) bool {
	return ValidatePassword(plain) == nil
}

// Compare returns nil on match, ErrPasswordMismatch on a wrong password, or the
// underlying bcrypt error for malformed digests.
func (p Password) Compare(plain string) error {
	if p.hash == "" {
		return ErrPasswordMismatch
	}
	err := bcrypt.CompareHashAndPassword([]byte(p.hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// Verify never fails loudly: any error is reported as a mismatch.
func (p Password) Verify(plain string) bool {
	return p.Compare(plain) == nil
}

func (p Password) Hash() string { return p.hash }

var (
	decoyOnce sync.Once
	decoy     Password
)

// DecoyPassword is a digest of a random-looking secret hashed at PasswordCost.
// Comparing against it costs the same as a real comparison, for login paths
// that have no stored password to check.
func DecoyPassword() Password {
	decoyOnce.Do(func() {
		b, err := bcrypt.GenerateFromPassword([]byte("decoy:7f3c1e9a-unused"), PasswordCost)
		if err == nil {
			decoy = Password{hash: string(b)}
		}
	})
	return decoy
}

// CompareDecoy burns one bcrypt comparison and always reports a mismatch.
func CompareDecoy(plain string) error {
	_ = DecoyPassword().Compare(plain)
	return ErrPasswordMismatch
}

func (p Password) IsZero() bool { return p.hash == "" }
