package valueobject

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/domainerror"
)

// validate is shared by every value object; validator caches parsed tags and
// is safe for concurrent use.
var validate = validator.New()

// Email is a normalised (trimmed, lower-cased) email address.
type Email struct {
	value string
}

func NewEmail(raw string) (Email, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return Email{}, domainerror.Validation("email", "is required")
	}
	if err := validate.Var(v, "email,max=320"); err != nil {
		return Email{}, domainerror.Validation("email", "must be a valid email")
	}
	return Email{value: v}, nil
}

// NormalizeEmail applies the same normalisation as NewEmail without validating.
// Repositories use it for case-insensitive lookups.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (e Email) String() string { return e.value }

func (e Email) Equals(other Email) bool { return e.value == other.value }

func (e Email) IsZero() bool { return e.value == "" }
