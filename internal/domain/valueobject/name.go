package valueobject

import (
	"strings"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/domainerror"
)

// NormalizeName trims name and checks it is 1-255 characters.
func NormalizeName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", domainerror.Validation("name", "is required")
	}
	if err := validate.Var(n, "max=255"); err != nil {
		return "", domainerror.Validation("name", "must be at most 255 characters long")
	}
	return n, nil
}
