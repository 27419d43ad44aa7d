// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"

	"github.com/dalemusser/bloodlink/internal/domain/models"
)

// Email trims and lower-cases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding space and collapses inner runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role trims and lower-cases a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// BloodType canonicalizes user input such as " ab+ " to "AB+".
// Unknown values are returned upper-cased so validation can reject them.
func BloodType(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

// Urgency trims and lower-cases an urgency level.
func Urgency(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Units parses a unit count from form or JSON string input (see
// models.ParseUnits).
func Units(s string) int {
	return models.ParseUnits(s)
}
