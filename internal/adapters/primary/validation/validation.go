package validation

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/lorrc/sales-analytics-backend/internal/core/errors"
)

// Reserved names that may not be requested as pivot columns.
const reservedCategory = "Total"

var datasetNameRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Validator collects field errors for a request.
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: apperrors.NewValidationErrors(),
	}
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the validation errors
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Err returns nil when nothing failed, otherwise an AppError carrying the
// failing fields under details.fields.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return apperrors.NewValidationError(apperrors.ErrBadRequest, "Invalid query parameters", map[string]interface{}{
		"fields": v.errors.Errors,
	})
}

// Required validates that a string is not empty
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors.Add(field, "This field is required")
	}
	return v
}

// DatasetName validates a kebab-case dataset route name.
func (v *Validator) DatasetName(field, value string) *Validator {
	if value != "" && !datasetNameRegex.MatchString(value) {
		v.errors.Add(field, "Must be a lowercase dataset name")
	}
	return v
}

// Min validates minimum integer value
func (v *Validator) Min(field string, value, min int) *Validator {
	if value < min {
		v.errors.Add(field, "Must be at least "+strconv.Itoa(min))
	}
	return v
}

// Max validates maximum integer value
func (v *Validator) Max(field string, value, max int) *Validator {
	if value > max {
		v.errors.Add(field, "Must be at most "+strconv.Itoa(max))
	}
	return v
}

// NotReserved rejects category names the pivot table uses for itself.
func (v *Validator) NotReserved(field string, values []string) *Validator {
	for _, value := range values {
		if value == reservedCategory {
			v.errors.Add(field, "\""+reservedCategory+"\" is reserved for the row total")
			return v
		}
	}
	return v
}

// Custom adds a custom validation
func (v *Validator) Custom(field string, valid bool, message string) *Validator {
	if !valid {
		v.errors.Add(field, message)
	}
	return v
}

// ParseCategories reads a comma-separated category list from the query.
// Entries are trimmed, empty entries and repeats dropped. A missing parameter
// yields nil so the caller falls back to the dataset's declared categories.
func ParseCategories(r *http.Request, key string) ([]string, error) {
	raw, ok := r.URL.Query()[key]
	if !ok {
		return nil, nil
	}

	seen := make(map[string]bool)
	var categories []string
	for _, part := range strings.Split(strings.Join(raw, ","), ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		categories = append(categories, name)
	}

	v := NewValidator()
	v.NotReserved(key, categories)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

// ParseLimit reads a non-negative integer limit. Zero means unlimited and is
// the default when the parameter is absent.
func ParseLimit(r *http.Request, key string, max int) (int, error) {
	valueStr := strings.TrimSpace(r.URL.Query().Get(key))
	if valueStr == "" {
		return 0, nil
	}

	v := NewValidator()
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		v.Custom(key, false, "Must be a whole number")
		return 0, v.Err()
	}

	v.Min(key, value, 0)
	if max > 0 {
		v.Max(key, value, max)
	}
	if err := v.Err(); err != nil {
		return 0, err
	}
	return value, nil
}
