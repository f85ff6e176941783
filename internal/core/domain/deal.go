package domain

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/lorrc/sales-analytics-backend/internal/core/errors"
)

// DealRecord is one row of a deal dataset: the won opportunities and their
// annual contract value for a (quarter, category) pair.
//
// Quarter labels must sort chronologically under plain string comparison
// ("2023-Q1" < "2023-Q2" < "2024-Q1"). Every quarter axis in the analytics
// package relies on this. "Total" is reserved for synthesized pivot totals and
// is rejected as a quarter or category label.
type DealRecord struct {
	Count    int64   `json:"count" validate:"gte=0"`
	ACV      float64 `json:"acv" validate:"finite,gte=0"`
	Quarter  string  `json:"closed_fiscal_quarter" validate:"required,ne=Total"`
	Category string  `json:"category" validate:"required,ne=Total"`
}

var recordValidator = newRecordValidator()

func newRecordValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}); err != nil {
		panic(fmt.Sprintf("register finite validation: %v", err))
	}

	// Report JSON names so errors line up with the source files. The category
	// key is renamed per dataset in PartitionRecords.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return v
}

// Validate checks a single record.
func (r DealRecord) Validate() error {
	return recordValidator.Struct(r)
}

// ValidateRecords validates every record and returns *errors.ValidationErrors
// keyed by record index, or nil when all records are usable.
func ValidateRecords(records []DealRecord) error {
	_, errs := PartitionRecords(records, "")
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// PartitionRecords splits records into the valid ones, in input order, and the
// validation errors of the rest. Category errors are keyed by categoryField,
// the dataset's JSON key for the category, when it is set.
func PartitionRecords(records []DealRecord, categoryField string) ([]DealRecord, *apperrors.ValidationErrors) {
	errs := apperrors.NewValidationErrors()
	valid := make([]DealRecord, 0, len(records))

	for i, rec := range records {
		err := rec.Validate()
		if err == nil {
			valid = append(valid, rec)
			continue
		}

		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			errs.AddRecord(i, "record", err.Error())
			continue
		}
		for _, fe := range fieldErrs {
			field := fe.Field()
			if field == categoryKey && categoryField != "" {
				field = categoryField
			}
			errs.AddRecord(i, field, fieldMessage(fe, field))
		}
	}

	return valid, errs
}

const categoryKey = "category"

func fieldMessage(fe validator.FieldError, field string) string {
	switch {
	case fe.Tag() == "ne":
		return fmt.Sprintf("%s must not be the reserved label %q", field, fe.Param())
	case fe.Field() == "count":
		return apperrors.ErrNegativeCount.Error()
	case fe.Field() == "acv":
		return apperrors.ErrInvalidACV.Error()
	case fe.Field() == "closed_fiscal_quarter":
		return apperrors.ErrQuarterRequired.Error()
	case fe.Field() == categoryKey:
		if field != categoryKey {
			return field + " is required"
		}
		return apperrors.ErrCategoryMissing.Error()
	default:
		return fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
	}
}
