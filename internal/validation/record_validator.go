package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	apperrors "dogwrangle/internal/errors"
	"dogwrangle/pkg/contracts/domain"
)

// maxReportedViolations bounds the violations kept in an error
const maxReportedViolations = 20

// Violation is one broken invariant of one master row
type Violation struct {
	PostID  int64  `json:"post_id"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("post %d: %s", v.PostID, v.Message)
}

// RecordValidator checks master rows against the struct tags on
// domain.MasterRecord and the table-level key uniqueness rule
type RecordValidator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewRecordValidator creates a validator with the custom tags registered
func NewRecordValidator(logger *slog.Logger) *RecordValidator {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	// Register custom validators
	v.RegisterValidation("capitalized", isCapitalized)

	return &RecordValidator{validate: v, logger: logger}
}

// ValidateRecord returns the violations of a single row
func (r *RecordValidator) ValidateRecord(rec domain.MasterRecord) []Violation {
	err := r.validate.Struct(rec)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Violation{{PostID: rec.PostID, Message: err.Error()}}
	}

	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, Violation{
			PostID:  rec.PostID,
			Field:   fe.Field(),
			Message: formatViolation(fe),
		})
	}
	return violations
}

// ValidateTable checks every row and that post_id is unique. The returned
// error is a VALIDATION AppError; the slice holds at most
// maxReportedViolations entries.
func (r *RecordValidator) ValidateTable(table domain.Table[domain.MasterRecord]) ([]Violation, error) {
	var (
		violations []Violation
		total      int
	)
	add := func(v ...Violation) {
		total += len(v)
		for _, one := range v {
			if len(violations) < maxReportedViolations {
				violations = append(violations, one)
			}
		}
	}

	seen := make(map[int64]struct{}, table.Len())
	for _, rec := range table.Rows {
		add(r.ValidateRecord(rec)...)
		if _, dup := seen[rec.PostID]; dup {
			add(Violation{PostID: rec.PostID, Field: "PostID", Message: "post_id is not unique"})
		}
		seen[rec.PostID] = struct{}{}
	}

	if total == 0 {
		r.logger.Debug("Master table validated", slog.Int("rows", table.Len()))
		return nil, nil
	}

	for _, v := range violations {
		r.logger.Error("Master row violates invariant",
			slog.Int64("post_id", v.PostID),
			slog.String("field", v.Field),
			slog.String("message", v.Message))
	}

	messages := make([]string, 0, len(violations))
	for _, v := range violations {
		messages = append(messages, v.String())
	}
	err := apperrors.NewValidationError(
		fmt.Sprintf("%d invariant violations in %s", total, table.Name),
		errors.New(strings.Join(messages, "; "))).
		WithContext("violations", total)
	return violations, err
}

// formatViolation formats validation error messages
func formatViolation(err validator.FieldError) string {
	field := err.Field()
	tag := err.Tag()
	param := err.Param()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "eq":
		return fmt.Sprintf("%s must equal %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "capitalized":
		return fmt.Sprintf("%s must start with an upper-case letter", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}

// isCapitalized accepts strings whose first rune is not a lower-case letter
func isCapitalized(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	r, _ := utf8.DecodeRuneInString(s)
	return s == "" || !unicode.IsLower(r)
}
