package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Sentinel kinds. Handlers map them to HTTP status codes.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrBusinessRule     = errors.New("business rule violation")
)

// Rule identifiers reported by RuleViolation
const (
	RuleReviewDailyLimit      = "review.daily_limit"
	RuleReviewDeleted         = "review.deleted"
	RuleReviewAlreadyDeleted  = "review.already_deleted"
	RulePostDeleted           = "post.deleted"
	RulePostAlreadyDeleted    = "post.already_deleted"
	RuleCommentDeleted        = "comment.deleted"
	RuleCommentAlreadyDeleted = "comment.already_deleted"
)

// RuleViolation is a well-formed request that breaks a domain rule
type RuleViolation struct {
	Rule    string
	Message string
}

func (e *RuleViolation) Error() string {
	return e.Message
}

func (e *RuleViolation) Is(target error) bool {
	return target == ErrBusinessRule
}

// NotFound reports a missing entity, e.g. NotFound("shop", 3)
func NotFound(entity string, key any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, entity, key)
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func PermissionDenied(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, fmt.Sprintf(format, args...))
}

func Violation(rule, message string) error {
	return &RuleViolation{Rule: rule, Message: message}
}

// notFoundOr converts gorm.ErrRecordNotFound into NotFound(entity, key)
func notFoundOr(err error, entity string, key any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(entity, key)
	}
	return err
}

// isUniqueViolation reports a unique index conflict. gorm translates it when
// TranslateError is on; pgconn covers connections opened without it.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ErrorKind labels err by taxonomy kind, for metrics and logs
func ErrorKind(err error) string {
	var rv *RuleViolation
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &rv):
		return rv.Rule
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	default:
		return "error"
	}
}
