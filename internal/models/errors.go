package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes reported by the relationship engines.
const (
	CodeSelfRelation     = "SELF_RELATION"
	CodeAlreadyFriends   = "ALREADY_FRIENDS"
	CodeDuplicateRequest = "DUPLICATE_REQUEST"
	CodeDuplicateFollow  = "DUPLICATE_FOLLOW"
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInternal         = "INTERNAL_ERROR"
)

// Sentinels for errors.Is. They match any *AppError carrying the same code.
var (
	ErrSelfRelation     = &AppError{Code: CodeSelfRelation, Message: "users cannot relate to themselves"}
	ErrAlreadyFriends   = &AppError{Code: CodeAlreadyFriends, Message: "users are already friends"}
	ErrDuplicateRequest = &AppError{Code: CodeDuplicateRequest, Message: "friendship already requested"}
	ErrDuplicateFollow  = &AppError{Code: CodeDuplicateFollow, Message: "user already follows this user"}
	ErrNotFound         = &AppError{Code: CodeNotFound, Message: "not found"}
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// NewSelfRelationError reports an operation whose two users are the same.
func NewSelfRelationError(message string) *AppError {
	return &AppError{Code: CodeSelfRelation, Message: message}
}

// NewAlreadyFriendsError reports a friend request between existing friends.
func NewAlreadyFriendsError() *AppError {
	return &AppError{Code: CodeAlreadyFriends, Message: "Users are already friends"}
}

// NewDuplicateRequestError reports a second request for the same ordered pair.
func NewDuplicateRequestError() *AppError {
	return &AppError{Code: CodeDuplicateRequest, Message: "Friendship already requested"}
}

// NewDuplicateFollowError reports an existing follow edge.
func NewDuplicateFollowError(follower, followee uint) *AppError {
	return &AppError{
		Code:    CodeDuplicateFollow,
		Message: fmt.Sprintf("User %d already follows %d", follower, followee),
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// ErrorCode returns the AppError code carried by err, or INTERNAL_ERROR.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HTTPStatus maps an error kind to the status the HTTP layer responds with.
func HTTPStatus(err error) int {
	switch ErrorCode(err) {
	case CodeSelfRelation, CodeValidation:
		return fiber.StatusBadRequest
	case CodeAlreadyFriends, CodeDuplicateRequest, CodeDuplicateFollow:
		return fiber.StatusConflict
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeUnauthorized:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError writes a standardized error response.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := ErrorResponse{Error: err.Error()}

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		// Internal causes are not echoed to clients.
		if appErr.Err != nil && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	}

	return c.Status(status).JSON(response)
}

// RespondWithAppError writes err using the status from HTTPStatus.
func RespondWithAppError(c *fiber.Ctx, err error) error {
	return RespondWithError(c, HTTPStatus(err), err)
}
