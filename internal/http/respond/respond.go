// Package respond writes the JSON envelope and turns domain errors into
// HTTP responses or, for browser navigation, into a redirect with a flash.
package respond

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"orgdirectory/internal/apperr"
	"orgdirectory/internal/http/flash"
)

// Response represents the standard API response structure
type Response struct {
	Success  bool            `json:"success"`
	Data     interface{}     `json:"data,omitempty"`
	Error    *ErrorInfo      `json:"error,omitempty"`
	Messages []flash.Message `json:"messages,omitempty"`
}

// ErrorInfo represents error details in the response
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAccountInactive    = "ACCOUNT_INACTIVE"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeSessionInvalid     = "SESSION_INVALID"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

var errorCodeToHTTPStatus = map[string]int{
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeValidationFailed:   http.StatusBadRequest,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeAccountInactive:    http.StatusForbidden,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeSessionInvalid:     http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeInternalError:      http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status code for an error code
func HTTPStatus(code string) int {
	if status, ok := errorCodeToHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WantsHTML reports whether the client is a browser navigating pages rather
// than an API caller.
func WantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

// OK writes a success envelope, draining any pending flash messages into it.
func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Success:  true,
		Data:     data,
		Messages: flash.Pop(c),
	})
}

// Redirect stores a flash message (if any) and redirects browsers. API
// callers get the message in a success envelope instead.
func Redirect(c *gin.Context, location string, level flash.Level, text string, data interface{}) {
	if text != "" {
		flash.Add(c, level, text)
	}
	if WantsHTML(c) {
		c.Redirect(http.StatusSeeOther, location)
		return
	}
	OK(c, http.StatusOK, data)
}

// Fail reports err to the client. Browser requests for permission and
// session failures are redirected to redirectTo with a flash message.
func Fail(c *gin.Context, err error, redirectTo string) {
	info := Classify(err)
	if info.Code == ErrCodeInternalError {
		_ = c.Error(err)
	}

	if WantsHTML(c) && redirectTo != "" && redirectable(info.Code) {
		flash.Add(c, flash.Error, info.Message)
		c.Redirect(http.StatusSeeOther, redirectTo)
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(HTTPStatus(info.Code), Response{
		Success:  false,
		Error:    info,
		Messages: flash.Pop(c),
	})
}

func redirectable(code string) bool {
	switch code {
	case ErrCodeForbidden, ErrCodeSessionInvalid, ErrCodeUnauthorized, ErrCodeAccountInactive:
		return true
	}
	return false
}

// Classify maps err onto an error code and a user-facing message.
func Classify(err error) *ErrorInfo {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		return &ErrorInfo{Code: ErrCodeValidationFailed, Message: "Please correct the errors below.", Details: verr.Fields}
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return &ErrorInfo{Code: ErrCodeInvalidCredentials, Message: "Invalid username or password."}
	case errors.Is(err, apperr.ErrAccountInactive):
		return &ErrorInfo{Code: ErrCodeAccountInactive, Message: "Your account is pending activation by an administrator."}
	case errors.Is(err, apperr.ErrAuthRequired):
		return &ErrorInfo{Code: ErrCodeUnauthorized, Message: "Please sign in to continue."}
	case errors.Is(err, apperr.ErrSessionInvalid):
		return &ErrorInfo{Code: ErrCodeSessionInvalid, Message: "Your session is no longer valid. Please sign in again."}
	case errors.Is(err, apperr.ErrPermissionDenied):
		return &ErrorInfo{Code: ErrCodeForbidden, Message: "You do not have permission to perform this action."}
	case errors.Is(err, apperr.ErrNotFound):
		return &ErrorInfo{Code: ErrCodeNotFound, Message: "The requested item was not found."}
	}
	return &ErrorInfo{Code: ErrCodeInternalError, Message: "Something went wrong. Please try again."}
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldName)
	}
}

// fieldName reports struct fields by their form (or json) name.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

// Bind decodes the request body (form or JSON) into dst. Binding failures
// come back as *apperr.ValidationError.
func Bind(c *gin.Context, dst interface{}) error {
	err := c.ShouldBind(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Field("", "Malformed request body.")
	}
	out := &apperr.ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), tagMessage(fe))
	}
	return out
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "min":
		return "Ensure this value has at least " + fe.Param() + " characters."
	case "eqfield":
		return "The two values do not match."
	}
	return "Enter a valid value."
}
