// Package response defines the JSON envelope returned by the HTTP API.
package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	EmptyRequestBodyResponse = ErrorResponse(
		http.StatusBadRequest,
		"Empty Request Body",
		"Request body is empty. Please provide necessary data.",
	)
	InvalidRequestBodyResponse = ErrorResponse(
		http.StatusBadRequest,
		"Invalid Request Body",
		"Request body could not be decoded. Please check its format.",
	)
	ResourceNotFoundResponse = ErrorResponse(
		http.StatusNotFound,
		"Resource Not Found",
		"The requested resource was not found.",
	)
	TooManyRequestsResponse = ErrorResponse(
		http.StatusTooManyRequests,
		"Too Many Requests",
		"Request limit exceeded. Please try again later.",
	)
	ServerErrorResponse = ErrorResponse(
		http.StatusInternalServerError,
		"Server Error",
		"An internal server error occurred. Please try again later.",
	)
)

type Response struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message"`
	Details    []any  `json:"details,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// SuccessResponse builds a success envelope. Only the first data value is used.
func SuccessResponse(statusCode int, msg string, data ...any) Response {
	resp := Response{
		Status:     StatusSuccess,
		StatusCode: statusCode,
		Message:    msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

func ErrorResponse(statusCode int, title, msg string) Response {
	return Response{
		Status:     StatusError,
		StatusCode: statusCode,
		Error:      title,
		Message:    msg,
	}
}

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

func issueForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "url":
		return "Invalid url."
	case "min":
		return fmt.Sprintf("Must contain at least %s item(s).", fe.Param())
	case "max":
		return fmt.Sprintf("Must contain at most %s item(s).", fe.Param())
	case "gt", "gte", "lt", "lte":
		return "Value is out of range."
	default:
		return "Invalid value."
	}
}

// GetValidationErrors converts validator errors into ValidationError values.
// It returns nil for any other error.
func GetValidationErrors(err error) []ValidationError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	res := make([]ValidationError, 0, len(errs))
	for _, fe := range errs {
		res = append(res, ValidationError{
			Field: fe.Field(),
			Value: fe.Value(),
			Issue: issueForTag(fe),
		})
	}

	return res
}

func ValidationErrorResponse(details []ValidationError) Response {
	resp := ErrorResponse(
		http.StatusBadRequest,
		"Validation Error",
		"Request contains invalid values. Please correct them and try again.",
	)

	for _, d := range details {
		resp.Details = append(resp.Details, d)
	}

	return resp
}
