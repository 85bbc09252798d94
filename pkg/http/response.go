package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the {status, message, data} body of the quick-buy endpoints.
type Envelope struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// DataResponse writes an Envelope with statusCode as both the HTTP status and Status.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, Envelope{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse reports rejected request fields.
func BadRequestResponse(c echo.Context, errs []ValidationError) error {
	return DataResponse(c, http.StatusBadRequest, errs)
}

// AppErrorResponse writes err as a one-element AppError list. Errors that are not an
// AppError become a bare 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
}

// ErrorBody is the flat {error, details} shape used by the signal endpoints.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ErrorResponse writes an ErrorBody.
func ErrorResponse(c echo.Context, status int, message, details string) error {
	return c.JSON(status, ErrorBody{Error: message, Details: details})
}
