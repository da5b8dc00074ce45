package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/openclinic-br/consultorio-api/internal/model"
	apperrors "github.com/openclinic-br/consultorio-api/pkg/errors"
)

type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
}

// ListResponse is the envelope shared by every paginated endpoint.
type ListResponse struct {
	Items interface{} `json:"items"`
	model.PageInfo
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError maps an application error onto the HTTP contract:
// validation → 400 (+details), not found → 404, business rule → 400 with the
// verbatim message, anything else → 500.
func RespondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case apperrors.KindValidation:
			c.JSON(http.StatusBadRequest, &Response{
				Status:  "error",
				Message: appErr.Message,
				Details: appErr.Fields,
			})
			return
		case apperrors.KindNotFound:
			c.JSON(http.StatusNotFound, NewErrorResponse(appErr.Message))
			return
		case apperrors.KindBusinessRule:
			c.JSON(http.StatusBadRequest, NewErrorResponse(appErr.Message))
			return
		}
	}

	log.Error().Err(err).
		Str("path", c.Request.URL.Path).
		Str("method", c.Request.Method).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
}

// RespondBindingError renders gin binding failures as a field-keyed details
// map when the cause is the validator, or as a plain 400 otherwise.
func RespondBindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[strings.ToLower(fe.Field())] = validationMessage(fe)
		}
		c.JSON(http.StatusBadRequest, &Response{
			Status:  "error",
			Message: "validation failed",
			Details: details,
		})
		return
	}
	c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "max":
		return "must not exceed " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
