package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/aryankumarrai/pharmakrypt/internal/errs"
)

// Response is the uniform envelope for every API reply.
type Response struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data,omitempty"`
}

// Meta carries the machine-readable outcome of the request.
type Meta struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail names one invalid request field.
type ErrorDetail struct {
	Path string `json:"path"`
	Info string `json:"info"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Meta: Meta{Code: http.StatusOK, Message: "OK"}, Data: data})
}

func fail(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, Response{Meta: Meta{Code: httpCode, Message: message}})
}

func failWith(c *gin.Context, httpCode int, message string, data any) {
	c.JSON(httpCode, Response{Meta: Meta{Code: httpCode, Message: message}, Data: data})
}

func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]ErrorDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, ErrorDetail{Path: fe.Field(), Info: fe.Tag()})
		}
		c.JSON(http.StatusBadRequest, Response{
			Meta: Meta{Code: http.StatusBadRequest, Message: "validation failed", Details: details},
		})
		return
	}
	fail(c, http.StatusBadRequest, err.Error())
}

// statusOf maps domain sentinels onto HTTP statuses. Anomalies use 422: the
// request was well-formed, the supply chain state it describes is not.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrAnomaly):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrSequenceRejected),
		errors.Is(err, errs.ErrStatusConflict),
		errors.Is(err, errs.ErrAlreadyExists),
		errors.Is(err, errs.ErrNotActive):
		return http.StatusConflict
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func failErr(c *gin.Context, err error) {
	code := statusOf(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	fail(c, code, msg)
}
