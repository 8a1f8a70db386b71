// Package handler exposes the HTTP API.  Every response uses the same
// envelope: {"success": bool, "message": string, "data": any}.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/labconnect/medtest-booking/internal/apperr"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: msg, Data: data})
}

// fail maps an error to its status code.  Internal errors carry the
// underlying store message.
func fail(c echo.Context, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		return c.JSON(http.StatusInternalServerError, envelope{Message: err.Error()})
	}
	status := http.StatusInternalServerError
	switch ae.Kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	}
	msg := ae.Message
	if ae.Kind == apperr.KindInternal {
		msg = ae.Error()
	}
	return c.JSON(status, envelope{Message: msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, envelope{Message: msg})
}

// Validator adapts validator/v10 to echo.Validator.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator that reports field names by their
// json tag.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	if err := cv.v.Struct(i); err != nil {
		return apperr.Validation(describe(err))
	}
	return nil
}

// bindAndValidate decodes the request into dst and validates it.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	return c.Validate(dst)
}

func describe(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err.Error()
	}
	parts := make([]string, 0, len(ves))
	for _, fe := range ves {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}
