// Package handler provides the HTTP handlers behind every gateway route.
//
// Handlers validate input, call exactly one collaborator and shape the
// response. Errors are rendered through apierror so every failure uses the
// same envelope.
package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/nightapi/nightapi/internal/apierror"
	"github.com/nightapi/nightapi/internal/provider"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// newValidate returns a validator that reports fields by their json name.
func newValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

var validate = newValidate()

// validateInput checks v's struct tags and converts the first failure into
// a ValidationError that names the field.
func validateInput(v any) *apierror.Error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apierror.Validation("Invalid request").Wrap(err)
	}
	return apierror.Validation("%s", messageForField(verrs[0])).Wrap(err)
}

func messageForField(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "alpha":
		return fmt.Sprintf("%s must contain only letters", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// queryInt reads an optional integer query parameter.
func queryInt(q url.Values, name string, def int) (int, *apierror.Error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierror.Validation("%s must be an integer", name).Wrap(err)
	}
	return v, nil
}

// queryFloat reads a required float query parameter.
func queryFloat(q url.Values, name string) (float64, *apierror.Error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, apierror.Validation("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apierror.Validation("%s must be a number", name).Wrap(err)
	}
	return v, nil
}

// writeJSON renders v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// upstreamError maps a collaborator failure to an envelope. The upstream
// diagnostic text goes into details; internal errors never do.
func upstreamError(logger *slog.Logger, err error, message string) *apierror.Error {
	logger.Warn("upstream call failed", slog.String("error", err.Error()))

	if errors.Is(err, provider.ErrBadResponse) {
		return apierror.BadUpstream("%s", message).WithDetails(err.Error()).Wrap(err)
	}
	return apierror.Upstream("%s", message).WithDetails(err.Error()).Wrap(err)
}

// requestBaseURL returns configured when set, otherwise the scheme and host
// the client used.
func requestBaseURL(r *http.Request, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// Info describes the service.
// GET /
func Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"name":    "NightAPI",
		"version": Version,
		"docs":    "/api",
	})
}

// NotFound handles unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	apierror.Write(w, r, apierror.NotFound("Route %s %s not found", r.Method, r.URL.Path))
}

// MethodNotAllowed handles routes matched with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	apierror.Write(w, r, apierror.New(apierror.CategoryMethodNotAllowed, "Method %s not allowed on %s", r.Method, r.URL.Path))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
