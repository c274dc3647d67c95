// Provides middleware for standardizing HTTP handlers.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gridbase/gridbase/internal/server/dto"
)

// Wrap adapts a typed handler to an http.Handler. The function signature is
// func(context.Context, *In) (*Out, error); In is populated from the JSON
// body plus `path:"name"` and `query:"name"` tagged fields, then validated.
func Wrap[In any, PtrIn interface {
	*In
	dto.Validatable
}, Out any](s *Server, fn func(context.Context, PtrIn) (*Out, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !s.allowRequest(w, r) {
			return
		}

		input := new(In)
		if !readAndDecodeBody(ctx, w, r, input, s.cfg.MaxRequestBodyBytes) {
			return
		}
		populatePathParams(r, input)
		populateQueryParams(r, input)

		if err := PtrIn(input).Validate(); err != nil {
			handleValidationError(ctx, w, err)
			return
		}

		output, err := fn(ctx, PtrIn(input))
		writeJSONResponse(ctx, w, output, err)
	})
}

// WrapAdmin is Wrap plus a bearer-token check. Schema-level mutations and
// collection management go through it.
func WrapAdmin[In any, PtrIn interface {
	*In
	dto.Validatable
}, Out any](s *Server, fn func(context.Context, PtrIn) (*Out, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := s.validateAdminToken(r); err != nil {
			writeError(ctx, w, dto.Unauthorized().Wrap(err))
			return
		}
		Wrap[In, PtrIn, Out](s, fn).ServeHTTP(w, r)
	})
}

// WrapRaw adapts a raw handler (uploads, downloads, websockets) with the
// same rate limiting, and optionally the admin check.
func WrapRaw(s *Server, admin bool, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if admin {
			if err := s.validateAdminToken(r); err != nil {
				writeError(r.Context(), w, dto.Unauthorized().Wrap(err))
				return
			}
		}
		if !s.allowRequest(w, r) {
			return
		}
		if s.cfg.MaxRequestBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBodyBytes)
		}
		fn(w, r)
	})
}

// allowRequest applies the per-client rate limit. It writes the 429 itself
// and reports whether the request may proceed.
func (s *Server) allowRequest(w http.ResponseWriter, r *http.Request) bool {
	if s.limiter == nil {
		return true
	}
	if s.limiter.Allow(clientIP(r)) {
		return true
	}
	apiErr := dto.RateLimitExceeded(1)
	writeError(r.Context(), w, apiErr)
	return false
}

var (
	errMissingAuthHdr = errors.New("missing authorization header")
	errInvalidAuthHdr = errors.New("invalid authorization header")
	errInvalidToken   = errors.New("invalid token")
)

// validateAdminToken checks the Authorization header for a valid admin JWT.
func (s *Server) validateAdminToken(r *http.Request) error {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return errMissingAuthHdr
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return errInvalidAuthHdr
	}
	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errInvalidToken
	}
	if sub, _ := claims["sub"].(string); sub != adminSubject {
		return errInvalidToken
	}
	return nil
}

// clientIP extracts the caller's address, honoring X-Forwarded-For from a
// fronting proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return host
}

// readAndDecodeBody reads the request body with a size limit and decodes
// JSON into input. Returns false if an error was written to the response.
func readAndDecodeBody[In any](ctx context.Context, w http.ResponseWriter, r *http.Request, input *In, maxBytes int64) bool {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	body, err := io.ReadAll(r.Body)
	if err2 := r.Body.Close(); err == nil {
		err = err2
	}
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(ctx, w, dto.PayloadTooLarge(maxBytesErr.Limit))
			return false
		}
		slog.ErrorContext(ctx, "Failed to read request body", "err", err)
		writeError(ctx, w, dto.BadRequest("Failed to read request body"))
		return false
	}
	if len(body) > 0 {
		d := json.NewDecoder(bytes.NewReader(body))
		d.DisallowUnknownFields()
		if err := d.Decode(input); err != nil {
			slog.ErrorContext(ctx, "Failed to decode request body", "err", err)
			writeError(ctx, w, dto.BadRequest("Invalid request body"))
			return false
		}
	}
	return true
}

// writeJSONResponse writes a JSON response or error response.
func writeJSONResponse[Out any](ctx context.Context, w http.ResponseWriter, output *Out, err error) {
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(output); err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", "err", err)
	}
}

// writeError maps an error to the structured error response.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	errorCode := dto.ErrorCodeInternal
	details := map[string]any{}

	var ewsErr dto.ErrorWithStatus
	if errors.As(err, &ewsErr) {
		statusCode = ewsErr.StatusCode()
		errorCode = ewsErr.Code()
		if d := ewsErr.Details(); d != nil {
			details = d
		}
	}
	slog.ErrorContext(ctx, "Handler error", "err", err, "statusCode", statusCode, "code", errorCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := dto.ErrorResponse{
		Error:   dto.ErrorDetails{Code: errorCode, Message: err.Error()},
		Details: details,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode error response", "err", err)
	}
}

// handleValidationError writes a validation failure response.
func handleValidationError(ctx context.Context, w http.ResponseWriter, err error) {
	var ewsErr dto.ErrorWithStatus
	if !errors.As(err, &ewsErr) {
		err = dto.BadRequest(err.Error())
	}
	writeError(ctx, w, err)
}

// populatePathParams fills struct fields tagged `path:"name"` from the
// request's path values.
func populatePathParams(r *http.Request, input any) {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Pointer {
		return
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Struct {
		return
	}
	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("path")
		if tag == "" {
			continue
		}
		paramValue := r.PathValue(tag)
		if paramValue == "" {
			continue
		}
		if field.Type.Kind() == reflect.String {
			elem.Field(i).SetString(paramValue)
		}
	}
}

// populateQueryParams fills struct fields tagged `query:"name"` from the
// request's query string.
func populateQueryParams(r *http.Request, input any) {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Pointer {
		return
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Struct {
		return
	}
	query := r.URL.Query()
	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("query")
		if tag == "" {
			continue
		}
		paramValue := query.Get(tag)
		if paramValue == "" {
			continue
		}
		fieldVal := elem.Field(i)
		switch field.Type.Kind() {
		case reflect.String:
			fieldVal.SetString(paramValue)
		case reflect.Int:
			if intVal, err := strconv.Atoi(paramValue); err == nil {
				fieldVal.SetInt(int64(intVal))
			}
		}
	}
}
