package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Stable machine readable error codes surfaced to clients
const (
	CodeValidationFailed     = "validation_failed"
	CodeDecodingFailed       = "decoding_failed"
	CodeAuthenticationFailed = "authentication_failed"
	CodeTokenExpired         = "token_expired"
	CodeAuthorizationFailed  = "authorization_failed"
	CodeNotFound             = "not_found"
	CodeConflict             = "conflict"
	CodeRateLimited          = "rate_limited"
	CodeInternalError        = "internal_error"
)

var validate = validator.New()

func init() {
	// Report on 'json' tag name instead of struct field name
	// Look at documentation of 'RegisterTagNameFunc' for more details
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		// skip if tag key says it should be ignored
		if name == "-" {
			return ""
		}
		return name
	})
}

type Struct any

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Response envelope shared by every endpoint
type Envelope struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	JSONWithStatus(w, data, http.StatusOK)
}

func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	envelopeWithStatus(w, Envelope{Success: true, Data: data}, code)
}

// Success response carrying a message only
func Message(w http.ResponseWriter, message string) {
	envelopeWithStatus(w, Envelope{Success: true, Message: message}, http.StatusOK)
}

// Render error envelope with machine readable code
func Error(w http.ResponseWriter, code string, message string, status int) {
	envelopeWithStatus(w, Envelope{
		Success: false,
		Error:   &ErrorDetail{Code: code, Message: message},
	}, status)
}

// Render json decoding error
func DecodeError(w http.ResponseWriter, err error) {
	detail := &ErrorDetail{Code: CodeDecodingFailed}

	// Try to provide more specific error message based on error type
	switch err := err.(type) {
	case *json.UnmarshalTypeError:
		detail.Message = fmt.Sprintf("Invalid data type for field '%s'", err.Field)
	default:
		detail.Message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	envelopeWithStatus(w, Envelope{Success: false, Error: detail}, http.StatusBadRequest)
}

// Render validation errors with per field messages
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	detail := &ErrorDetail{
		Code:    CodeValidationFailed,
		Message: "Request validation failed",
		Fields:  make(map[string]string, len(errs)),
	}

	// Create user friendly error messages based on validation tag
	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		case "max":
			message = fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
		case "email":
			message = "Invalid email address"
		case "oneof":
			message = fmt.Sprintf("Must be one of: %s", fieldError.Param())
		default:
			message = "Invalid value"
		}

		detail.Fields[fieldError.Field()] = message
	}

	envelopeWithStatus(w, Envelope{Success: false, Error: detail}, http.StatusBadRequest)
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		// pretty sure cast will be ok cause expecting T is valid struct
		errs := err.(validator.ValidationErrors)
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}

// envelopeWithStatus sends the envelope as json and enforces status code
func envelopeWithStatus(w http.ResponseWriter, envelope Envelope, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(envelope); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
