package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// FieldError is one entry of a 422 response's detail list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeBody decodes a JSON body into dst and validates it. On failure it
// writes the 422 response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			JSONError(w, r, http.StatusRequestEntityTooLarge, "request_too_large", "request body exceeds the size limit")
			return false
		}
		JSONError(w, r, http.StatusUnprocessableEntity, "validation_error",
			[]FieldError{{Field: "body", Message: jsonErrorMessage(err)}})
		return false
	}
	return validStruct(w, r, dst)
}

func validStruct(w http.ResponseWriter, r *http.Request, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		JSONError(w, r, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return false
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	JSONError(w, r, http.StatusUnprocessableEntity, "validation_error", fields)
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "max":
		return "ensure this value has at most " + fe.Param() + " characters"
	case "gte":
		return "ensure this value is greater than or equal to " + fe.Param()
	default:
		return fmt.Sprintf("failed on %q", fe.Tag())
	}
}

func jsonErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("field %q must be a %s", typeErr.Field, typeErr.Type)
	}
	return "invalid JSON body"
}

// pathID parses the {id} URL parameter. On failure it writes the 422
// response and returns false.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		JSONError(w, r, http.StatusUnprocessableEntity, "validation_error",
			[]FieldError{{Field: "id", Message: "value is not a valid integer"}})
		return 0, false
	}
	return id, true
}

// queryInt reads an integer query parameter, falling back to def when absent.
func queryInt(r *http.Request, name string, def int) (int, *FieldError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &FieldError{Field: name, Message: "value is not a valid integer"}
	}
	return n, nil
}
