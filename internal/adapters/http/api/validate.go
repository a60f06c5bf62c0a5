package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator() //nolint:gochecknoglobals // validator caches struct metadata

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// selectionRequest is the body of POST /selection.
type selectionRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	ClassName string `json:"class_name" validate:"required,max=64"`
}

// statusRequest is the body of PUT /attendance/{student_id}. Status takes
// a server label (Sick) or a UI letter (S).
type statusRequest struct {
	Status string `json:"status" validate:"required,max=16"`
}

// scanRequest is the body of POST /scan.
type scanRequest struct {
	Token string `json:"token" validate:"required,max=4096"`
}

// fieldErrors maps json field names to the failed validation tag.
type fieldErrors map[string]string

func (f fieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+": "+v)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fe := make(fieldErrors, len(ve))
			for _, e := range ve {
				fe[e.Field()] = e.Tag()
			}
			return fe
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
