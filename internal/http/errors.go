package http

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"budgetdash/internal/core"
	applog "budgetdash/internal/log"
)

// FieldDetail is one entry of a VALIDATION_ERROR details list.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var registerTagNameOnce sync.Once

// useJSONFieldNames makes binding errors report the JSON name of a field, not the Go name.
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	})
}

// bindJSON decodes and validates the body. Every failure is a validation error.
func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return bindingError(err, "body")
	}
	return nil
}

// bindQuery decodes and validates query parameters.
func bindQuery(c *gin.Context, v any) error {
	if err := c.ShouldBindQuery(v); err != nil {
		return bindingError(err, "query")
	}
	return nil
}

// bindingError converts a gin binding failure into a validation error. source names
// the field when the decoder could not attribute the failure to one.
func bindingError(err error, source string) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := &core.ValidationError{}
		for _, fe := range verrs {
			out.Add(fieldPath(fe), errors.New(describeTag(fe)))
		}
		return out
	}
	if errors.Is(err, io.EOF) {
		return core.NewValidationError(source, errors.New("request body is required"))
	}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return core.NewValidationError(source, err)
}

// fieldPath is the dotted JSON path of the failing field without the request type,
// e.g. "base.description".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// writeError maps err onto the envelope taxonomy. Unclassified errors are logged and hidden.
func writeError(c *gin.Context, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		details := make([]FieldDetail, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			details = append(details, FieldDetail{Field: f.Field, Message: f.Message})
		}
		logRejected(c, err, applog.ErrorTypeValidation)
		ValidationFailed("Invalid request", details).Write(c)

	case errors.Is(err, core.ErrNotFound):
		logRejected(c, err, applog.ErrorTypeNotFound)
		NotFound(notFoundMessage(err)).Write(c)

	default:
		_ = c.Error(err)
		applog.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "Request failed",
			applog.NewFields().
				WithError(err).
				WithErrorType(applog.ErrorTypeInternal).
				WithHTTPRequest(c.Request.Method, c.FullPath(), "", "", "").
				ToSlice()...)
		InternalError().Write(c)
	}
}

func logRejected(c *gin.Context, err error, errorType string) {
	applog.FromContext(c.Request.Context()).DebugContext(c.Request.Context(), "Request rejected",
		applog.NewFields().
			WithError(err).
			WithErrorType(errorType).
			WithHTTPRequest(c.Request.Method, c.FullPath(), "", "", "").
			ToSlice()...)
}

func notFoundMessage(err error) string {
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return "Resource not found"
}
