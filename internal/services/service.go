// Package services holds the dashboard domain queries and the analytics
// aggregation built on top of a db.Store.
package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/logistics-dashboard/internal/apperr"
	"github.com/ukydev/logistics-dashboard/internal/db"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct checks the validate tags of s and reports failures as a
// ValidationError keyed by JSON field name.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("Invalid payload", apperr.Details{"error": err.Error()})
	}
	details := apperr.Details{}
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return apperr.Validation("Invalid payload", details)
}

func required(fields map[string]string) error {
	details := apperr.Details{}
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			details[name] = "required"
		}
	}
	if len(details) == 0 {
		return nil
	}
	return apperr.Validation("Missing required parameter", details)
}

func componentLogger(logger logrus.FieldLogger, name string) logrus.FieldLogger {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = l
	}
	return logger.WithField("component", name)
}

func decodeOne[T any](row db.Row) (*T, error) {
	var v T
	if err := db.Decode(row, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// percent returns n/d*100, or 0 when d is 0.
func percent(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}

// ratio returns x/d, or 0 when d is 0.
func ratio(x float64, d int) float64 {
	if d == 0 {
		return 0
	}
	return x / float64(d)
}
