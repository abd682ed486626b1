package handler // handler maps HTTP requests onto the service layer

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/smartstay/internal/model"
	"github.com/iliyamo/smartstay/internal/repository"
)

// RequestValidator adapts validator/v10 to echo.Validator.  Field names in
// errors are the JSON names of the request body.
type RequestValidator struct {
	v *validator.Validate
}

// NewValidator registers the custom tags used by request payloads.
func NewValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return model.ValidPhone(fl.Field().String())
	})
	return &RequestValidator{v: v}
}

// Validate returns the first failing field as a *model.ValidationError.
func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.v.Struct(i)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &model.ValidationError{Field: fe.Field(), Message: tagMessage(fe)}
	}
	return err
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "phone10":
		return fe.Field() + " must be exactly 10 digits"
	case "datetime":
		return fe.Field() + " must be YYYY-MM-DD"
	}
	return fe.Field() + " is invalid"
}

// normalizer is implemented by inputs that trim themselves.
type normalizer interface {
	Normalize()
}

// bindAndValidate decodes the body into dst, normalizes it when dst is a
// normalizer and runs the echo validator.
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return &model.ValidationError{Field: "body", Message: "invalid request body"}
	}
	if n, ok := dst.(normalizer); ok {
		n.Normalize()
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(dst)
}

// base carries what every handler needs to report failures.
type base struct {
	log *zap.Logger
}

func newBase(log *zap.Logger) base {
	if log == nil {
		log = zap.NewNop()
	}
	return base{log: log}
}

// fail maps service errors onto status codes and {"error": ...} bodies.
// Unexpected errors are logged and reported as 500.
func (b base) fail(c echo.Context, err error) error {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, verr)
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrInvalidTransition.Error()})
	case errors.Is(err, repository.ErrCapacity):
		return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrCapacity.Error()})
	case errors.Is(err, repository.ErrRoomOccupied):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Cannot delete an occupied room"})
	case errors.Is(err, repository.ErrTxConflict), errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting update, please retry"})
	}
	b.log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &model.ValidationError{Field: name, Message: "invalid " + name}
	}
	return id, nil
}
