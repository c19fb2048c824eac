package handler

import (
	"errors"
	"net/http"
	"reflect"

	"servifrio/internal/apierror"
	"servifrio/internal/repository"
	"servifrio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeDomainError maps service/repository sentinel errors onto HTTP status
// codes. Business-rule validation is 422, missing resources 404, lifecycle
// and allocation conflicts 409; anything unrecognized falls through as 400.
func writeDomainError(c *gin.Context, err error) {
	var verr *service.ValidacionError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(verr.Fields))
		return
	}

	switch {
	case errors.Is(err, repository.ErrCaiNoEncontrada),
		errors.Is(err, service.ErrFacturaNoEncontrada),
		errors.Is(err, service.ErrClienteNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, repository.ErrCaiAgotada),
		errors.Is(err, repository.ErrCaiVencida),
		errors.Is(err, repository.ErrCaiInactiva),
		errors.Is(err, repository.ErrConflictoConcurrencia),
		errors.Is(err, service.ErrTransicionInvalida):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}
