package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Endereço só é aceito em pedidos com entrega.
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(CheckoutRequest)
		if req.DeliveryType != DeliveryShipping && req.ShippingAddress != nil {
			sl.ReportError(req.ShippingAddress, "ShippingAddress", "shipping_address", "excluded_unless", "SHIPPING")
		}
	}, CheckoutRequest{})
	return v
}

// ValidationError é uma rejeição local: nunca chega à rede.
type ValidationError struct {
	Fields []string
	Msg    string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s (%s)", e.Msg, strings.Join(e.Fields, ", "))
}

// Validate executa as regras `validate` de v e devolve *ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &ValidationError{Msg: "dados inválidos"}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "eqfield":
			verr.Msg = "as senhas não conferem"
		case "required_if":
			verr.Msg = "endereço de entrega obrigatório"
		case "excluded_unless":
			verr.Msg = "endereço de entrega só é aceito para SHIPPING"
		}
		verr.Fields = append(verr.Fields, fe.Namespace())
	}
	return verr
}
