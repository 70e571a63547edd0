package helpers

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/dovl-commerce/dovl-backend/pkg/types"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Contact is the buyer-supplied part of a checkout.
type Contact struct {
	Shipping types.Address
	Billing  *types.Address
	Method   enums.PaymentMethod
	// Email is required for guests and ignored for signed-in buyers.
	Email string
	Guest bool
}

// NormalizeContact trims the addresses, defaults billing to shipping and
// validates every field. Problems are reported together as one validation
// error keyed by field.
func NormalizeContact(in Contact) (Contact, error) {
	out := in
	out.Shipping = in.Shipping.Normalize()
	if in.Billing != nil {
		billing := in.Billing.Normalize()
		out.Billing = &billing
	} else {
		billing := out.Shipping
		out.Billing = &billing
	}
	out.Email = strings.ToLower(strings.TrimSpace(in.Email))

	details := map[string]string{}
	collect(details, "shipping_address", validate.Struct(out.Shipping))
	collect(details, "billing_address", validate.Struct(*out.Billing))
	if !out.Method.IsValid() {
		details["payment_method"] = "is invalid"
	}
	if in.Guest {
		if out.Email == "" {
			details["email"] = "is required for guest checkout"
		} else if err := validate.Var(out.Email, "email"); err != nil {
			details["email"] = "must be a valid email"
		}
	}

	if len(details) > 0 {
		return Contact{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout details").WithDetails(details)
	}
	return out, nil
}

func collect(details map[string]string, prefix string, err error) {
	if err == nil {
		return
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		details[prefix] = "is invalid"
		return
	}
	for _, fe := range errs {
		details[prefix+"."+fe.Field()] = message(fe)
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}
