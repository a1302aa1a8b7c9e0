package http

import (
	"github.com/go-playground/validator/v10"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/pkg/middleware"
)

var domainValidations = []struct {
	tag     string
	valid   func(string) bool
	message string
}{
	{"department", func(s string) bool { return domain.Department(s).IsValid() }, "must be Screen Print, Embroidery or Fulfillment"},
	{"job_source", func(s string) bool { return domain.Source(s).IsValid() }, "must be Printavo or Custom Ink"},
	{"hold_reason", func(s string) bool { return domain.HoldReason(s).IsValid() }, "must be a known hold reason"},
	{"spoilage_reason", func(s string) bool { return domain.SpoilageReason(s).IsValid() }, "must be a known spoilage reason"},
	{"carrier", func(s string) bool { return domain.Carrier(s).IsValid() }, "must be UPS, FedEx, USPS, DHL or Pickup"},
	{"box_type", func(s string) bool { return domain.BoxType(s).IsValid() }, "must be Bag, Small, Large or XL"},
}

// RegisterValidators adds the production vocabularies to the request
// validator. Call it once after middleware.Setup.
func RegisterValidators() error {
	for _, v := range domainValidations {
		valid := v.valid
		fn := func(fl validator.FieldLevel) bool { return valid(fl.Field().String()) }
		if err := middleware.RegisterValidation(v.tag, fn, v.message); err != nil {
			return err
		}
	}
	return nil
}
