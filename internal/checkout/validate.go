package checkout

import "regexp"

var (
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

// ValidationResult is the outcome of a full-form validation pass.
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// ValidateDraft runs every field and cross-field rule over the draft.
// It is stateless: the same draft always yields the same result. Advisory
// coupon errors are merged in by the session, not produced here.
func ValidateDraft(d Draft) ValidationResult {
	errs := map[string]string{}

	if d.Customer.Name == "" {
		errs["name"] = "El nombre es requerido"
	}
	if d.Customer.Email == "" {
		errs["email"] = "El correo electrónico es requerido"
	} else if !emailPattern.MatchString(d.Customer.Email) {
		errs["email"] = "El correo electrónico no es válido"
	}
	if d.Customer.Phone == "" {
		errs["phone"] = "El número de teléfono es requerido"
	} else if !phonePattern.MatchString(d.Customer.Phone) {
		errs["phone"] = "El número de teléfono debe tener 10 dígitos"
	}
	if d.Address.Text == "" {
		errs["address"] = "La dirección es requerida"
	}
	if d.Payment == "" {
		errs["paymentMethod"] = "El método de pago es requerido"
	}
	if d.DeliveryCost == nil || *d.DeliveryCost == 0 {
		errs["deliveryCost"] = "Debe calcular el costo del domicilio"
	}

	if d.Schedule.Enabled {
		if d.Schedule.Date == "" {
			errs["deliveryDate"] = "La fecha de entrega es requerida"
		}
		if d.Schedule.TimeRange == "" {
			errs["deliveryTimeRange"] = "El rango de horas es requerido"
		} else if !validTimeRange(d.Schedule.TimeRange) {
			errs["deliveryTimeRange"] = "El rango de horas no es válido"
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
