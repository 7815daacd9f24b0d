package handler

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	bookingDomain "github.com/branch-workshop/service-booking/internal/domain/booking"
)

// validatorRegistrar registers the custom tags once and remembers the outcome.
type validatorRegistrar struct {
	once sync.Once
	err  error
}

var defaultRegistrar validatorRegistrar

// RegisterValidators adds the booking_status and job_type tags to gin's validator.
// Every call reports the result of the first registration.
func RegisterValidators() error {
	return defaultRegistrar.register(binding.Validator.Engine)
}

func (r *validatorRegistrar) register(engine func() any) error {
	r.once.Do(func() {
		v, ok := engine().(*validator.Validate)
		if !ok {
			r.err = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		if err := v.RegisterValidation("booking_status", validateBookingStatus); err != nil {
			r.err = err
			return
		}
		r.err = v.RegisterValidation("job_type", validateJobType)
	})
	return r.err
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	return bookingDomain.Status(fl.Field().String()).IsValid()
}

func validateJobType(fl validator.FieldLevel) bool {
	return bookingDomain.JobType(fl.Field().String()).IsValid()
}

// bindingMessage turns a binding error into a message for the response envelope.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "booking_status":
			msgs = append(msgs, fmt.Sprintf("invalid booking status: %v", fe.Value()))
		case "job_type":
			msgs = append(msgs, fmt.Sprintf("invalid job type: %v", fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
