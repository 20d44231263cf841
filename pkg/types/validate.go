package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidSubject is returned when a Subject fails validation.
var ErrInvalidSubject = errors.New("invalid subject")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate normalizes the subject and checks its field constraints. The
// returned error wraps ErrInvalidSubject and names each failing field.
func (s Subject) Validate() (Subject, error) {
	n := s.Normalize()
	if err := validate.Struct(n); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return n, fmt.Errorf("%w: %v", ErrInvalidSubject, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
			case "max":
				msgs = append(msgs, fmt.Sprintf("%s exceeds %s characters", fe.Field(), fe.Param()))
			default:
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
		}
		return n, fmt.Errorf("%w: %s", ErrInvalidSubject, strings.Join(msgs, "; "))
	}
	return n, nil
}
