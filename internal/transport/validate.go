package transport

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks req's struct tags and reports failures as InvalidArgument, one field:tag pair per problem.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	problems := make([]string, 0, len(validationErrors))
	for _, ve := range validationErrors {
		problems = append(problems, fmt.Sprintf("%s:%s", ve.Field(), ve.Tag()))
	}
	sort.Strings(problems)
	return status.Error(codes.InvalidArgument, "invalid request: "+strings.Join(problems, ", "))
}
