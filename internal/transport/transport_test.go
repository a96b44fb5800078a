package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-aisle-service/internal/apperr"
	"github.com/fekuna/omnipos-aisle-service/internal/auth"
	"github.com/fekuna/omnipos-aisle-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusCodes(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"constraint", &apperr.ConstraintViolationError{ProductName: "Milk", Aisle: "Aisle 1 - Fresh Produce"}, codes.FailedPrecondition},
		{"quantity", &apperr.InvalidQuantityError{Requested: -5, Limit: "quantity cannot go below zero"}, codes.InvalidArgument},
		{"not found", apperr.NotFound("store", "s-9"), codes.NotFound},
		{"empty query", apperr.ErrEmptyQuery, codes.InvalidArgument},
		{"wrapped", errors.Join(errors.New("ctx"), apperr.NotFound("aisle", "a-1")), codes.NotFound},
		{"unknown", errors.New("pq: connection refused"), codes.Internal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, ok := status.FromError(Status(ctx, log, tc.err))
			require.True(t, ok)
			assert.Equal(t, tc.code, st.Code())
			assert.NotContains(t, st.Message(), "connection refused")
		})
	}

	assert.NoError(t, Status(ctx, log, nil))
}

func TestStatusIsLocalized(t *testing.T) {
	ctx := auth.WithUser(context.Background(), auth.UserContext{Languages: []string{"id"}})
	err := Status(ctx, logger.NewNop(), &apperr.ConstraintViolationError{
		ProductName:       "Milk",
		Aisle:             "Aisle 1 - Fresh Produce",
		ProductCategories: []string{"Dairy"},
		AllowedCategories: []string{"Produce"},
	})

	st, _ := status.FromError(err)
	assert.Contains(t, st.Message(), "tidak dapat ditempatkan di Aisle 1 - Fresh Produce")
	assert.Contains(t, st.Message(), "Produce")
}

func TestRequireRole(t *testing.T) {
	staff := auth.WithUser(context.Background(), auth.UserContext{Role: auth.RoleStaff, StoreID: "s-1"})
	customer := auth.WithUser(context.Background(), auth.UserContext{Role: auth.RoleCustomer})

	assert.NoError(t, RequireRole(staff, "s-1", auth.RoleAdmin, auth.RoleStaff))
	assert.Equal(t, codes.PermissionDenied, status.Code(RequireRole(staff, "s-2", auth.RoleAdmin, auth.RoleStaff)))
	assert.Equal(t, codes.PermissionDenied, status.Code(RequireRole(customer, "s-1", auth.RoleAdmin, auth.RoleStaff)))
}

func TestValidate(t *testing.T) {
	type req struct {
		StoreID  string `validate:"required"`
		Quantity int    `validate:"gt=0"`
	}

	assert.NoError(t, Validate(&req{StoreID: "s-1", Quantity: 1}))

	err := Validate(&req{})
	st, _ := status.FromError(err)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, "invalid request: Quantity:gt, StoreID:required", st.Message())
}
