package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/rl1809/storefront/internal/core/service"
)

type errorClass struct {
	target error
	http   int
	grpc   codes.Code
}

var errorClasses = []errorClass{
	{service.ErrNoIdentity, http.StatusUnauthorized, codes.Unauthenticated},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, codes.Unauthenticated},
	{ErrInvalidToken, http.StatusUnauthorized, codes.Unauthenticated},
	{service.ErrEmptyCart, http.StatusBadRequest, codes.InvalidArgument},
	{service.ErrIncompleteAddress, http.StatusBadRequest, codes.InvalidArgument},
	{service.ErrInvalidPaymentMethod, http.StatusBadRequest, codes.InvalidArgument},
	{service.ErrFastDeliveryUnavailable, http.StatusBadRequest, codes.InvalidArgument},
	{service.ErrMissingProduct, http.StatusBadRequest, codes.InvalidArgument},
	{service.ErrOutOfStock, http.StatusBadRequest, codes.InvalidArgument},
	{service.ErrInvalidEmail, http.StatusBadRequest, codes.InvalidArgument},
	{service.ErrWeakPassword, http.StatusBadRequest, codes.InvalidArgument},
	{service.ErrProductNotFound, http.StatusNotFound, codes.NotFound},
	{service.ErrOrderNotFound, http.StatusNotFound, codes.NotFound},
	{service.ErrOrderNotCancellable, http.StatusConflict, codes.FailedPrecondition},
	{service.ErrEmailTaken, http.StatusConflict, codes.AlreadyExists},
}

// classify maps a service error to transport codes. Unknown errors are
// internal and their message is not exposed.
func classify(err error) (int, codes.Code, string) {
	for _, c := range errorClasses {
		if errors.Is(err, c.target) {
			return c.http, c.grpc, err.Error()
		}
	}
	return http.StatusInternalServerError, codes.Internal, "internal error"
}
