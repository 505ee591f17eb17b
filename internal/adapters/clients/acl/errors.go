package acl

import (
	"errors"
	"fmt"

	"github.com/jsamuelsen/jsonapi-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
)

// MapClientError translates an error returned by the HTTP client into a
// *domain.TransportError. Domain errors pass through unchanged.
func MapClientError(err error, serviceName, operation string) error {
	if err == nil {
		return nil
	}

	var (
		transportErr *domain.TransportError
		responseErr  *domain.ResponseError
		parseErr     *domain.ParseError
	)

	if errors.As(err, &transportErr) || errors.As(err, &responseErr) || errors.As(err, &parseErr) {
		return err
	}

	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewTransportError(serviceName,
			fmt.Sprintf("circuit breaker open during %s", operation))

	case errors.Is(err, clients.ErrResponseTooLarge):
		return domain.NewTransportError(serviceName,
			fmt.Sprintf("%s: %v", operation, err))

	default:
		return domain.NewTransportError(serviceName,
			fmt.Sprintf("%s failed: %v", operation, err))
	}
}
