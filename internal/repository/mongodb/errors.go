package mongodb

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.mongodb.org/mongo-driver/mongo"

	"devevent/internal/domain"
	"devevent/internal/store"
)

// storeErr passes err through unless the driver reports a network failure.
// In that case the client is dropped so the next call reconnects, and the
// error is reported as domain.ErrStoreUnavailable.
func storeErr(conn *store.Connector[*mongo.Client], err error) error {
	if err == nil || !isTransportError(err) {
		return err
	}
	_ = conn.Reset()
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

func isTransportError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if mongo.IsNetworkError(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
