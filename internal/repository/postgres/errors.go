package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/lib/pq"

	"devevent/internal/domain"
	"devevent/internal/store"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var perr *pq.Error
	return errors.As(err, &perr) && perr.Code == uniqueViolation
}

// storeErr passes err through unless it says the database stopped answering.
// In that case the cached handle is dropped so the next call reconnects, and
// the error is reported as domain.ErrStoreUnavailable.
func storeErr(conn *store.Connector[*sql.DB], err error) error {
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
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
