/**
 * @description
 * This file defines the engine's view of the external ledger that actually holds
 * and moves funds. The engine only ever reads a balance and requests one atomic
 * transfer per processed payment; pkg/ledgerclient provides the HTTP-backed
 * production implementation.
 */

package app

import (
	"context"

	"github.com/google/uuid"
)

// Ledger is the external funds collaborator. Transfer is assumed atomic and final
// once it returns nil.
type Ledger interface {
	BalanceOf(ctx context.Context, account uuid.UUID) (int64, error)
	Transfer(ctx context.Context, amount int64, from, to uuid.UUID) error
}
