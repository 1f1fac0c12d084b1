package app

import (
	"context"

	"github.com/amirasaad/crowdpledge/pkg/domain/events"
)

// setupEventBus registers the audit log handlers of the pledge events.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	logger := a.Deps.Logger.With("handler", "PledgeAudit")

	bus.Register(events.EventTypePledgePaid, func(_ context.Context, e events.Event) error {
		if evt, ok := e.(events.PledgePaid); ok {
			logger.Info("Pledge paid",
				"txn_id", evt.TxnID,
				"project_id", evt.ProjectID,
				"investor_id", evt.InvestorID,
				"amount", evt.Amount.String(),
				"currency", evt.Currency,
				"replay", evt.Replay,
			)
		}
		return nil
	})
	bus.Register(events.EventTypePledgeCaptured, func(_ context.Context, e events.Event) error {
		if evt, ok := e.(events.PledgeCaptured); ok {
			logger.Info("Pledge captured",
				"txn_id", evt.TxnID,
				"parent_txn_id", evt.ParentTxnID,
				"project_id", evt.ProjectID,
				"fee", evt.Fee.String(),
			)
		}
		return nil
	})
	bus.Register(events.EventTypePledgeVoided, func(_ context.Context, e events.Event) error {
		if evt, ok := e.(events.PledgeVoided); ok {
			logger.Info("Pledge voided", "txn_id", evt.TxnID, "project_id", evt.ProjectID)
		}
		return nil
	})
}
