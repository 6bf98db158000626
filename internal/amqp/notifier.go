package amqp

import (
	"context"
	"time"
)

// Notifier adapts the client to the ledger's notification port. A sync
// message with an empty entry id signals a full resync.
type Notifier struct {
	client *Client
}

func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) ShiftRecorded(ctx context.Context, jobID, entryID string) error {
	return n.client.PublishShiftSync(ctx, jobID, entryID, time.Now().UnixMilli())
}

func (n *Notifier) LedgerChanged(ctx context.Context) error {
	return n.client.PublishShiftSync(ctx, "", "", time.Now().UnixMilli())
}
