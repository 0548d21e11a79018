package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cartcompass/cartcompass/internal/entity"
	"github.com/cartcompass/cartcompass/internal/session"
)

// ScanReceipt uploads a receipt image for server-side extraction. On success
// the user is refetched (num_receipts changed) and receipt observers are
// invalidated. The created receipt becomes the display receipt so the caller
// can jump straight to its detail view.
func (a *App) ScanReceipt(ctx context.Context, fileName string, file io.Reader) (entity.Receipt, error) {
	receipt, err := a.api.UploadReceipt(ctx, fileName, file)
	if err != nil {
		return entity.BaseReceipt, err
	}

	if user, err := a.api.CurrentUser(ctx); err == nil {
		a.session.SetUser(user)
	} else {
		a.logger.Warn("scan.user_refetch_failed", "error", err)
	}

	a.session.SetDisplayReceipt(receipt)
	a.session.MarkMutated(session.ResourceReceipts)

	a.logger.Info("scan.ok", "receipt_uuid", receipt.ReceiptUUID, "store", receipt.Store)
	return receipt, nil
}

// ScanReceiptFile is ScanReceipt for a path on disk.
func (a *App) ScanReceiptFile(ctx context.Context, path string) (entity.Receipt, error) {
	f, err := os.Open(path)
	if err != nil {
		return entity.BaseReceipt, fmt.Errorf("open receipt image: %w", err)
	}
	defer f.Close()

	return a.ScanReceipt(ctx, path, f)
}
