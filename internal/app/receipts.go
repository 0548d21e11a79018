package app

import (
	"context"
	"time"

	"github.com/cartcompass/cartcompass/internal/common"
	"github.com/cartcompass/cartcompass/internal/entity"
	"github.com/cartcompass/cartcompass/internal/session"
)

// RefreshReceiptList refetches the sidebar's receipt window into the session
// store. The fetch carries a generation number; a response that comes back
// after a newer fetch was issued is discarded instead of clobbering fresher
// data.
func (a *App) RefreshReceiptList(ctx context.Context, limit int) ([]entity.Receipt, error) {
	if !a.session.User().Authenticated() {
		return nil, common.ErrNotAuthenticated
	}
	if limit <= 0 {
		limit = a.cfg.Backend.ReceiptLimit
	}

	gen := a.session.BeginFetch(session.ResourceReceipts)
	list, err := a.api.ListReceipts(ctx, limit, "")
	if err != nil {
		return nil, err
	}

	a.session.ApplyReceipts(gen, list)

	a.mu.Lock()
	a.listLimit = limit
	a.mu.Unlock()
	return list, nil
}

// ShowMoreReceipts widens the list window by one page and refetches. It
// reports whether another page may exist, which is false once the window
// covers the account's receipt count.
func (a *App) ShowMoreReceipts(ctx context.Context) ([]entity.Receipt, bool, error) {
	user := a.session.User()
	if !user.Authenticated() {
		return nil, false, common.ErrNotAuthenticated
	}

	a.mu.Lock()
	limit := a.listLimit + a.cfg.Backend.ReceiptLimit
	a.mu.Unlock()

	list, err := a.RefreshReceiptList(ctx, limit)
	if err != nil {
		return nil, false, err
	}
	return list, limit < user.NumReceipts, nil
}

// OpenReceipt fetches a receipt and makes it the session's display receipt.
func (a *App) OpenReceipt(ctx context.Context, receiptUUID string) (entity.Receipt, error) {
	v := common.NewValidator()
	v.Field("receipt_uuid", receiptUUID, common.Required, common.UUID)
	if v.HasErrors() {
		return entity.BaseReceipt, v.Error()
	}

	receipt, err := a.api.GetReceipt(ctx, receiptUUID)
	if err != nil {
		return entity.BaseReceipt, err
	}

	a.session.SetDisplayReceipt(receipt)
	return receipt, nil
}

// ReceiptEdit is the editable subset of a receipt. Zero-value fields keep
// the current value.
type ReceiptEdit struct {
	Name       string
	Store      string
	Address    string
	Date       *time.Time
	TaxPercent *float64
}

// EditReceipt applies an edit to the receipt under display. The edited date
// keeps the backend timestamp's time-of-day suffix; monetary fields are
// recomputed server-side, so on success only the refresh counter moves and
// observers refetch.
func (a *App) EditReceipt(ctx context.Context, receipt entity.Receipt, edit ReceiptEdit) error {
	if edit.Name != "" {
		receipt.Name = edit.Name
	}
	if edit.Store != "" {
		receipt.Store = edit.Store
	}
	if edit.Address != "" {
		receipt.Address = edit.Address
	}
	if edit.Date != nil {
		receipt.DatePurchased = common.ReplaceDate(
			receipt.DatePurchased, edit.Date.Year(), edit.Date.Month(), edit.Date.Day())
	}
	if edit.TaxPercent != nil {
		if *edit.TaxPercent < 0 {
			return common.NewAppError("RECEIPT_EDIT", "tax percent must not be negative", common.ErrValidation)
		}
		receipt.TaxPercent = *edit.TaxPercent
	}
	receipt.LastUpdated = common.CurrentDateStamp()

	if err := a.api.UpdateReceipt(ctx, receipt); err != nil {
		return err
	}

	a.session.MarkMutated(session.ResourceReceipts)
	return nil
}

// DeleteReceipt removes a receipt (items cascade server-side), refetches the
// user so num_receipts stays truthful, and leaves the detail view.
func (a *App) DeleteReceipt(ctx context.Context, receiptUUID string) error {
	if err := a.api.DeleteReceipt(ctx, receiptUUID); err != nil {
		return err
	}

	if user, err := a.api.CurrentUser(ctx); err == nil {
		a.session.SetUser(user)
	} else {
		a.logger.Warn("receipts.delete.user_refetch_failed", "error", err)
	}

	a.session.ResetDisplayReceipt()
	a.session.MarkMutated(session.ResourceReceipts)
	return nil
}
