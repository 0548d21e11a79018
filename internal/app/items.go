package app

import (
	"context"

	"github.com/cartcompass/cartcompass/internal/common"
	"github.com/cartcompass/cartcompass/internal/entity"
	"github.com/cartcompass/cartcompass/internal/session"
)

// RefreshItems refetches a receipt's line items into the session store,
// generation-guarded like the receipt list.
func (a *App) RefreshItems(ctx context.Context, receiptID string) ([]entity.Item, error) {
	if !a.session.User().Authenticated() {
		return nil, common.ErrNotAuthenticated
	}

	gen := a.session.BeginFetch(session.ResourceItems)
	items, err := a.api.ListItems(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	a.session.ApplyItems(gen, items)
	return items, nil
}

// AddItem creates a blank item on a receipt. Observers of the item list are
// invalidated rather than patched in place.
func (a *App) AddItem(ctx context.Context, receiptID string) (entity.Item, error) {
	item, err := a.api.CreateItem(ctx, receiptID)
	if err != nil {
		return entity.BaseItem, err
	}

	a.session.MarkMutated(session.ResourceItems)
	return item, nil
}

// EditItem saves an in-place item edit. Price and quantity are clamped at
// zero before the call; the line total stays derived, never stored.
func (a *App) EditItem(ctx context.Context, item entity.Item) error {
	if item.Price < 0 {
		item.Price = 0
	}
	if item.Quantity < 0 {
		item.Quantity = 0
	}

	v := common.NewValidator()
	v.Field("item_uuid", item.ItemUUID, common.Required, common.UUID)
	v.Field("name", item.Name, common.Required)
	if v.HasErrors() {
		return v.Error()
	}

	if err := a.api.UpdateItem(ctx, item); err != nil {
		return err
	}

	a.session.MarkMutated(session.ResourceItems)
	return nil
}

// DeleteItem removes one item and invalidates item observers.
func (a *App) DeleteItem(ctx context.Context, itemUUID string) error {
	if err := a.api.DeleteItem(ctx, itemUUID); err != nil {
		return err
	}

	a.session.MarkMutated(session.ResourceItems)
	return nil
}
