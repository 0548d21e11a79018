package app

import (
	"context"

	"github.com/cartcompass/cartcompass/internal/common"
	"github.com/cartcompass/cartcompass/internal/entity"
)

// OpenCompare makes an item the compare target and opens the compare modal.
func (a *App) OpenCompare(item entity.Item) {
	a.session.SetDisplayItem(item)
	if !a.session.CompareActive() {
		a.session.ToggleCompare()
	}
}

// CloseCompare closes the compare modal. Comparison results are ephemeral;
// nothing from them survives the modal.
func (a *App) CloseCompare() {
	if a.session.CompareActive() {
		a.session.ToggleCompare()
	}
	a.session.SetDisplayItem(entity.BaseItem)
}

// Compare looks up the display item's price at the named store. Results are
// returned to the caller only; stores_checked remains an opaque mapping the
// backend owns.
func (a *App) Compare(ctx context.Context, store string) ([]entity.ComparedItem, error) {
	item := a.session.DisplayItem()

	v := common.NewValidator()
	v.Field("store", store, common.Required)
	v.Field("item", item.Name, common.Required)
	if v.HasErrors() {
		return nil, v.Error()
	}

	ctx, cancel := common.WithTimeout(ctx, a.cfg.Backend.CompareTimeout)
	defer cancel()

	return a.api.CompareStore(ctx, store, item.Name)
}
