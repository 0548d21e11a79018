package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cartcompass/cartcompass/internal/common"
	"github.com/cartcompass/cartcompass/internal/entity"
)

// HomeData is the combined result of the home view's two fetches. Each half
// carries its own error so one failing endpoint does not blank the other.
type HomeData struct {
	Figures    entity.Figures
	FiguresErr error

	Recent    []entity.Receipt
	RecentErr error
}

const recentReceiptLimit = 3

// Home loads the figures summary and the most recent receipts concurrently
// and joins both before returning, so the caller never observes a torn read
// with one half applied and the other still in flight. Entering the home
// view also resets the display receipt.
func (a *App) Home(ctx context.Context) (HomeData, error) {
	a.session.ResetDisplayReceipt()

	if !a.session.User().Authenticated() {
		return HomeData{}, common.ErrNotAuthenticated
	}

	var data HomeData
	var g errgroup.Group

	g.Go(func() error {
		data.Figures, data.FiguresErr = a.api.Figures(ctx)
		return nil
	})
	g.Go(func() error {
		data.Recent, data.RecentErr = a.api.ListReceipts(ctx, recentReceiptLimit, "created_at")
		return nil
	})

	_ = g.Wait()
	return data, nil
}
