package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cartcompass/cartcompass/internal/common"
	"github.com/cartcompass/cartcompass/internal/entity"
)

// Backend is the slice of the API client the exporter needs.
type Backend interface {
	ListReceipts(ctx context.Context, limit int, dateOrderType string) ([]entity.Receipt, error)
	ListItems(ctx context.Context, receiptID string) ([]entity.Item, error)
}

// Service produces XLSX bytes from the backend's view of the account. The
// export always refetches; it never trusts a cached list snapshot.
type Service struct {
	backend Backend
	logger  *slog.Logger
}

func NewService(backend Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, logger: logger}
}

// ExportReceiptsXLSX returns a workbook with one row per receipt and,
// when withItems is set, a second sheet with every line item.
func (s *Service) ExportReceiptsXLSX(ctx context.Context, limit int, withItems bool) ([]byte, error) {
	start := time.Now()

	receipts, err := s.backend.ListReceipts(ctx, limit, "")
	if err != nil {
		return nil, fmt.Errorf("fetch receipts: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Receipts"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Date Purchased",
		"Name",
		"Store",
		"Address",
		"Items",
		"Subtotal",
		"Tax",
		"Total",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range receipts {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, common.DisplayDate(r.DatePurchased))
		write(2, r.Name)
		write(3, r.Store)
		write(4, r.Address)
		write(5, r.NumItems)
		write(6, r.Subtotal)
		write(7, r.Tax)
		write(8, r.Total)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "C", 24)
	_ = f.SetColWidth(sheet, "D", "D", 36)
	_ = f.SetColWidth(sheet, "E", "H", 12)

	if withItems {
		if err := s.addItemsSheet(ctx, f, receipts); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"receipts", len(receipts),
		"with_items", withItems,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) addItemsSheet(ctx context.Context, f *excelize.File, receipts []entity.Receipt) error {
	const sheet = "Items"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Receipt", "Item", "Quantity", "Price", "Line Total"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range receipts {
		items, err := s.backend.ListItems(ctx, r.ReceiptUUID)
		if err != nil {
			return fmt.Errorf("fetch items for %s: %w", r.ReceiptUUID, err)
		}
		for _, item := range items {
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			write(1, r.Name)
			write(2, item.Name)
			write(3, item.Quantity)
			write(4, item.Price)
			write(5, item.LineTotal())
			row++
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 28)
	_ = f.SetColWidth(sheet, "C", "E", 12)
	return nil
}
