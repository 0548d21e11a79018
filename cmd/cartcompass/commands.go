package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cartcompass/cartcompass/internal/api"
	"github.com/cartcompass/cartcompass/internal/app"
	"github.com/cartcompass/cartcompass/internal/common"
	"github.com/cartcompass/cartcompass/internal/entity"
	"github.com/cartcompass/cartcompass/internal/export"
)

func cmdLogin(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	if err := a.Login(ctx, *username, *password); err != nil {
		return err
	}

	user := a.Session().User()
	fmt.Printf("Welcome %s! (%d receipts scanned)\n", user.Username, user.NumReceipts)
	return nil
}

func cmdSignup(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	username := fs.String("username", "", "account username")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	confirm := fs.String("confirm", "", "password confirmation")
	_ = fs.Parse(args)

	err := a.Signup(ctx, app.SignupInput{
		Username:        *username,
		Email:           *email,
		Password:        *password,
		ConfirmPassword: *confirm,
	})
	var sve *app.SignupValidationError
	if errors.As(err, &sve) && len(sve.FailedRules) > 0 {
		fmt.Println("Password requirements not met:")
		for _, rule := range sve.FailedRules {
			fmt.Printf("  - %s\n", rule)
		}
		return err
	}
	if err != nil {
		return err
	}

	fmt.Println("Account created. Log in to get started.")
	return nil
}

func cmdLogout(ctx context.Context, a *app.App) error {
	if err := a.Logout(ctx); err != nil {
		return err
	}
	if a.State() == app.StateAuthenticated {
		fmt.Println("No session cookies present; still logged in.")
		return nil
	}
	fmt.Println("Logged out.")
	return nil
}

func cmdWhoami(a *app.App) error {
	user := a.Session().User()
	if !user.Authenticated() {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("%s <%s>  receipts: %d\n", user.Username, user.Email, user.NumReceipts)
	return nil
}

func cmdHome(ctx context.Context, a *app.App) error {
	data, err := a.Home(ctx)
	if err != nil {
		return err
	}

	if data.FiguresErr != nil {
		fmt.Printf("Figures unavailable: %s\n", common.UserMessage(data.FiguresErr))
	} else {
		fmt.Printf("Spent this month: $%.2f    Potential savings: $%.2f\n",
			data.Figures.MonthlySpent, data.Figures.Savings)
	}

	if data.RecentErr != nil {
		fmt.Printf("Recent receipts unavailable: %s\n", common.UserMessage(data.RecentErr))
		return nil
	}
	if len(data.Recent) == 0 {
		fmt.Println("Scan a receipt to view your most recent receipts!")
		return nil
	}
	fmt.Println("Recent receipts:")
	for _, r := range data.Recent {
		printReceiptRow(r)
	}
	return nil
}

func cmdReceipts(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("receipts", flag.ExitOnError)
	limit := fs.Int("limit", 0, "max receipts to list")
	all := fs.Bool("all", false, "widen the window until every receipt is listed")
	_ = fs.Parse(args)

	receipts, err := a.RefreshReceiptList(ctx, *limit)
	if err != nil {
		return err
	}
	for *all {
		list, more, err := a.ShowMoreReceipts(ctx)
		if err != nil {
			return err
		}
		receipts = list
		if !more {
			break
		}
	}
	if len(receipts) == 0 {
		fmt.Println("There are no receipts saved. Scan your receipt to get started!")
		return nil
	}
	for _, r := range receipts {
		printReceiptRow(r)
	}
	return nil
}

func cmdScan(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	file := fs.String("file", "", "receipt image to upload (required)")
	_ = fs.Parse(args)

	if *file == "" {
		printError("Error: -file is required\n")
		os.Exit(1)
	}

	receipt, err := a.ScanReceiptFile(ctx, *file)
	if err != nil {
		return err
	}

	fmt.Println("Receipt extracted:")
	printReceiptDetail(receipt)
	return nil
}

func cmdReceipt(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("receipt", flag.ExitOnError)
	uuid := fs.String("uuid", "", "receipt UUID (required)")
	_ = fs.Parse(args)

	receipt, err := a.OpenReceipt(ctx, *uuid)
	if err != nil {
		return err
	}
	printReceiptDetail(receipt)
	return nil
}

func cmdEditReceipt(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("edit-receipt", flag.ExitOnError)
	uuid := fs.String("uuid", "", "receipt UUID (required)")
	name := fs.String("name", "", "new name")
	storeName := fs.String("store", "", "new store")
	address := fs.String("address", "", "new address")
	dateStr := fs.String("date", "", "new purchase date YYYY-MM-DD")
	taxPercent := fs.Float64("taxpercent", -1, "new tax percent")
	_ = fs.Parse(args)

	receipt, err := a.OpenReceipt(ctx, *uuid)
	if err != nil {
		return err
	}

	edit := app.ReceiptEdit{Name: *name, Store: *storeName, Address: *address}
	if *dateStr != "" {
		parsed, err := time.Parse("2006-01-02", *dateStr)
		if err != nil {
			printError("Error: invalid -date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		edit.Date = &parsed
	}
	if *taxPercent >= 0 {
		edit.TaxPercent = taxPercent
	}

	if err := a.EditReceipt(ctx, receipt, edit); err != nil {
		return err
	}
	fmt.Println("Receipt updated.")
	return nil
}

func cmdDeleteReceipt(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("delete-receipt", flag.ExitOnError)
	uuid := fs.String("uuid", "", "receipt UUID (required)")
	_ = fs.Parse(args)

	if err := a.DeleteReceipt(ctx, *uuid); err != nil {
		return err
	}
	fmt.Println("Receipt deleted.")
	return nil
}

func cmdItems(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("items", flag.ExitOnError)
	receiptID := fs.String("receipt", "", "receipt UUID (required)")
	_ = fs.Parse(args)

	items, err := a.RefreshItems(ctx, *receiptID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No items on this receipt.")
		return nil
	}
	for _, item := range items {
		printItemRow(item)
	}
	return nil
}

func cmdAddItem(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("add-item", flag.ExitOnError)
	receiptID := fs.String("receipt", "", "receipt UUID (required)")
	_ = fs.Parse(args)

	item, err := a.AddItem(ctx, *receiptID)
	if err != nil {
		return err
	}
	fmt.Printf("Added item %s\n", item.ItemUUID)
	return nil
}

func cmdEditItem(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("edit-item", flag.ExitOnError)
	receiptID := fs.String("receipt", "", "receipt UUID (required)")
	uuid := fs.String("uuid", "", "item UUID (required)")
	name := fs.String("name", "", "new item name")
	price := fs.Float64("price", -1, "new unit price")
	quantity := fs.Int("quantity", -1, "new quantity")
	_ = fs.Parse(args)

	item, err := findItem(ctx, a, *receiptID, *uuid)
	if err != nil {
		return err
	}

	if *name != "" {
		item.Name = *name
	}
	if *price >= 0 {
		item.Price = *price
	}
	if *quantity >= 0 {
		item.Quantity = *quantity
	}

	if err := a.EditItem(ctx, item); err != nil {
		return err
	}
	fmt.Println("Item updated.")
	return nil
}

func cmdDeleteItem(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("delete-item", flag.ExitOnError)
	uuid := fs.String("uuid", "", "item UUID (required)")
	_ = fs.Parse(args)

	if err := a.DeleteItem(ctx, *uuid); err != nil {
		return err
	}
	fmt.Println("Item deleted.")
	return nil
}

func cmdCompare(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	receiptID := fs.String("receipt", "", "receipt UUID (required)")
	uuid := fs.String("uuid", "", "item UUID (required)")
	storeName := fs.String("store", "", "store to compare against (required)")
	_ = fs.Parse(args)

	item, err := findItem(ctx, a, *receiptID, *uuid)
	if err != nil {
		return err
	}

	a.OpenCompare(item)
	defer a.CloseCompare()

	results, err := a.Compare(ctx, *storeName)
	if err != nil {
		return err
	}

	fmt.Printf("Comparing %q (currently $%.2f):\n", item.Name, item.Price)
	if len(results) == 0 {
		fmt.Println("No matches found.")
		return nil
	}
	for _, r := range results {
		fmt.Printf("  $%-8.2f %-40s %.1f stars (%d reviews)\n",
			r.Price, r.Name, r.Rating, r.ReviewsAmount)
	}
	return nil
}

func cmdExport(ctx context.Context, a *app.App, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "receipts.xlsx", "output XLSX file path")
	limit := fs.Int("limit", 1000, "max receipts to export")
	withItems := fs.Bool("items", false, "include a line-item sheet")
	_ = fs.Parse(args)

	svc := export.NewService(client, nil)
	data, err := svc.ExportReceiptsXLSX(ctx, *limit, *withItems)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	fmt.Printf("Wrote %s\n", *out)
	return nil
}

func findItem(ctx context.Context, a *app.App, receiptID, itemUUID string) (entity.Item, error) {
	items, err := a.RefreshItems(ctx, receiptID)
	if err != nil {
		return entity.BaseItem, err
	}
	for _, item := range items {
		if item.ItemUUID == itemUUID {
			return item, nil
		}
	}
	return entity.BaseItem, common.NewAppError("ITEM_LOOKUP",
		fmt.Sprintf("item %s not found on receipt", itemUUID), common.ErrValidation)
}

func printReceiptRow(r entity.Receipt) {
	fmt.Printf("  %s  %-24s %-20s $%-8.2f %s\n",
		common.DisplayDate(r.DatePurchased), r.Name, r.Store, r.Total, r.ReceiptUUID)
}

func printReceiptDetail(r entity.Receipt) {
	fmt.Printf("%s at %s (%s)\n", r.Name, r.Store, common.DisplayDate(r.DatePurchased))
	if r.Address != "" {
		fmt.Printf("  %s\n", r.Address)
	}
	fmt.Printf("  items: %d  subtotal: $%.2f  tax: $%.2f (%.2f%%)  total: $%.2f\n",
		r.NumItems, r.Subtotal, r.Tax, r.TaxPercent, r.Total)
	fmt.Printf("  uuid: %s  updated: %s\n",
		r.ReceiptUUID, common.TimeSince(r.LastUpdated, time.Now()))
}

func printItemRow(item entity.Item) {
	fmt.Printf("  %-28s $%.2f x %d = $%.2f  %s\n",
		item.Name, item.Price, item.Quantity, item.LineTotal(), item.ItemUUID)
}
