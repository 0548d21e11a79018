package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/cartcompass/cartcompass/internal/api"
	"github.com/cartcompass/cartcompass/internal/app"
	"github.com/cartcompass/cartcompass/internal/common"
	"github.com/cartcompass/cartcompass/internal/session"
	"github.com/cartcompass/cartcompass/internal/token"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func usage() {
	printError(`usage: cartcompass <command> [flags]

commands:
  login           log in (-username, -password)
  signup          create an account (-username, -email, -password, -confirm)
  logout          end the session
  whoami          show the logged-in user
  home            monthly figures and recent receipts
  receipts        list receipts (-limit, -all)
  scan            upload a receipt image (-file)
  receipt         show one receipt (-uuid)
  edit-receipt    edit a receipt (-uuid, -name, -store, -address, -date, -taxpercent)
  delete-receipt  delete a receipt and its items (-uuid)
  items           list a receipt's items (-receipt)
  add-item        add a blank item (-receipt)
  edit-item       edit an item (-receipt, -uuid, -name, -price, -quantity)
  delete-item     delete an item (-uuid)
  compare         compare an item's price at a store (-receipt, -uuid, -store)
  export          export receipts to XLSX (-out, -limit, -items)
  delete-account  delete the account and everything in it
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	command := os.Args[1]
	args := os.Args[2:]

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	store, err := token.NewCookieStore(cfg.Credentials.Path, logger)
	if err != nil {
		printError("Error: opening credential store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	httpClient := &http.Client{
		Jar:     store,
		Timeout: cfg.Backend.UploadTimeout,
	}
	tokens, err := token.NewSource(cfg.Backend.BaseURL, httpClient, store, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	client, err := api.NewClient(cfg.Backend.BaseURL, httpClient, tokens, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	client.SetRequestTimeout(cfg.Backend.RequestTimeout)

	a := app.New(client, tokens, session.NewStore(logger), cfg, logger)
	ctx := common.WithRequestID(context.Background(), uuid.New().String())

	// Re-derive the session from the stored cookie before dispatching.
	// Anonymous is a fine answer for most commands.
	if command != "login" && command != "signup" {
		if err := a.Restore(ctx); err == nil {
			ctx = common.WithUsername(ctx, a.Session().User().Username)
		}
	}

	if err := run(ctx, a, client, command, args); err != nil {
		printError("Error: %s\n", common.UserMessage(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, client *api.Client, command string, args []string) error {
	switch command {
	case "login":
		return cmdLogin(ctx, a, args)
	case "signup":
		return cmdSignup(ctx, a, args)
	case "logout":
		return cmdLogout(ctx, a)
	case "whoami":
		return cmdWhoami(a)
	case "home":
		return cmdHome(ctx, a)
	case "receipts":
		return cmdReceipts(ctx, a, args)
	case "scan":
		return cmdScan(ctx, a, args)
	case "receipt":
		return cmdReceipt(ctx, a, args)
	case "edit-receipt":
		return cmdEditReceipt(ctx, a, args)
	case "delete-receipt":
		return cmdDeleteReceipt(ctx, a, args)
	case "items":
		return cmdItems(ctx, a, args)
	case "add-item":
		return cmdAddItem(ctx, a, args)
	case "edit-item":
		return cmdEditItem(ctx, a, args)
	case "delete-item":
		return cmdDeleteItem(ctx, a, args)
	case "compare":
		return cmdCompare(ctx, a, args)
	case "export":
		return cmdExport(ctx, a, client, args)
	case "delete-account":
		return a.DeleteAccount(ctx)
	default:
		usage()
		return nil
	}
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
