package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cartcompass/cartcompass/constants"
	"github.com/cartcompass/cartcompass/internal/common"
	"github.com/cartcompass/cartcompass/internal/entity"
)

// Login authenticates with username/password. On success the backend sets
// the session cookie and returns the user record.
func (c *Client) Login(ctx context.Context, username, password string) (entity.User, error) {
	body := map[string]string{"username": username, "password": password}
	raw, err := c.do(ctx, http.MethodPost, constants.EndpointUser, body, callOpts{authenticated: true})
	if err != nil {
		return entity.BaseUser, err
	}

	var user entity.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return entity.BaseUser, common.WrapError(err, "decode user")
	}
	return user, nil
}

// Signup creates an account. The endpoint is unauthenticated; client-side
// validation is the caller's responsibility and happens before this call.
func (c *Client) Signup(ctx context.Context, username, email, password string) error {
	body := map[string]string{"username": username, "email": email, "password": password}
	_, err := c.do(ctx, http.MethodPost, constants.EndpointCreateUser, body, callOpts{})
	return err
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, constants.EndpointLogout, nil, callOpts{authenticated: true})
	return err
}

// CurrentUser fetches the logged-in user, re-deriving the session from the
// cookie at startup.
func (c *Client) CurrentUser(ctx context.Context) (entity.User, error) {
	raw, err := c.do(ctx, http.MethodGet, constants.EndpointUser, nil, callOpts{authenticated: true})
	if err != nil {
		return entity.BaseUser, err
	}

	var user entity.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return entity.BaseUser, common.WrapError(err, "decode user")
	}
	return user, nil
}

// DeleteAccount removes the logged-in account and everything it owns.
func (c *Client) DeleteAccount(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, constants.EndpointUser, nil, callOpts{authenticated: true})
	return err
}

// Figures fetches the monthly spend / savings summary.
func (c *Client) Figures(ctx context.Context) (entity.Figures, error) {
	raw, err := c.do(ctx, http.MethodGet, constants.EndpointFigures, nil, callOpts{authenticated: true})
	if err != nil {
		return entity.Figures{}, err
	}

	var figures entity.Figures
	if err := json.Unmarshal(raw, &figures); err != nil {
		return entity.Figures{}, common.WrapError(err, "decode figures")
	}
	return figures, nil
}

// ListReceipts fetches up to limit receipts. dateOrderType optionally names
// the timestamp column the backend orders by (e.g. "created_at").
func (c *Client) ListReceipts(ctx context.Context, limit int, dateOrderType string) ([]entity.Receipt, error) {
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if dateOrderType != "" {
		query.Set("dateordertype", dateOrderType)
	}

	raw, err := c.do(ctx, http.MethodGet, constants.EndpointGetReceipts, nil,
		callOpts{authenticated: true, query: query})
	if err != nil {
		return nil, err
	}

	var receipts []entity.Receipt
	if err := json.Unmarshal(raw, &receipts); err != nil {
		return nil, common.WrapError(err, "decode receipts")
	}
	return receipts, nil
}

// UploadReceipt posts a receipt image for server-side extraction and returns
// the created receipt.
func (c *Client) UploadReceipt(ctx context.Context, fileName string, file io.Reader) (entity.Receipt, error) {
	raw, err := c.upload(ctx, constants.EndpointCreateReceipt, "file", fileName, file)
	if err != nil {
		return entity.BaseReceipt, err
	}

	var receipt entity.Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return entity.BaseReceipt, common.WrapError(err, "decode receipt")
	}
	return receipt, nil
}

// GetReceipt fetches one receipt by UUID.
func (c *Client) GetReceipt(ctx context.Context, receiptUUID string) (entity.Receipt, error) {
	path := fmt.Sprintf(constants.EndpointReceipt, receiptUUID)
	raw, err := c.do(ctx, http.MethodGet, path, nil, callOpts{authenticated: true})
	if err != nil {
		return entity.BaseReceipt, err
	}

	var receipt entity.Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return entity.BaseReceipt, common.WrapError(err, "decode receipt")
	}
	return receipt, nil
}

// UpdateReceipt replaces a receipt's editable fields. The server recomputes
// the derived monetary fields and returns nothing the client relies on.
func (c *Client) UpdateReceipt(ctx context.Context, receipt entity.Receipt) error {
	path := fmt.Sprintf(constants.EndpointReceipt, receipt.ReceiptUUID)
	_, err := c.do(ctx, http.MethodPut, path, receipt, callOpts{authenticated: true})
	return err
}

// DeleteReceipt removes a receipt; its items cascade server-side.
func (c *Client) DeleteReceipt(ctx context.Context, receiptUUID string) error {
	path := fmt.Sprintf(constants.EndpointReceipt, receiptUUID)
	_, err := c.do(ctx, http.MethodDelete, path, nil, callOpts{authenticated: true})
	return err
}

// ListItems fetches the line items of a receipt.
func (c *Client) ListItems(ctx context.Context, receiptID string) ([]entity.Item, error) {
	path := fmt.Sprintf(constants.EndpointGetItems, receiptID)
	raw, err := c.do(ctx, http.MethodGet, path, nil, callOpts{authenticated: true})
	if err != nil {
		return nil, err
	}

	var items []entity.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, common.WrapError(err, "decode items")
	}
	return items, nil
}

// CreateItem adds a blank item to a receipt and returns it.
func (c *Client) CreateItem(ctx context.Context, receiptID string) (entity.Item, error) {
	path := fmt.Sprintf(constants.EndpointCreateItem, receiptID)
	raw, err := c.do(ctx, http.MethodPost, path, nil, callOpts{authenticated: true})
	if err != nil {
		return entity.BaseItem, err
	}

	var item entity.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return entity.BaseItem, common.WrapError(err, "decode item")
	}
	return item, nil
}

// UpdateItem replaces an item's fields in place.
func (c *Client) UpdateItem(ctx context.Context, item entity.Item) error {
	path := fmt.Sprintf(constants.EndpointItem, item.ItemUUID)
	_, err := c.do(ctx, http.MethodPut, path, item, callOpts{authenticated: true})
	return err
}

// DeleteItem removes a single item.
func (c *Client) DeleteItem(ctx context.Context, itemUUID string) error {
	path := fmt.Sprintf(constants.EndpointItem, itemUUID)
	_, err := c.do(ctx, http.MethodDelete, path, nil, callOpts{authenticated: true})
	return err
}

// CompareStore asks the backend to scrape a store for an item's current
// price. The scraped payload has an externally-controlled shape, so it is
// schema-validated before being decoded.
func (c *Client) CompareStore(ctx context.Context, store, item string) ([]entity.ComparedItem, error) {
	query := url.Values{"store": {store}, "item": {item}}
	raw, err := c.do(ctx, http.MethodGet, constants.EndpointScrapeStore, nil,
		callOpts{authenticated: true, query: query})
	if err != nil {
		return nil, err
	}

	if err := ValidateComparedItems(raw); err != nil {
		return nil, err
	}

	var compared []entity.ComparedItem
	if err := json.Unmarshal(raw, &compared); err != nil {
		return nil, common.WrapError(err, "decode compared items")
	}
	return compared, nil
}
