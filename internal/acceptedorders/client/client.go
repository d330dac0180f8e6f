// Package client talks to the accepted-orders REST store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
)

const collectionPath = "/acceptedOrders"

// Client implements acceptedorders.Store over HTTP. It performs no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a client for the store at baseURL. A nil httpClient gets a
// default client with a 30 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// FetchAll loads the full accepted order collection.
func (c *Client) FetchAll(ctx context.Context) ([]acceptedorders.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+collectionPath, nil)
	if err != nil {
		return nil, &acceptedorders.TransportError{Op: "fetch", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	var orders []acceptedorders.Order
	if err := c.do(req, "fetch", "", &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []acceptedorders.Order{}
	}
	return orders, nil
}

// Update replaces the stored order with id by order. The whole document is sent.
func (c *Client) Update(ctx context.Context, id string, order acceptedorders.Order) (acceptedorders.Order, error) {
	order.ID = id
	body, err := json.Marshal(order)
	if err != nil {
		return acceptedorders.Order{}, &acceptedorders.TransportError{Op: "update", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.itemURL(id), bytes.NewReader(body))
	if err != nil {
		return acceptedorders.Order{}, &acceptedorders.TransportError{Op: "update", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var updated acceptedorders.Order
	if err := c.do(req, "update", id, &updated); err != nil {
		return acceptedorders.Order{}, err
	}
	return updated, nil
}

// Remove deletes the order with id. Removing an id twice fails with ErrNotFound.
func (c *Client) Remove(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.itemURL(id), nil)
	if err != nil {
		return &acceptedorders.TransportError{Op: "remove", Err: err}
	}
	return c.do(req, "remove", id, nil)
}

func (c *Client) itemURL(id string) string {
	return c.baseURL + collectionPath + "/" + url.PathEscape(id)
}

func (c *Client) do(req *http.Request, op, id string, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &acceptedorders.TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound && id != "" {
		return fmt.Errorf("%s %s: %w", op, id, acceptedorders.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &acceptedorders.TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &acceptedorders.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

var _ acceptedorders.Store = (*Client)(nil)
