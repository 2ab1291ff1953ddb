package backend

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// GetAccount fetches the patron account, optionally embedding loans, charges,
// and holds.
func (c *Client) GetAccount(
	ctx context.Context, session Session, patronID string,
	includeLoans, includeCharges, includeHolds bool, callerHeaders http.Header,
) (*http.Response, error) {
	query := url.Values{}
	query.Set("includeLoans", strconv.FormatBool(includeLoans))
	query.Set("includeCharges", strconv.FormatBool(includeCharges))
	query.Set("includeHolds", strconv.FormatBool(includeHolds))

	return c.invoke(ctx, session, "get_account", http.MethodGet,
		"/patron/account/"+patronID, query, callerHeaders, nil)
}

// RenewItem renews a loan for the given item.
func (c *Client) RenewItem(
	ctx context.Context, session Session, patronID, itemID string, callerHeaders http.Header,
) (*http.Response, error) {
	return c.invoke(ctx, session, "renew_item", http.MethodPost,
		"/patron/account/"+patronID+"/item/"+itemID+"/renew", nil, callerHeaders, nil)
}

// PlaceItemHold places a hold on an item, forwarding the caller's hold
// payload verbatim.
func (c *Client) PlaceItemHold(
	ctx context.Context, session Session, patronID, itemID string,
	body io.Reader, callerHeaders http.Header,
) (*http.Response, error) {
	return c.invoke(ctx, session, "place_item_hold", http.MethodPost,
		"/patron/account/"+patronID+"/item/"+itemID+"/hold", nil, callerHeaders, body)
}

// EditItemHold edits an existing hold on an item.
func (c *Client) EditItemHold(
	ctx context.Context, session Session, patronID, itemID, holdID string, callerHeaders http.Header,
) (*http.Response, error) {
	return c.invoke(ctx, session, "edit_item_hold", http.MethodPut,
		"/patron/account/"+patronID+"/item/"+itemID+"/hold/"+holdID, nil, callerHeaders, nil)
}

// RemoveItemHold removes an existing hold on an item.
func (c *Client) RemoveItemHold(
	ctx context.Context, session Session, patronID, itemID, holdID string, callerHeaders http.Header,
) (*http.Response, error) {
	return c.invoke(ctx, session, "remove_item_hold", http.MethodDelete,
		"/patron/account/"+patronID+"/item/"+itemID+"/hold/"+holdID, nil, callerHeaders, nil)
}

// PlaceInstanceHold places a title-level hold on an instance, forwarding the
// caller's hold payload verbatim.
func (c *Client) PlaceInstanceHold(
	ctx context.Context, session Session, patronID, instanceID string,
	body io.Reader, callerHeaders http.Header,
) (*http.Response, error) {
	return c.invoke(ctx, session, "place_instance_hold", http.MethodPost,
		"/patron/account/"+patronID+"/instance/"+instanceID+"/hold", nil, callerHeaders, body)
}

// EditInstanceHold edits an existing title-level hold.
func (c *Client) EditInstanceHold(
	ctx context.Context, session Session, patronID, instanceID, holdID string, callerHeaders http.Header,
) (*http.Response, error) {
	return c.invoke(ctx, session, "edit_instance_hold", http.MethodPut,
		"/patron/account/"+patronID+"/instance/"+instanceID+"/hold/"+holdID, nil, callerHeaders, nil)
}

// RemoveInstanceHold removes an existing title-level hold.
func (c *Client) RemoveInstanceHold(
	ctx context.Context, session Session, patronID, instanceID, holdID string, callerHeaders http.Header,
) (*http.Response, error) {
	return c.invoke(ctx, session, "remove_instance_hold", http.MethodDelete,
		"/patron/account/"+patronID+"/instance/"+instanceID+"/hold/"+holdID, nil, callerHeaders, nil)
}
