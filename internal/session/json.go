package session

import (
	"context"
	"fmt"
	"net/http"
)

// Requester is the part of Client the endpoint wrappers need.
type Requester interface {
	Do(ctx context.Context, method string, path string, body any) (*Response, error)
}

var _ Requester = (*Client)(nil)

// GetJSON issues a GET and decodes a 2xx body into v.
func GetJSON(ctx context.Context, r Requester, path string, v any) error {
	resp, err := r.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: GET %s: %d", ErrUnexpectedStatus, path, resp.StatusCode)
	}
	if err := resp.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
