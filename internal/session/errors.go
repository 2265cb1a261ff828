package session

import "errors"

var (
	ErrServiceNotFound   = errors.New("local client service not found")
	ErrCredentialMissing = errors.New("client port or credential missing")
	ErrTransport         = errors.New("transport error")
	ErrUnsupportedMethod = errors.New("unsupported method")
)

var ErrUnexpectedStatus = errors.New("unexpected status")
