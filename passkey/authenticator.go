package passkey

import (
	"context"
	"encoding/json"
)

// Authenticator performs the device side of a WebAuthn ceremony. It receives the server's publicKey options
// and returns the credential JSON the server expects back.
type Authenticator interface {
	CreateCredential(ctx context.Context, publicKey json.RawMessage) (json.RawMessage, error)
	GetAssertion(ctx context.Context, publicKey json.RawMessage) (json.RawMessage, error)
}
