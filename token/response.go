package token

// Response is the body returned by the renewal endpoint and by a finished passkey ceremony.
type Response struct {
	// AccessToken is the short-lived JWT presented as "Authorization: Bearer <access_token>".
	AccessToken *string `json:"access_token,omitempty"`

	// RefreshToken is the long-lived credential used only against the renewal endpoint.
	// It rotates on every renewal.
	RefreshToken *string `json:"refresh_token,omitempty"`
}
