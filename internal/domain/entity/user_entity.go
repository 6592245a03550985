package entity

import (
	"encoding/json"
	"time"
)

// Provider is the identity namespace a user signed up through.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
)

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	return p == ProviderGoogle || p == ProviderFacebook
}

// UserRecord is the aggregate root for the identity domain.
// (Provider, ProviderID) is the natural key: at most one record exists per pair,
// enforced by a UNIQUE constraint in storage. ID is allocated once at first
// registration and stays stable for the life of the account.
//
// For google accounts ProviderID is an email-shaped handle; for facebook it is
// a profile URL. The string is self-asserted by the client; see
// application.IdentityVerifier for the verification seam.
type UserRecord struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Provider           Provider      `json:"provider"`
	ProviderID         string        `json:"provider_id"`
	DateOfBirth        string        `json:"date_of_birth,omitempty"`
	Bio                string        `json:"bio,omitempty"`
	Links              []ProfileLink `json:"links,omitempty"`
	ContactEmail       string        `json:"contact_email,omitempty"`
	ContactFacebookURL string        `json:"contact_facebook_url,omitempty"`
	PhoneNumber        string        `json:"phone_number,omitempty"`
	CVFileURL          string        `json:"cv_file_url,omitempty"`
	PortfolioFileURL   string        `json:"portfolio_file_url,omitempty"`
	AvatarURL          string        `json:"avatar_url,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// PublicProfile is the read-only projection shown on a post card.
// Looked up by display name, which is not unique; display use only, never auth.
type PublicProfile struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Bio       string        `json:"bio,omitempty"`
	AvatarURL string        `json:"avatar_url,omitempty"`
	Links     []ProfileLink `json:"links,omitempty"`
}

// Public returns the display projection of u.
func (u *UserRecord) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Name:      u.Name,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		Links:     u.Links,
	}
}

// ProfileLink is a free-form profile link. Clients historically send links either
// as a bare URL string or as a {title, url} object; both wire shapes decode into
// this one normalized form.
type ProfileLink struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}

// UnmarshalJSON accepts "https://..." as well as {"title": "...", "url": "..."}.
func (l *ProfileLink) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		l.Title = ""
		l.URL = s
		return nil
	}
	type alias ProfileLink
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*l = ProfileLink(a)
	return nil
}
