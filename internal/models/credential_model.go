package models

import "time"

type MetaPage struct {
	PageID             string `json:"page_id"`
	PageName           string `json:"page_name"`
	InstagramAccountID string `json:"instagram_account_id"`
}

// TokenBundle is the decrypted token material for one (client, platform family).
type TokenBundle struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenURI     string     `json:"token_uri,omitempty"`
	ClientID     string     `json:"client_id,omitempty"`
	ClientSecret string     `json:"client_secret,omitempty"`
	Scopes       []string   `json:"scopes,omitempty"`
	Expiry       time.Time  `json:"expiry,omitempty"`
	OpenID       string     `json:"open_id,omitempty"`
	Pages        []MetaPage `json:"pages,omitempty"`
	ActivePageID string     `json:"active_page_id,omitempty"`
}

// ActivePage returns the selected Page/Instagram pairing, falling back to the first one.
func (b *TokenBundle) ActivePage() (MetaPage, bool) {
	for _, p := range b.Pages {
		if p.PageID == b.ActivePageID {
			return p, true
		}
	}
	if b.ActivePageID == "" && len(b.Pages) > 0 {
		return b.Pages[0], true
	}
	return MetaPage{}, false
}

type SocialCredential struct {
	ID        int64        `db:"id" json:"id"`
	ClientID  int64        `db:"client_id" json:"client_id"`
	Platform  string       `db:"platform" json:"platform"`
	TokenData *TokenBundle `db:"token_data" json:"-"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}
