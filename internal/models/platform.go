package models

import (
	"fmt"
	"strings"
)

type Platform string

const (
	PlatformYoutube   Platform = "youtube"
	PlatformTiktok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
)

// CredentialKeyMeta is the shared credential record for Instagram and Facebook.
const CredentialKeyMeta = "meta"

var Platforms = []Platform{PlatformYoutube, PlatformTiktok, PlatformInstagram, PlatformFacebook}

func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PlatformYoutube, PlatformTiktok, PlatformInstagram, PlatformFacebook:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// CredentialKey is the platform-family key used by the credential store.
func (p Platform) CredentialKey() string {
	switch p {
	case PlatformInstagram, PlatformFacebook:
		return CredentialKeyMeta
	}
	return string(p)
}

// Refreshable reports whether the driver may persist a refreshed bundle.
func (p Platform) Refreshable() bool {
	return p == PlatformYoutube || p == PlatformTiktok
}
