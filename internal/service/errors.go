package service

import "errors"

var (
	ErrRemoteRejected     = errors.New("remote platform rejected the request")
	ErrProcessingFailed   = errors.New("remote processing failed")
	ErrProcessingTimeout  = errors.New("remote processing did not finish in time")
	ErrTokenRefresh       = errors.New("token refresh failed")
	ErrNoCredentialStore  = errors.New("no credential store to persist refreshed token")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrUnknownPlatform    = errors.New("unknown platform")
	ErrNoMediaURL         = errors.New("no public media url")
	ErrForeignMedia       = errors.New("media belongs to another client")
)
