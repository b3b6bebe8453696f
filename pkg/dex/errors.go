// Package dex holds the error taxonomy shared by the exchange core.
// Every failure an operation can surface is one of these sentinels,
// possibly wrapped with context; callers match with errors.Is.
package dex

import "errors"

var (
	ErrNotAuthorized            = errors.New("only admin allowed")
	ErrAlreadyRegistered        = errors.New("token already exists")
	ErrUnknownAsset             = errors.New("token does not exist")
	ErrQuoteNotTradable         = errors.New("quote token not tradable")
	ErrInsufficientBalance      = errors.New("balance insufficient")
	ErrInsufficientQuoteBalance = errors.New("quote balance insufficient")
	ErrInsufficientAssetBalance = errors.New("token balance insufficient")
	ErrTransferFailed           = errors.New("external transfer failed")
)
