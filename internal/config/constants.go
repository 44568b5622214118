package config

import "time"

const (
	// Relay
	ErrorPreviewLength = 200
	TimestampLayout    = "2006-01-02 15:04:05"
	MaxCaptionLength   = 1024
	MaxTextLength      = 4096

	// Transport
	DefaultReconnectDelay = 15 * time.Second
	DefaultPollTimeout    = 60

	// Admin CLI
	DefaultPendingListLimit = 20
	DefaultBanReason        = "Banned via admin CLI"
)
