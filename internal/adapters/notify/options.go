package notify

import (
	"net/http"

	"github.com/Galoup/HARDSTATS/pkg/logger"
)

// Option applies a configuration option to the DiscordWebhook.
type Option func(*DiscordWebhook)

// WithUsername overrides the webhook display name.
func WithUsername(name string) Option {
	return func(d *DiscordWebhook) {
		if name != "" {
			d.username = name
		}
	}
}

// WithAvatarURL sets the webhook avatar.
func WithAvatarURL(url string) Option {
	return func(d *DiscordWebhook) { d.avatarURL = url }
}

// WithDryRun previews payloads in the log instead of delivering them.
func WithDryRun(dryRun bool) Option {
	return func(d *DiscordWebhook) { d.dryRun = dryRun }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(d *DiscordWebhook) {
		if hc != nil {
			d.httpClient = hc
		}
	}
}

// WithLogger sets the logging handle.
func WithLogger(l logger.Logger) Option {
	return func(d *DiscordWebhook) {
		if l != nil {
			d.log = l
		}
	}
}
