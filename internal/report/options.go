package report

import (
	"time"

	"github.com/Galoup/HARDSTATS/pkg/logger"
)

// RendererOption customizes a Renderer.
type RendererOption func(*Renderer)

// WithRendererLogger sets the renderer logger.
func WithRendererLogger(l logger.Logger) RendererOption {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// PublisherOption customizes a Publisher.
type PublisherOption func(*Publisher)

// WithLatestFilename overrides the name of the always-fresh copy.
func WithLatestFilename(name string) PublisherOption {
	return func(p *Publisher) {
		if name != "" {
			p.latestFilename = name
		}
	}
}

// WithKeepHistory toggles the dated copies.
func WithKeepHistory(keep bool) PublisherOption {
	return func(p *Publisher) { p.keepHistory = keep }
}

// WithGenerateIndex toggles index.html regeneration.
func WithGenerateIndex(generate bool) PublisherOption {
	return func(p *Publisher) { p.generateIndex = generate }
}

// WithPublisherClock overrides the time source, for tests.
func WithPublisherClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// WithPublisherLogger sets the publisher logger.
func WithPublisherLogger(l logger.Logger) PublisherOption {
	return func(p *Publisher) {
		if l != nil {
			p.log = l
		}
	}
}
