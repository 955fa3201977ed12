// Package notify delivers structured messages to a Discord webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/Galoup/HARDSTATS/pkg/logger"
)

const defaultTimeout = 25 * time.Second

// Field is one embed field.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Footer is the embed footer line.
type Footer struct {
	Text string `json:"text"`
}

// Embed is a Discord rich embed: title, body fields, accent color.
type Embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color"`
	Fields      []Field `json:"fields,omitempty"`
	Footer      *Footer `json:"footer,omitempty"`
}

// Attachment is a single binary file posted alongside the embed.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Sink accepts structured messages. Dry-run implementations preview instead
// of delivering.
type Sink interface {
	Send(ctx context.Context, embed Embed, attachment *Attachment) error
}

type payload struct {
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []Embed `json:"embeds"`
}

// DiscordWebhook posts embeds to one webhook URL. An empty URL forces
// dry-run, so a half-configured tracker never fails on delivery.
type DiscordWebhook struct {
	webhookURL string
	username   string
	avatarURL  string
	dryRun     bool
	httpClient *http.Client
	log        logger.Logger
}

// NewDiscordWebhook creates the sink.
func NewDiscordWebhook(webhookURL string, opts ...Option) *DiscordWebhook {
	d := &DiscordWebhook{
		webhookURL: strings.TrimSpace(webhookURL),
		username:   "OGame Stats",
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.webhookURL == "" {
		d.dryRun = true
	}
	return d
}

// Send delivers one embed, with an optional single attachment.
func (d *DiscordWebhook) Send(ctx context.Context, embed Embed, attachment *Attachment) error {
	body, err := json.Marshal(payload{
		Username:  d.username,
		AvatarURL: d.avatarURL,
		Embeds:    []Embed{embed},
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	if d.dryRun {
		d.log.Info("dry-run webhook payload", logger.String("payload", string(body)))
		if attachment != nil {
			d.log.Info("dry-run webhook attachment",
				logger.String("filename", attachment.Filename),
				logger.Int("bytes", len(attachment.Data)))
		}
		return nil
	}

	if attachment != nil {
		return d.postMultipart(ctx, body, attachment)
	}
	return d.post(ctx, "application/json", bytes.NewReader(body))
}

// postMultipart uploads the payload plus one file. Discord expects the JSON
// under "payload_json" and the file under "files[0]".
func (d *DiscordWebhook) postMultipart(ctx context.Context, payloadJSON []byte, attachment *Attachment) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	jsonHeader := textproto.MIMEHeader{}
	jsonHeader.Set("Content-Disposition", `form-data; name="payload_json"`)
	jsonHeader.Set("Content-Type", "application/json")
	jsonPart, err := mw.CreatePart(jsonHeader)
	if err != nil {
		return fmt.Errorf("build multipart payload: %w", err)
	}
	if _, err := jsonPart.Write(payloadJSON); err != nil {
		return fmt.Errorf("build multipart payload: %w", err)
	}

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="files[0]"; filename=%q`, attachment.Filename))
	contentType := attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	fileHeader.Set("Content-Type", contentType)
	filePart, err := mw.CreatePart(fileHeader)
	if err != nil {
		return fmt.Errorf("build multipart attachment: %w", err)
	}
	if _, err := filePart.Write(attachment.Data); err != nil {
		return fmt.Errorf("build multipart attachment: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("build multipart body: %w", err)
	}

	return d.post(ctx, mw.FormDataContentType(), &buf)
}

func (d *DiscordWebhook) post(ctx context.Context, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, body)
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
