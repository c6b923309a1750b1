package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/facwatch/internal/model"
)

// WebhookNotifier POSTs a JSON payload to a fixed endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	TargetID    string          `json:"target_id"`
	DisplayName string          `json:"display_name"`
	URL         string          `json:"url"`
	Count       int             `json:"count"`
	Added       []webhookPerson `json:"added"`
	At          time.Time       `json:"at"`
}

type webhookPerson struct {
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	Email      string `json:"email,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
}

func NewWebhook(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

func (w *WebhookNotifier) Notify(ctx context.Context, target model.Target, added []model.PersonRecord) error {
	if len(added) == 0 {
		return nil
	}

	payload := webhookPayload{
		TargetID:    target.ID,
		DisplayName: target.DisplayName,
		URL:         target.URL,
		Count:       len(added),
		At:          time.Now().UTC(),
	}
	for _, rec := range added {
		payload.Added = append(payload.Added, webhookPerson{
			Name:       rec.Name,
			Title:      rec.Title,
			Email:      rec.Email,
			ProfileURL: rec.ProfileURL,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "webhook: marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "webhook: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "webhook: post")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return eris.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
