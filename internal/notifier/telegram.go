package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const telegramAPI = "https://api.telegram.org"

type TelegramNotifier struct {
	Token      string
	ChatID     string
	Retries    int
	RetryDelay time.Duration

	baseURL    string
	httpClient *http.Client
}

func NewTelegramNotifier(token, chatID string, retries int, delay time.Duration) *TelegramNotifier {
	if retries < 1 {
		retries = 1
	}
	return &TelegramNotifier{
		Token:      token,
		ChatID:     chatID,
		Retries:    retries,
		RetryDelay: delay,
		baseURL:    telegramAPI,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Send(ctx context.Context, message string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.Token)
	form := url.Values{
		"chat_id": {t.ChatID},
		"text":    {message},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram send failed: %s", resp.Status)
	}
	return nil
}

// SendWithRetry tries Send up to Retries times, sleeping RetryDelay between
// attempts, and returns the last error.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, message string) error {
	var err error
	for attempt := 1; attempt <= t.Retries; attempt++ {
		if err = t.Send(ctx, message); err == nil {
			return nil
		}
		if attempt == t.Retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.RetryDelay):
		}
	}
	return fmt.Errorf("telegram send failed after %d attempts: %w", t.Retries, err)
}
