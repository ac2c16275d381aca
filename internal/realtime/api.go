package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"showme/internal/common"
)

// ChatAPI is the REST collaborator behind the historical fetch.
type ChatAPI interface {
	ConversationHistory(ctx context.Context, otherUsername string) ([]common.ChatMessage, error)
}

// NotificationAPI is the REST collaborator behind the notification poll.
// MarkRead exists even though MarkAllRead never calls it; callers wanting
// server-confirmed reads go through it per notification.
type NotificationAPI interface {
	Notifications(ctx context.Context) ([]common.Notification, error)
	MarkRead(ctx context.Context, id uint) error
}

// APIClient implements both collaborators over HTTP with a bearer credential.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{},
	}
}

func (c *APIClient) ConversationHistory(ctx context.Context, otherUsername string) ([]common.ChatMessage, error) {
	endpoint := fmt.Sprintf("%s/chat/conversation/%s", c.baseURL, url.PathEscape(otherUsername))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var messages []common.ChatMessage
	if err := json.Unmarshal(body, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return messages, nil
}

// Notifications accepts both response shapes the backend has used: a bare
// array and an object wrapping it under "notifications".
func (c *APIClient) Notifications(ctx context.Context) ([]common.Notification, error) {
	body, err := c.get(ctx, c.baseURL+"/notifications")
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var notifications []common.Notification
		if err := json.Unmarshal(trimmed, &notifications); err != nil {
			return nil, fmt.Errorf("failed to decode notifications: %w", err)
		}
		return notifications, nil
	}

	var wrapped struct {
		Notifications []common.Notification `json:"notifications"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return wrapped.Notifications, nil
}

func (c *APIClient) MarkRead(ctx context.Context, id uint) error {
	endpoint := fmt.Sprintf("%s/notifications/%d/read", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mark read failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *APIClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
