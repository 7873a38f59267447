package roles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// RESTClient talks to the chat-platform gateway's role and messaging
// API. It implements both Provider and Announcer.
type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRESTClient builds a client authenticating with a static bearer
// token via oauth2. A nil-token client is allowed for local runs
// against an unauthenticated stub gateway.
func NewRESTClient(baseURL, token string) *RESTClient {
	var hc *http.Client
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		hc = oauth2.NewClient(context.Background(), src)
	} else {
		hc = &http.Client{}
	}
	hc.Timeout = 10 * time.Second
	return &RESTClient{baseURL: baseURL, httpClient: hc}
}

func (c *RESTClient) Member(ctx context.Context, groupID, memberID int64) (*Member, error) {
	url := fmt.Sprintf("%s/groups/%d/members/%d", c.baseURL, groupID, memberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return nil, err
	}
	var m Member
	if err := json.NewDecoder(res.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode member: %w", err)
	}
	return &m, nil
}

func (c *RESTClient) AddRole(ctx context.Context, groupID, memberID int64, role string) error {
	url := fmt.Sprintf("%s/groups/%d/members/%d/roles/%s", c.baseURL, groupID, memberID, neturl.PathEscape(role))
	return c.roleCall(ctx, http.MethodPut, url)
}

func (c *RESTClient) RemoveRole(ctx context.Context, groupID, memberID int64, role string) error {
	url := fmt.Sprintf("%s/groups/%d/members/%d/roles/%s", c.baseURL, groupID, memberID, neturl.PathEscape(role))
	return c.roleCall(ctx, http.MethodDelete, url)
}

func (c *RESTClient) roleCall(ctx context.Context, method, url string) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)
	return checkStatus(res)
}

// Post sends a message. The nonce lets the gateway deduplicate a
// resubmitted request.
func (c *RESTClient) Post(ctx context.Context, channelID int64, message string) error {
	payload, err := json.Marshal(map[string]string{
		"content": message,
		"nonce":   uuid.NewString(),
	})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/channels/%d/messages", c.baseURL, channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)
	return checkStatus(res)
}

func checkStatus(res *http.Response) error {
	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return nil
	case res.StatusCode == http.StatusForbidden || res.StatusCode == http.StatusUnauthorized:
		return ErrPermissionDenied
	case res.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("gateway status %d", res.StatusCode)
	}
}
