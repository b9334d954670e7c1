package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"breadit/models"
)

// ErrUnauthenticated 服务端返回 401，界面应提示登录
var ErrUnauthenticated = errors.New("client: login required")

// StatusError 其余非 2xx 响应
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: vote rejected with status %d: %s", e.Code, e.Body)
}

// HTTPVoter 通过 PATCH /api/subreddit/post/vote 提交投票
type HTTPVoter struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewHTTPVoter(baseURL, token string) *HTTPVoter {
	return &HTTPVoter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *HTTPVoter) Vote(ctx context.Context, postID string, t models.VoteType) error {
	payload, err := json.Marshal(map[string]string{"postId": postID, "voteType": string(t)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, v.BaseURL+"/api/subreddit/post/vote", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if v.Token != "" {
		token := v.Token
		if !strings.HasPrefix(token, "Bearer ") {
			token = "Bearer " + token
		}
		req.Header.Set("Authorization", token)
	}

	resp, err := v.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("client: send vote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
