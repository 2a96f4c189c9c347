package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"codewhisperer/metrics"

	"github.com/sirupsen/logrus"
)

// Notifier tells the live-update relay that a leaderboard changed
type Notifier interface {
	LeaderboardChanged(ctx context.Context, questionCode string) error
}

// RelayNotifier posts to the relay's emit endpoint
type RelayNotifier struct {
	baseURL string
	client  *http.Client
}

func NewRelayNotifier(baseURL string, timeout time.Duration) *RelayNotifier {
	return &RelayNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type emitRequest struct {
	QuestionID string `json:"questionId"`
}

func (n *RelayNotifier) LeaderboardChanged(ctx context.Context, questionCode string) error {
	body, err := json.Marshal(emitRequest{QuestionID: questionCode})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/emit-leaderboard-update", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay answered %s", resp.Status)
	}
	return nil
}

// NopNotifier is used when no relay is configured
type NopNotifier struct{}

func (NopNotifier) LeaderboardChanged(ctx context.Context, questionCode string) error { return nil }

// NewNotifier picks the relay notifier when a relay URL is configured
func NewNotifier(socketURL string, timeout time.Duration) Notifier {
	if socketURL == "" {
		return NopNotifier{}
	}
	return NewRelayNotifier(socketURL, timeout)
}

// notifyAsync pings the relay off the request path; failures are logged and dropped
func notifyAsync(n Notifier, timeout time.Duration, questionCode string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := n.LeaderboardChanged(ctx, questionCode); err != nil {
			metrics.RelayNotifications.WithLabelValues("failed").Inc()
			logrus.WithError(err).WithField("question", questionCode).Warn("Failed to notify relay of leaderboard update")
			return
		}
		metrics.RelayNotifications.WithLabelValues("sent").Inc()
	}()
}
