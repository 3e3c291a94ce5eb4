package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/logger"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/persistence"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/realtime/types"
	"github.com/tuvistavie/securerandom"
	"go.uber.org/zap"
)

var (
	centrifugoConfig *types.Config
	httpClient       = &http.Client{Timeout: 10 * time.Second}
)

// Init configures publishing. Unless replay is disabled it also prunes the
// replay table until ctx is done.
func Init(ctx context.Context, c *types.Config) {
	centrifugoConfig = c

	if c.DisableReplay {
		return
	}

	// this needs to be spun off into something that
	// won't run on each replica
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pruneReplay(ctx)
			}
		}
	}()
}

func pruneReplay(ctx context.Context) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	_, err := conn.Exec(ctx, `DELETE FROM realtime_replay WHERE created_at < NOW() - INTERVAL '10 seconds'`)
	if err != nil {
		logger.Errorf("Failed to delete old realtime_replay records: %v", err)
	}
}

// SendEvent publishes e on each recipient's personal channel. Delivery
// failures are logged, not returned: a missed push is recovered by the client
// reloading the queue.
func SendEvent(ctx context.Context, r types.Recipient, e types.Event) error {
	messageData, err := e.GetMessageData()
	if err != nil {
		return err
	}

	for _, userID := range r.GetUserIDs() {
		if centrifugoConfig == nil || !centrifugoConfig.DisableReplay {
			if err := storeEventForReplay(ctx, userID, e, messageData); err != nil {
				logger.Errorf("Failed to store event for replay: %v", err)
			}
		}

		if err := sendMessage(ctx, UserChannelName(e, userID), messageData); err != nil {
			logger.Warn("Failed to send message to user",
				zap.String("userId", userID),
				zap.Error(err))
		}
	}

	return nil
}

func UserChannelName(e types.Event, userID string) string {
	return fmt.Sprintf("%s#%s", e.GetChannelName(), userID)
}

func storeEventForReplay(ctx context.Context, userID string, e types.Event, messageData map[string]interface{}) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	id, err := securerandom.Hex(16)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO realtime_replay (id, created_at, user_id, channel_name, message_data)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = conn.Exec(ctx, query, id, time.Now(), userID, e.GetChannelName(), messageData)
	if err != nil {
		return err
	}

	return nil
}

// Ping checks Centrifugo with an info call.
func Ping(ctx context.Context) error {
	if centrifugoConfig == nil {
		return fmt.Errorf("centrifugo config not initialized")
	}

	return callCentrifugo(ctx, map[string]interface{}{
		"method": "info",
	})
}

func sendMessage(ctx context.Context, channelName string, data map[string]interface{}) error {
	if centrifugoConfig == nil {
		return fmt.Errorf("centrifugo config not initialized")
	}

	return callCentrifugo(ctx, map[string]interface{}{
		"method": "publish",
		"params": map[string]interface{}{
			"channel": channelName,
			"data":    data,
		},
	})
}

func callCentrifugo(ctx context.Context, requestBody map[string]interface{}) error {
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", centrifugoConfig.Address, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "apikey "+centrifugoConfig.APIKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request to Centrifugo server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("centrifugo request failed with status code: %d", resp.StatusCode)
	}

	return nil
}
