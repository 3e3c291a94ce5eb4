package listener

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/logger"
	"go.uber.org/zap"
)

type handlerFunc func(ctx context.Context, payload string) error

func StartListeners(ctx context.Context) error {
	l := NewListener()

	l.AddHandler(ChannelResolveWorkQueue, 10, time.Second*30, wrap(ctx, ChannelResolveWorkQueue, handleResolveWorkQueueNotification), nil)

	l.AddHandler(ChannelGenerateDrafts, 5, time.Minute*10, wrap(ctx, ChannelGenerateDrafts, handleGenerateDraftsNotification), bundleLockKeyExtractor)

	l.AddHandler(ChannelRequestApproval, 5, time.Minute, wrap(ctx, ChannelRequestApproval, handleRequestApprovalNotification), bundleLockKeyExtractor)

	l.AddHandler(ChannelReviewApproval, 5, time.Minute, wrap(ctx, ChannelReviewApproval, handleReviewApprovalNotification), bundleLockKeyExtractor)

	l.AddHandler(ChannelApplyBundle, 5, time.Minute*5, wrap(ctx, ChannelApplyBundle, handleApplyBundleNotification), bundleLockKeyExtractor)

	if err := l.Start(ctx); err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}
	defer l.Stop(ctx)

	StartHeartbeat(ctx)

	// wait for ctx to be done
	<-ctx.Done()

	return nil
}

// wrap adapts a handler to the listener. Permanent failures are logged and
// reported as success so the message is not retried.
func wrap(ctx context.Context, channel string, h handlerFunc) NotificationHandler {
	return func(notification *pgconn.Notification) error {
		err := h(ctx, notification.Payload)
		if err == nil {
			return nil
		}

		if isPermanent(err) {
			logger.Warn("Dropping work item",
				zap.String("channel", channel),
				zap.Error(err))
			return nil
		}

		logger.Error(fmt.Errorf("failed to handle %s notification: %w", channel, err))
		return err
	}
}
