package slack

import (
	"fmt"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/logger"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/slack/types"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

var (
	slackClient  *slack.Client
	slackChannel string
)

// Init configures the client. With an empty token notifications are dropped.
func Init(token string, channel string, options ...slack.Option) {
	slackChannel = channel
	if token == "" {
		slackClient = nil
		return
	}
	slackClient = slack.New(token, options...)
}

func BuildBlocks(e types.SlackNotification) []slack.Block {
	headerSection := slack.NewSectionBlock(e.GetHeader(), nil, nil)
	fieldsSection := slack.NewSectionBlock(nil, e.GetTextBlockObjects(), nil)

	blocks := make([]slack.Block, 0)
	blocks = append(blocks, *headerSection)
	blocks = append(blocks, *fieldsSection)
	return blocks
}

func SendNotificationToSlack(e types.SlackNotification) error {
	if e == nil {
		return nil
	}

	if slackClient == nil || slackChannel == "" {
		logger.Debug("Slack not configured, dropping notification", zap.String("id", e.GetID()))
		return nil
	}

	msg := slack.NewBlockMessage(BuildBlocks(e)...)

	options := []slack.MsgOption{slack.MsgOptionBlocks(msg.Msg.Blocks.BlockSet...)}
	options = append(options, e.GetMessageOptions()...)

	_, _, err := slackClient.PostMessage(slackChannel, options...)
	if err != nil {
		return fmt.Errorf("failed to send slack message: %w", err)
	}

	return nil
}
