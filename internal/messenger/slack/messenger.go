package slack

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/crewhub/internal/messenger"
)

// SlackAPI abstracts the subset of the Slack client used by SlackMessenger.
// *slacklib.Client satisfies it.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// SlackMessenger implements messenger.Messenger for Slack.
type SlackMessenger struct {
	api SlackAPI
}

var _ messenger.Messenger = (*SlackMessenger)(nil) //nolint:gochecknoglobals // compile-time check

func NewSlackMessenger(api SlackAPI) *SlackMessenger {
	return &SlackMessenger{api: api}
}

// NewFromToken builds a messenger backed by the real Slack Web API.
func NewFromToken(botToken string) *SlackMessenger {
	return NewSlackMessenger(slacklib.New(botToken))
}

// SendMessage posts msg as Block Kit blocks with a plain-text fallback and
// returns the message timestamp as MessageID.
func (m *SlackMessenger) SendMessage(ctx context.Context, channelID string, msg messenger.Message) (messenger.MessageID, error) {
	_, ts, err := m.api.PostMessageContext(ctx, channelID,
		slacklib.MsgOptionText(msg.PlainText(), false),
		slacklib.MsgOptionBlocks(BuildMessageBlocks(msg)...),
	)
	if err != nil {
		return "", fmt.Errorf("slack.SlackMessenger.SendMessage: %w", err)
	}

	return messenger.MessageID(ts), nil
}

func (m *SlackMessenger) Platform() string {
	return "slack"
}
