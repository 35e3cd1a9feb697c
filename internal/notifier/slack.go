package notifier

import (
	"context"
	"errors"
	"fmt"
	"github.com/clambin/tank-monitor/internal/tank"
	"github.com/slack-go/slack"
	"log/slog"
	"sync"
)

// AllChannels, used as a Slack recipient, posts the message to every channel the bot is a member of.
const AllChannels = "*"

type SlackNotifier struct {
	Logger *slog.Logger
	SlackSender
	userID string
	lock   sync.Mutex
}

type SlackSender interface {
	PostMessageContext(context.Context, string, ...slack.MsgOption) (string, string, error)
	GetConversationsContext(context.Context, *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	AuthTestContext(context.Context) (*slack.AuthTestResponse, error)
}

var _ Notifier = &SlackNotifier{}

func (s *SlackNotifier) Notify(ctx context.Context, msg Message) error {
	channels, err := s.resolve(ctx, msg.Recipients.Slack)
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return ErrNoRecipients
	}
	var errs []error
	for _, channel := range channels {
		s.Logger.Debug("notifying on slack", "channel", channel)
		_, _, err = s.SlackSender.PostMessageContext(ctx, channel, slack.MsgOptionAttachments(slack.Attachment{
			Color: color(msg.Event),
			Title: msg.Title,
			Text:  msg.Text,
		}))
		if err != nil {
			errs = append(errs, fmt.Errorf("post %s: %w", channel, err))
		}
	}
	return errors.Join(errs...)
}

func (s *SlackNotifier) resolve(ctx context.Context, recipients []string) ([]string, error) {
	var channels []string
	for _, recipient := range recipients {
		if recipient != AllChannels {
			channels = append(channels, recipient)
			continue
		}
		joined, err := s.getChannels(ctx)
		if err != nil {
			return nil, fmt.Errorf("slack channels: %w", err)
		}
		for _, channel := range joined {
			channels = append(channels, channel.ID)
		}
	}
	return channels, nil
}

func (s *SlackNotifier) getChannels(ctx context.Context) ([]slack.Channel, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.userID == "" {
		authResp, err := s.SlackSender.AuthTestContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("AuthTest: %w", err)
		}
		s.userID = authResp.UserID
	}

	var joinedChannels []slack.Channel
	var cursor string
	for {
		channels, nextCursor, err := s.SlackSender.GetConversationsContext(ctx, &slack.GetConversationsParameters{Cursor: cursor, Limit: 100})
		if err != nil {
			return nil, err
		}
		for _, channel := range channels {
			if channel.IsMember && !channel.IsArchived {
				joinedChannels = append(joinedChannels, channel)
			}
		}
		if cursor = nextCursor; cursor == "" {
			break
		}
	}
	return joinedChannels, nil
}

func color(e tank.Event) string {
	switch e {
	case tank.OverflowEvent, tank.CriticalEvent:
		return "danger"
	case tank.WarningEvent, tank.LossEvent, tank.InvalidEvent:
		return "warning"
	}
	return "good"
}
