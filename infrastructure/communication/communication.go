package communication

import (
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
)

// Notifier tells administrators about punches and failures.
type Notifier interface {
	Info(message string) error
	Error(message string) error
}

// SlackAPI is the part of *slack.Client used to post messages.
type SlackAPI interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

type Slack struct {
	client  SlackAPI
	options SlackOption
}

type SlackOption struct {
	InfoChannelID  string
	ErrorChannelID string
}

func NewSlack(token string, options SlackOption) *Slack {
	return NewSlackWithClient(slack.New(token), options)
}

func NewSlackWithClient(client SlackAPI, options SlackOption) *Slack {
	if options.ErrorChannelID == "" {
		options.ErrorChannelID = options.InfoChannelID
	}
	return &Slack{client: client, options: options}
}

func (s *Slack) postMessage(channelID, message string) error {
	_, _, err := s.client.PostMessage(
		channelID,
		slack.MsgOptionText(message, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}
	return nil
}

func (s *Slack) Info(message string) error {
	return s.postMessage(s.options.InfoChannelID, message)
}

func (s *Slack) Error(message string) error {
	return s.postMessage(s.options.ErrorChannelID, message)
}

// LogNotifier writes notices to a logger. Used when no Slack workspace is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n LogNotifier) Info(message string) error {
	n.logger().Info(message, "notice", true)
	return nil
}

func (n LogNotifier) Error(message string) error {
	n.logger().Error(message, "notice", true)
	return nil
}
