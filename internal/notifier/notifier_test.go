package notifier

import (
	"bytes"
	"context"
	"errors"
	"github.com/clambin/tank-monitor/internal/tank"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTemplates_Render(t *testing.T) {
	templates, err := NewTemplates(map[tank.Event]string{tank.CriticalEvent: "{{.Label}} is at {{.Percentage}}%"})
	require.NoError(t, err)

	data := TemplateData{
		TankID:      "1",
		Label:       "cistern",
		SensorID:    "s1",
		Percentage:  "7",
		Previous:    "20",
		Measurement: "0.930",
		Timestamp:   "2024-07-01T12:00:00Z",
		Topic:       "sensors/cistern",
	}

	msg, err := templates.Render(tank.CriticalEvent, data)
	require.NoError(t, err)
	assert.Equal(t, tank.CriticalEvent, msg.Event)
	assert.Equal(t, "1", msg.TankID)
	assert.Equal(t, "cistern: critical level", msg.Title)
	assert.Equal(t, "cistern is at 7%", msg.Text)

	msg, err = templates.Render(tank.LossEvent, data)
	require.NoError(t, err)
	assert.Equal(t, "Tank cistern is losing water: 20% to 7% (sensor s1) while no program is running, at 2024-07-01T12:00:00Z.", msg.Text)

	msg, err = templates.Render(tank.UnassociatedEvent, TemplateData{SensorID: "s9", Measurement: "1.000", Topic: "sensors/x", Timestamp: "now"})
	require.NoError(t, err)
	assert.Equal(t, "unassociated sensor", msg.Title)
	assert.Equal(t, "Sensor s9 reported measurement 1.000 on sensors/x at now, but no tank uses this sensor.", msg.Text)

	_, err = templates.Render("flood", data)
	assert.Error(t, err)
}

func TestTemplates_AllEvents(t *testing.T) {
	for _, event := range tank.Events {
		msg, err := Defaults.Render(event, TemplateData{TankID: "1"})
		require.NoError(t, err, event)
		assert.NotEmpty(t, msg.Text, event)
		assert.Equal(t, "1: "+titles[event], msg.Title)
	}
}

func TestNewTemplates_Invalid(t *testing.T) {
	_, err := NewTemplates(map[tank.Event]string{tank.WarningEvent: "{{.Label"})
	assert.Error(t, err)
}

func TestNotifiers_Notify(t *testing.T) {
	var buf bytes.Buffer
	s := fakeSlack{}
	n := Notifiers{
		"log":   SLogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))},
		"slack": &SlackNotifier{Logger: slog.New(slog.DiscardHandler), SlackSender: &s},
	}

	results := n.Notify(context.Background(), Message{Event: tank.WarningEvent, TankID: "1", Title: "1: warning level", Text: "foo"})
	assert.Len(t, results, 2)
	assert.NoError(t, results["log"])
	assert.ErrorIs(t, results["slack"], ErrNoRecipients)
	assert.Contains(t, buf.String(), `msg="1: warning level" event=warning tank=1 text=foo`)
	assert.Empty(t, s.posted)
}

func TestSlackNotifier_Notify(t *testing.T) {
	s := fakeSlack{
		channels: []slack.Channel{
			slackChannel("C1", true, false),
			slackChannel("C2", false, false),
			slackChannel("C3", true, true),
		},
	}
	n := SlackNotifier{Logger: slog.New(slog.DiscardHandler), SlackSender: &s}

	err := n.Notify(context.Background(), Message{
		Event:      tank.CriticalEvent,
		Title:      "cistern: critical level",
		Text:       "foo",
		Recipients: tank.Recipients{Slack: []string{"#irrigation", AllChannels}},
	})
	require.NoError(t, err)
	require.Len(t, s.posted, 2)
	assert.Equal(t, "#irrigation", s.posted[0].channel)
	assert.Equal(t, "C1", s.posted[1].channel)
	assert.Contains(t, s.posted[0].attachments, `"color":"danger"`)
	assert.Contains(t, s.posted[0].attachments, `"title":"cistern: critical level"`)
	assert.Contains(t, s.posted[0].attachments, `"text":"foo"`)

	// the user id is only looked up once
	require.NoError(t, n.Notify(context.Background(), Message{Recipients: tank.Recipients{Slack: []string{AllChannels}}}))
	assert.Equal(t, 1, s.authCalls)
}

func TestSlackNotifier_Notify_Failure(t *testing.T) {
	s := fakeSlack{err: errors.New("channel_not_found")}
	n := SlackNotifier{Logger: slog.New(slog.DiscardHandler), SlackSender: &s}
	err := n.Notify(context.Background(), Message{Recipients: tank.Recipients{Slack: []string{"#a", "#b"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post #a: channel_not_found")
	assert.Contains(t, err.Error(), "post #b: channel_not_found")
}

func TestEmailNotifier_Notify(t *testing.T) {
	var sent struct {
		addr string
		auth smtp.Auth
		from string
		to   []string
		msg  string
	}
	n := NewEmailNotifier("smtp.example.com", 587, "user", "secret", "monitor@example.com", slog.New(slog.DiscardHandler))
	n.now = func() time.Time { return time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC) }
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent.addr, sent.auth, sent.from, sent.to, sent.msg = addr, a, from, to, string(msg)
		return nil
	}

	err := n.Notify(context.Background(), Message{Title: "cistern: critical level", Text: "line 1\nline 2"})
	assert.ErrorIs(t, err, ErrNoRecipients)

	err = n.Notify(context.Background(), Message{
		Title:      "cistern: critical level",
		Text:       "line 1\nline 2",
		Recipients: tank.Recipients{Email: []string{"a@example.com", "b@example.com"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", sent.addr)
	assert.NotNil(t, sent.auth)
	assert.Equal(t, "monitor@example.com", sent.from)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, sent.to)
	assert.Equal(t, strings.Join([]string{
		"From: monitor@example.com",
		"To: a@example.com, b@example.com",
		"Subject: cistern: critical level",
		"Date: Mon, 01 Jul 2024 12:00:00 +0000",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"line 1",
		"line 2",
		"",
	}, "\r\n"), sent.msg)

	n.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }
	err = n.Notify(context.Background(), Message{Recipients: tank.Recipients{Email: []string{"a@example.com"}}})
	assert.ErrorContains(t, err, "smtp: connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = n.Notify(ctx, Message{Recipients: tank.Recipients{Email: []string{"a@example.com"}}})
	assert.ErrorIs(t, err, context.Canceled)
}

type post struct {
	channel     string
	attachments string
}

type fakeSlack struct {
	lock      sync.Mutex
	channels  []slack.Channel
	posted    []post
	authCalls int
	err       error
}

func (f *fakeSlack) PostMessageContext(_ context.Context, channel string, options ...slack.MsgOption) (string, string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.err != nil {
		return "", "", f.err
	}
	_, values, err := slack.UnsafeApplyMsgOptions("token", channel, "https://slack.com/api/", options...)
	if err != nil {
		return "", "", err
	}
	f.posted = append(f.posted, post{channel: channel, attachments: values.Get("attachments")})
	return channel, "1", nil
}

func (f *fakeSlack) GetConversationsContext(_ context.Context, _ *slack.GetConversationsParameters) ([]slack.Channel, string, error) {
	return f.channels, "", nil
}

func (f *fakeSlack) AuthTestContext(_ context.Context) (*slack.AuthTestResponse, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.authCalls++
	return &slack.AuthTestResponse{UserID: "U1"}, nil
}

func slackChannel(id string, member, archived bool) slack.Channel {
	var c slack.Channel
	c.ID = id
	c.IsMember = member
	c.IsArchived = archived
	return c
}
