package email

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devevent/internal/domain"
)

func TestTemplateRenderer_BookingConfirmation(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	data := &domain.BookingConfirmationEmailData{
		Email:      "a@example.com",
		EventTitle: "Rock & Roll <Night>",
		EventSlug:  "rock-roll-night",
		Date:       "2026-03-15",
		Time:       "14:30",
		Venue:      "Hall A",
		Location:   "Cairo",
		Mode:       "offline",
	}
	subject, html, text, err := r.Render("booking_confirmation", data)
	require.NoError(t, err)

	assert.Equal(t, "You're booked: Rock & Roll <Night>", subject)
	assert.Contains(t, html, "Rock &amp; Roll &lt;Night&gt;")
	assert.Contains(t, html, "Hall A, Cairo")
	assert.Contains(t, text, "2026-03-15 at 14:30")
	assert.Contains(t, text, "/events/rock-roll-night")

	data.Mode = "online"
	_, _, text, err = r.Render("booking_confirmation", data)
	require.NoError(t, err)
	assert.Contains(t, text, "Where: Online")
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	_, _, _, err = r.Render("welcome", struct{}{})
	require.Error(t, err)
}

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailer_Send(t *testing.T) {
	client := &fakeSES{}
	m := newSESMailer(client, "events@example.com", "DevEvent")

	require.NoError(t, m.Send("a@example.com", "Hi", "<p>Hi</p>", ""))
	require.NotNil(t, client.input)
	assert.Equal(t, "DevEvent <events@example.com>", aws.ToString(client.input.Source))
	assert.Equal(t, []string{"a@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "Hi", aws.ToString(client.input.Message.Subject.Data))
	assert.Equal(t, "<p>Hi</p>", aws.ToString(client.input.Message.Body.Html.Data))
	assert.Nil(t, client.input.Message.Body.Text)
}

func TestSESMailer_SendErrors(t *testing.T) {
	boom := errors.New("throttled")
	m := newSESMailer(&fakeSES{err: boom}, "events@example.com", "")
	require.ErrorIs(t, m.Send("a@example.com", "Hi", "", "Hi"), boom)
	assert.Equal(t, "events@example.com", m.source)

	require.Error(t, m.Send("a@example.com", "Hi", "", ""))
}

func TestNewMailer(t *testing.T) {
	m, err := NewMailer(MailerConfig{Provider: "noop"})
	require.NoError(t, err)
	assert.IsType(t, &noopMailer{}, m)
	require.NoError(t, m.Send("a@example.com", "s", "h", "t"))

	m, err = NewMailer(MailerConfig{Provider: "carrier-pigeon"})
	require.NoError(t, err)
	assert.IsType(t, &noopMailer{}, m)

	_, err = NewMailer(MailerConfig{Provider: "ses"})
	require.Error(t, err)

	m, err = NewMailer(MailerConfig{Provider: "ses", FromAddress: "events@example.com", SES: SESConfig{Region: "eu-west-1"}})
	require.NoError(t, err)
	assert.IsType(t, &sesMailer{}, m)
}
