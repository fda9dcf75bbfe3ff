// Package email renders and delivers transactional email. Senders are
// interchangeable: SMTP in production, Noop when email is disabled.
package email

import "context"

// Sender delivers the portal's transactional emails.
type Sender interface {
	SendLeadReceivedEmail(ctx context.Context, toEmail string, data LeadReceivedData) error
	SendLeadAssignedEmail(ctx context.Context, toEmail string, data LeadAssignedData) error
	SendSubscriptionChangedEmail(ctx context.Context, toEmail string, data SubscriptionChangedData) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender drops every message. Used when EMAIL_ENABLED is false so
// callers never need a nil check.
type NoopSender struct{}

func (NoopSender) SendLeadReceivedEmail(context.Context, string, LeadReceivedData) error { return nil }
func (NoopSender) SendLeadAssignedEmail(context.Context, string, LeadAssignedData) error { return nil }
func (NoopSender) SendSubscriptionChangedEmail(context.Context, string, SubscriptionChangedData) error {
	return nil
}
func (NoopSender) SendCustomEmail(context.Context, string, string, string) error { return nil }
