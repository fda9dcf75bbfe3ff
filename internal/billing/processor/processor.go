// Package processor talks to the external subscription billing provider.
// The local database is a projection of the processor's state; the reconciler
// in the service package keeps the two in sync.
package processor

import (
	"context"
	"time"
)

// Subscription statuses as reported by the processor.
const (
	StatusActive     = "active"
	StatusTrialing   = "trialing"
	StatusPastDue    = "past_due"
	StatusCanceled   = "canceled"
	StatusIncomplete = "incomplete"
	StatusUnpaid     = "unpaid"
)

// KnownStatus reports whether the processor status maps to one we store.
// Anything unknown is projected as incomplete.
func KnownStatus(status string) bool {
	switch status {
	case StatusActive, StatusTrialing, StatusPastDue, StatusCanceled, StatusIncomplete, StatusUnpaid:
		return true
	}
	return false
}

// Subscription is the processor's view of one subscription.
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceID            string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	TrialEnd           *time.Time
	Metadata           map[string]string
}

// CustomerParams describes a customer record to create at the processor.
type CustomerParams struct {
	Email    string
	Name     string
	Metadata map[string]string
}

// CheckoutParams describes a hosted checkout session request.
type CheckoutParams struct {
	CustomerID string
	PriceID    string
	TrialDays  int
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// CheckoutSession is the hosted page the caller redirects to.
type CheckoutSession struct {
	ID  string
	URL string
}

// Client is the interface the reconciler depends on. The HTTP implementation
// lives in client.go; tests substitute a fake.
type Client interface {
	// CreateCustomer creates a customer record and returns its id.
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)
	// CreateCheckoutSession opens a hosted checkout for a plan.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (CheckoutSession, error)
	// CreateBillingPortalSession opens the processor's self-service portal
	// for a customer and returns its URL.
	CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	// GetSubscription fetches the current remote state of a subscription.
	GetSubscription(ctx context.Context, id string) (Subscription, error)
	// ListCustomerSubscriptions returns every subscription on the customer.
	ListCustomerSubscriptions(ctx context.Context, customerID string) ([]Subscription, error)
	// CancelSubscription cancels a subscription immediately.
	CancelSubscription(ctx context.Context, id string) error
	// ChangeSubscriptionPrice swaps the subscription onto a new price.
	ChangeSubscriptionPrice(ctx context.Context, id, priceID string) (Subscription, error)
	// SettleOpenInvoice finalizes and pays the subscription's latest invoice.
	SettleOpenInvoice(ctx context.Context, subscriptionID string) error
}
