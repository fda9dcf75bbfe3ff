package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

// LeadReceivedData notifies an admin that a new lead came in.
type LeadReceivedData struct {
	LeadName     string
	LocationName string
	ProjectType  string
	ZipCode      string
	ProviderName string
	PortalURL    string
}

// LeadAssignedData notifies a provider about a newly routed lead.
type LeadAssignedData struct {
	ProviderName string
	LeadName     string
	ProjectType  string
	ZipCode      string
	Timing       string
	PortalURL    string
}

// SubscriptionChangedData notifies a provider about a billing change.
type SubscriptionChangedData struct {
	ProviderName string
	PlanName     string
	Status       string
	ChangeKind   string
	PortalURL    string
}

type leadReceivedEmailData struct {
	baseEmailData
	LeadReceivedData
}

type leadAssignedEmailData struct {
	baseEmailData
	LeadAssignedData
}

type subscriptionChangedEmailData struct {
	baseEmailData
	SubscriptionChangedData
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
