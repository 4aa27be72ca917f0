// Package inquiries implements the lead-capture pipeline: validate the
// form, persist the inquiry, then forward a copy to the automation
// webhook. Persistence is the contract; webhook delivery is
// best-effort and never fails a submission that was already saved.
package inquiries

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"dmcdir/internal/store"
)

// Form carries the submitted inquiry fields. Only the name and email
// are required.
type Form struct {
	FullName             string `json:"fullName" validate:"required,min=2"`
	Email                string `json:"email" validate:"required,email"`
	Phone                string `json:"phone" validate:"omitempty"`
	LeadCompany          string `json:"leadCompany"`
	EventType            string `json:"eventType"`
	GroupSize            string `json:"groupSize"`
	PreferredDestination string `json:"preferredDestination"`
	PreferredDates       string `json:"preferredDates"`
	EstimatedBudget      string `json:"estimatedBudget"`
	SpecialRequirements  string `json:"specialRequirements"`
	Message              string `json:"message"`
}

// ValidationError is a user-facing schema violation. Nothing is
// persisted when one is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Store captures the persistence operations the pipeline needs.
type Store interface {
	CreateInquiry(q store.Inquiry) (store.Inquiry, error)
	MarkInquiryWebhook(id, status string, sentAt time.Time) error
	IncrementInquiryCount(listingID string) error
}

// Service validates, persists, and forwards inquiries.
type Service struct {
	store      Store
	webhookURL string
	client     *http.Client
	validate   *validator.Validate
	log        zerolog.Logger
}

// New wires a Service. webhookURL may be empty, which disables
// forwarding entirely.
func New(s Store, webhookURL string, logger zerolog.Logger) *Service {
	return &Service{
		store:      s,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		validate:   validator.New(),
		log:        logger,
	}
}

// Submit validates the form, persists the inquiry with the given
// source, and forwards it to the automation webhook when configured.
// listingID must be non-nil exactly when source is listing-specific.
func (s *Service) Submit(ctx context.Context, form Form, source string, listingID *string) (store.Inquiry, error) {
	if err := ctx.Err(); err != nil {
		return store.Inquiry{}, err
	}

	if err := s.validate.Struct(form); err != nil {
		return store.Inquiry{}, &ValidationError{Message: firstViolation(err)}
	}

	inquiry, err := s.store.CreateInquiry(store.Inquiry{
		Source:               source,
		ListingID:            listingID,
		FullName:             form.FullName,
		Email:                form.Email,
		Phone:                optional(form.Phone),
		LeadCompany:          optional(form.LeadCompany),
		EventType:            optional(form.EventType),
		GroupSize:            optional(form.GroupSize),
		PreferredDestination: optional(form.PreferredDestination),
		PreferredDates:       optional(form.PreferredDates),
		EstimatedBudget:      optional(form.EstimatedBudget),
		SpecialRequirements:  optional(form.SpecialRequirements),
		Message:              optional(form.Message),
	})
	if err != nil {
		return store.Inquiry{}, fmt.Errorf("save inquiry: %w", err)
	}

	if listingID != nil {
		if err := s.store.IncrementInquiryCount(*listingID); err != nil {
			s.log.Error().Err(err).Str("listing_id", *listingID).Msg("increment inquiry count")
		}
	}

	if s.webhookURL != "" {
		s.forward(ctx, form, inquiry)
	}

	return inquiry, nil
}

// forward posts the inquiry to the automation webhook and records the
// outcome on the row. Failures are logged, never returned.
func (s *Service) forward(ctx context.Context, form Form, inquiry store.Inquiry) {
	payload := map[string]any{
		"source":               inquiry.Source,
		"fullName":             form.FullName,
		"email":                form.Email,
		"phone":                form.Phone,
		"leadCompany":          form.LeadCompany,
		"eventType":            form.EventType,
		"groupSize":            form.GroupSize,
		"preferredDestination": form.PreferredDestination,
		"preferredDates":       form.PreferredDates,
		"estimatedBudget":      form.EstimatedBudget,
		"specialRequirements":  form.SpecialRequirements,
		"message":              form.Message,
		"inquiryId":            inquiry.ID,
		"createdAt":            inquiry.CreatedAt.Format(time.RFC3339),
		"timestamp":            time.Now().UTC().Format(time.RFC3339),
	}

	status := store.WebhookStatusSent
	if err := s.post(ctx, payload); err != nil {
		s.log.Error().Err(err).Str("inquiry_id", inquiry.ID).Msg("automation webhook delivery failed")
		status = store.WebhookStatusFailed
	}

	if err := s.store.MarkInquiryWebhook(inquiry.ID, status, time.Now().UTC()); err != nil {
		s.log.Error().Err(err).Str("inquiry_id", inquiry.ID).Msg("record webhook status")
	}
}

func (s *Service) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// firstViolation maps the first failed rule to a short human-readable
// message for the submitter.
func firstViolation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid form data"
	}

	v := verrs[0]
	switch v.Field() {
	case "FullName":
		return "Name must be at least 2 characters"
	case "Email":
		return "Invalid email address"
	default:
		return fmt.Sprintf("Invalid value for %s", v.Field())
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
