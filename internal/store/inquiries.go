package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Inquiry sources. Broadcast inquiries reach every premium vendor;
// listing inquiries target a single company.
const (
	InquirySourceBroadcast = "broadcast"
	InquirySourceListing   = "listing"
)

// Webhook delivery outcomes recorded on an inquiry.
const (
	WebhookStatusSent   = "sent"
	WebhookStatusFailed = "failed"
)

// Inquiry is a lead submitted through the public inquiry form.
type Inquiry struct {
	ID                   string     `json:"id"`
	Source               string     `json:"source"`
	ListingID            *string    `json:"listingId,omitempty"`
	FullName             string     `json:"fullName"`
	Email                string     `json:"email"`
	Phone                *string    `json:"phone,omitempty"`
	LeadCompany          *string    `json:"leadCompany,omitempty"`
	EventType            *string    `json:"eventType,omitempty"`
	GroupSize            *string    `json:"groupSize,omitempty"`
	PreferredDestination *string    `json:"preferredDestination,omitempty"`
	PreferredDates       *string    `json:"preferredDates,omitempty"`
	EstimatedBudget      *string    `json:"estimatedBudget,omitempty"`
	SpecialRequirements  *string    `json:"specialRequirements,omitempty"`
	Message              *string    `json:"message,omitempty"`
	Status               string     `json:"status"`
	WebhookStatus        *string    `json:"webhookStatus,omitempty"`
	WebhookSentAt        *time.Time `json:"webhookSentAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}

const inquiryColumns = `
	id, source, listing_id, full_name, email, phone, lead_company, event_type,
	group_size, preferred_destination, preferred_dates, estimated_budget,
	special_requirements, message, status, webhook_status, webhook_sent_at,
	created_at`

func scanInquiryRows(rows *sql.Rows) ([]Inquiry, error) {
	var inquiries []Inquiry
	for rows.Next() {
		var q Inquiry
		if err := rows.Scan(
			&q.ID, &q.Source, &q.ListingID, &q.FullName, &q.Email, &q.Phone,
			&q.LeadCompany, &q.EventType, &q.GroupSize, &q.PreferredDestination,
			&q.PreferredDates, &q.EstimatedBudget, &q.SpecialRequirements,
			&q.Message, &q.Status, &q.WebhookStatus, &q.WebhookSentAt,
			&q.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan inquiry: %w", err)
		}
		inquiries = append(inquiries, q)
	}
	return inquiries, nil
}

// CreateInquiry persists a new lead and returns it with id and
// creation timestamp assigned.
func (s *Store) CreateInquiry(q Inquiry) (Inquiry, error) {
	q.ID = uuid.New().String()
	q.Status = "new"
	err := s.db.QueryRowContext(context.Background(), `
		INSERT INTO inquiries (
			id, source, listing_id, full_name, email, phone, lead_company,
			event_type, group_size, preferred_destination, preferred_dates,
			estimated_budget, special_requirements, message, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at
	`, q.ID, q.Source, q.ListingID, q.FullName, q.Email, q.Phone, q.LeadCompany,
		q.EventType, q.GroupSize, q.PreferredDestination, q.PreferredDates,
		q.EstimatedBudget, q.SpecialRequirements, q.Message, q.Status).Scan(&q.CreatedAt)
	if err != nil {
		return Inquiry{}, fmt.Errorf("insert inquiry: %w", err)
	}
	return q, nil
}

// MarkInquiryWebhook records the delivery outcome of the automation
// webhook for an already-persisted inquiry.
func (s *Store) MarkInquiryWebhook(id, status string, sentAt time.Time) error {
	if _, err := s.db.ExecContext(context.Background(), `
		UPDATE inquiries
		SET webhook_status = $2, webhook_sent_at = $3
		WHERE id = $1
	`, id, status, sentAt); err != nil {
		return fmt.Errorf("mark inquiry webhook: %w", err)
	}
	return nil
}

// InquiriesForListing returns the leads targeted at one listing,
// newest first.
func (s *Store) InquiriesForListing(listingID string) ([]Inquiry, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT`+inquiryColumns+`
		FROM inquiries
		WHERE listing_id = $1
		ORDER BY created_at DESC
	`, listingID)
	if err != nil {
		return nil, fmt.Errorf("select listing inquiries: %w", err)
	}
	defer rows.Close()

	inquiries, err := scanInquiryRows(rows)
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inquiries: %w", err)
	}
	return inquiries, nil
}

// BroadcastInquiries returns untargeted leads for premium vendors.
func (s *Store) BroadcastInquiries(limit int) ([]Inquiry, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT`+inquiryColumns+`
		FROM inquiries
		WHERE source = $1 AND listing_id IS NULL
		ORDER BY created_at DESC
		LIMIT $2
	`, InquirySourceBroadcast, limit)
	if err != nil {
		return nil, fmt.Errorf("select broadcast inquiries: %w", err)
	}
	defer rows.Close()

	inquiries, err := scanInquiryRows(rows)
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inquiries: %w", err)
	}
	return inquiries, nil
}

// UpdateInquiryStatus sets the triage status on a lead.
func (s *Store) UpdateInquiryStatus(id, status string) error {
	res, err := s.db.ExecContext(context.Background(), `
		UPDATE inquiries
		SET status = $2
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update inquiry status: %w", err)
	}
	return requireRow(res)
}

// InquiryByID returns a single inquiry.
func (s *Store) InquiryByID(id string) (Inquiry, error) {
	var q Inquiry
	err := s.db.QueryRowContext(context.Background(), `
		SELECT`+inquiryColumns+`
		FROM inquiries
		WHERE id = $1
	`, id).Scan(
		&q.ID, &q.Source, &q.ListingID, &q.FullName, &q.Email, &q.Phone,
		&q.LeadCompany, &q.EventType, &q.GroupSize, &q.PreferredDestination,
		&q.PreferredDates, &q.EstimatedBudget, &q.SpecialRequirements,
		&q.Message, &q.Status, &q.WebhookStatus, &q.WebhookSentAt, &q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Inquiry{}, ErrNotFound
		}
		return Inquiry{}, fmt.Errorf("lookup inquiry: %w", err)
	}
	return q, nil
}
