package store

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCreateInquiryAssignsIDAndStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	createdAt := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)
	listingID := "lst-1"

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO inquiries (`)).
		WithArgs(
			sqlmock.AnyArg(), InquirySourceListing, &listingID, "Jane Doe",
			"jane@example.com", nil, nil, nil, nil, nil, nil, nil, nil, nil,
			"new",
		).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	got, err := s.CreateInquiry(Inquiry{
		Source:    InquirySourceListing,
		ListingID: &listingID,
		FullName:  "Jane Doe",
		Email:     "jane@example.com",
	})
	if err != nil {
		t.Fatalf("CreateInquiry error: %v", err)
	}

	if got.ID == "" {
		t.Fatal("expected a generated id")
	}
	if got.Status != "new" {
		t.Fatalf("status = %q, want new", got.Status)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Fatalf("created at = %v", got.CreatedAt)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBroadcastInquiriesExcludesTargetedLeads(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	rows := sqlmock.NewRows([]string{
		"id", "source", "listing_id", "full_name", "email", "phone",
		"lead_company", "event_type", "group_size", "preferred_destination",
		"preferred_dates", "estimated_budget", "special_requirements",
		"message", "status", "webhook_status", "webhook_sent_at", "created_at",
	}).AddRow(
		"inq-1", InquirySourceBroadcast, nil, "Jane Doe", "jane@example.com",
		nil, nil, nil, nil, nil, nil, nil, nil, nil, "new", nil, nil,
		time.Now(),
	)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE source = $1 AND listing_id IS NULL`)).
		WithArgs(InquirySourceBroadcast, 50).
		WillReturnRows(rows)

	got, err := s.BroadcastInquiries(50)
	if err != nil {
		t.Fatalf("BroadcastInquiries error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "inq-1" || got[0].ListingID != nil {
		t.Fatalf("unexpected inquiries: %#v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMarkInquiryWebhook(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	sentAt := time.Date(2024, 6, 10, 9, 31, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`SET webhook_status = $2, webhook_sent_at = $3`)).
		WithArgs("inq-1", WebhookStatusSent, sentAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.MarkInquiryWebhook("inq-1", WebhookStatusSent, sentAt); err != nil {
		t.Fatalf("MarkInquiryWebhook error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
