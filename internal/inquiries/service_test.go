package inquiries

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"dmcdir/internal/store"
)

type fakeStore struct {
	created    []store.Inquiry
	createErr  error
	webhookID  string
	webhookSts string
	counted    []string
}

func (f *fakeStore) CreateInquiry(q store.Inquiry) (store.Inquiry, error) {
	if f.createErr != nil {
		return store.Inquiry{}, f.createErr
	}
	q.ID = "inq-1"
	q.Status = "new"
	q.CreatedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.created = append(f.created, q)
	return q, nil
}

func (f *fakeStore) MarkInquiryWebhook(id, status string, _ time.Time) error {
	f.webhookID = id
	f.webhookSts = status
	return nil
}

func (f *fakeStore) IncrementInquiryCount(listingID string) error {
	f.counted = append(f.counted, listingID)
	return nil
}

func validForm() Form {
	return Form{
		FullName:  "Jane Lee",
		Email:     "jane@example.com",
		EventType: "Corporate Retreat",
		GroupSize: "40-60",
	}
}

func TestSubmitValidationFailure(t *testing.T) {
	tests := []struct {
		name string
		form Form
		want string
	}{
		{
			name: "missing email",
			form: Form{FullName: "Jane Lee"},
			want: "Invalid email address",
		},
		{
			name: "malformed email",
			form: Form{FullName: "Jane Lee", Email: "not-an-address"},
			want: "Invalid email address",
		},
		{
			name: "short name",
			form: Form{FullName: "J", Email: "jane@example.com"},
			want: "Name must be at least 2 characters",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeStore{}
			svc := New(f, "", zerolog.Nop())

			_, err := svc.Submit(context.Background(), tc.form, store.InquirySourceBroadcast, nil)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Message != tc.want {
				t.Fatalf("message = %q, want %q", verr.Message, tc.want)
			}
			if len(f.created) != 0 {
				t.Fatalf("expected nothing persisted, got %d rows", len(f.created))
			}
		})
	}
}

func TestSubmitPersistFailureIsFatal(t *testing.T) {
	f := &fakeStore{createErr: errors.New("insert inquiry: connection refused")}
	svc := New(f, "", zerolog.Nop())

	_, err := svc.Submit(context.Background(), validForm(), store.InquirySourceBroadcast, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Fatal("persistence failure must not surface as validation error")
	}
}

func TestSubmitNoWebhookConfigured(t *testing.T) {
	f := &fakeStore{}
	svc := New(f, "", zerolog.Nop())

	got, err := svc.Submit(context.Background(), validForm(), store.InquirySourceBroadcast, nil)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if got.ID != "inq-1" {
		t.Fatalf("id = %q", got.ID)
	}
	if f.webhookSts != "" {
		t.Fatalf("webhook status should be untouched, got %q", f.webhookSts)
	}
}

func TestSubmitWebhookDelivered(t *testing.T) {
	var received map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = decodeBody(t, r)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	f := &fakeStore{}
	svc := New(f, ts.URL, zerolog.Nop())

	listingID := "listing-7"
	got, err := svc.Submit(context.Background(), validForm(), store.InquirySourceListing, &listingID)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	if f.webhookSts != store.WebhookStatusSent || f.webhookID != got.ID {
		t.Fatalf("webhook mark = (%q, %q)", f.webhookID, f.webhookSts)
	}
	if received["inquiryId"] != "inq-1" || received["fullName"] != "Jane Lee" {
		t.Fatalf("payload = %v", received)
	}
	if len(f.counted) != 1 || f.counted[0] != "listing-7" {
		t.Fatalf("inquiry count increments = %v", f.counted)
	}
}

func TestSubmitWebhookFailureStillSucceeds(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	f := &fakeStore{}
	svc := New(f, ts.URL, zerolog.Nop())

	got, err := svc.Submit(context.Background(), validForm(), store.InquirySourceBroadcast, nil)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if got.ID != "inq-1" {
		t.Fatalf("id = %q", got.ID)
	}
	if len(f.created) != 1 {
		t.Fatalf("expected one persisted row, got %d", len(f.created))
	}
	if f.webhookSts != store.WebhookStatusFailed {
		t.Fatalf("webhook status = %q, want failed", f.webhookSts)
	}
}

func TestSubmitWebhookUnreachableStillSucceeds(t *testing.T) {
	f := &fakeStore{}
	// Closed port: the POST fails at the network layer.
	svc := New(f, "http://127.0.0.1:1", zerolog.Nop())

	_, err := svc.Submit(context.Background(), validForm(), store.InquirySourceBroadcast, nil)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if f.webhookSts != store.WebhookStatusFailed {
		t.Fatalf("webhook status = %q, want failed", f.webhookSts)
	}
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		t.Fatalf("decode webhook body: %v", err)
	}
	return m
}
