package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/dealradar/promo-monitor/internal/domain"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { db.Close() }
}

func TestUpsertMessageReturnsInternalID(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	date := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	m := &domain.Message{
		MessageID:     7,
		ChatID:        -1001622757657,
		ChatName:      "Promo Hunters BR",
		SenderID:      9,
		SenderName:    "Alice",
		Text:          "50% OFF hoje!",
		Date:          date,
		ExtractedURLs: []string{"https://loja.example.com/x"},
	}

	mock.ExpectQuery("INSERT INTO telegram_messages").
		WithArgs(int64(7), int64(-1001622757657), "Promo Hunters BR", int64(9), "Alice",
			"50% OFF hoje!", date, nil, pq.Array([]string{"https://loja.example.com/x"})).
		WillReturnRows(sqlmock.NewRows([]string{"internal_id"}).AddRow(int64(42)))

	repo := NewMessageRepo(db)
	id, err := repo.UpsertMessage(context.Background(), m)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected internal id 42, got %d", id)
	}
	if m.InternalID != 42 {
		t.Fatalf("internal id not written back, got %d", m.InternalID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertMessageNullables(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	date := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	m := &domain.Message{
		MessageID: 5,
		ChatID:    -100,
		MediaType: "photo",
		Date:      date,
	}

	// Empty strings, sender id 0, and nil urls all become NULL.
	mock.ExpectQuery("INSERT INTO telegram_messages").
		WithArgs(int64(5), int64(-100), nil, nil, nil, nil, date, "photo", nil).
		WillReturnRows(sqlmock.NewRows([]string{"internal_id"}).AddRow(int64(1)))

	repo := NewMessageRepo(db)
	if _, err := repo.UpsertMessage(context.Background(), m); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertMessageError(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO telegram_messages").
		WillReturnError(errors.New("connection refused"))

	repo := NewMessageRepo(db)
	_, err := repo.UpsertMessage(context.Background(), &domain.Message{MessageID: 1, ChatID: -100, Date: time.Now()})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "upsert message") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestUpsertPromotionFull(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	op := 199.90
	dp := 149.90
	pct := 10.0
	p := &domain.Promotion{
		MessageInternalID:        42,
		Type:                     domain.ExtractionProductOffer,
		ProductName:              "Fone XYZ",
		StoreName:                "Loja ABC",
		OriginalPrice:            &op,
		DiscountedPrice:          &dp,
		CouponName:               "FONE10",
		CouponDiscountPercentage: &pct,
		ExpirationDate:           "2026-08-31",
		Link:                     "https://loja.example.com/fone",
	}

	mock.ExpectExec("INSERT INTO message_promotions").
		WithArgs(int64(42), "product_offer", nil, "Fone XYZ", "Loja ABC",
			199.90, 149.90, "FONE10", nil, 10.0,
			nil, nil, nil, nil, nil,
			nil, nil, "2026-08-31", "https://loja.example.com/fone").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewMessageRepo(db)
	if err := repo.UpsertPromotion(context.Background(), p); err != nil {
		t.Fatalf("upsert promotion: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertPromotionPlaceholder(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	p := &domain.Promotion{
		MessageInternalID: 43,
		Type:              domain.ExtractionError,
		Reason:            "OpenAI API Error: timeout",
	}

	mock.ExpectExec("INSERT INTO message_promotions").
		WithArgs(int64(43), "error", "OpenAI API Error: timeout", nil, nil,
			nil, nil, nil, nil, nil,
			nil, nil, nil, nil, nil,
			nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewMessageRepo(db)
	if err := repo.UpsertPromotion(context.Background(), p); err != nil {
		t.Fatalf("upsert placeholder: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertPromotionError(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO message_promotions").
		WillReturnError(errors.New("relation does not exist"))

	repo := NewMessageRepo(db)
	err := repo.UpsertPromotion(context.Background(), &domain.Promotion{MessageInternalID: 1, Type: domain.ExtractionCouponOnly})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "upsert promotion") {
		t.Fatalf("unexpected error %v", err)
	}
}
