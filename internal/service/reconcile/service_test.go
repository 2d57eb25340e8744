package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dealradar/promo-monitor/internal/domain"
	"github.com/dealradar/promo-monitor/internal/service/reconcile"
)

// memRepo is an in-memory reconcile repository for unit testing.
type memRepo struct {
	mu         sync.Mutex
	nextID     int64
	messages   map[[2]int64]*domain.Message // keyed by (chat id, message id)
	promotions map[int64]*domain.Promotion  // keyed by message internal id
	msgErr     error
	promoErr   error
}

func newMemRepo() *memRepo {
	return &memRepo{
		messages:   make(map[[2]int64]*domain.Message),
		promotions: make(map[int64]*domain.Promotion),
	}
}

func (m *memRepo) UpsertMessage(_ context.Context, msg *domain.Message) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.msgErr != nil {
		return 0, m.msgErr
	}
	key := [2]int64{msg.ChatID, msg.MessageID}
	if existing, ok := m.messages[key]; ok {
		cp := *msg
		cp.InternalID = existing.InternalID
		m.messages[key] = &cp
		return cp.InternalID, nil
	}
	m.nextID++
	cp := *msg
	cp.InternalID = m.nextID
	m.messages[key] = &cp
	return cp.InternalID, nil
}

func (m *memRepo) UpsertPromotion(_ context.Context, p *domain.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.promoErr != nil {
		return m.promoErr
	}
	cp := *p
	m.promotions[p.MessageInternalID] = &cp
	return nil
}

func TestReconcileProductOffer(t *testing.T) {
	repo := newMemRepo()
	svc := reconcile.NewService(repo)

	in := reconcile.Input{
		Message:  domain.RawMessage{ID: 7, ChatID: -100, Text: "50% OFF"},
		ChatName: "Promos",
		Extraction: domain.Extraction{
			Type:        domain.ExtractionProductOffer,
			ProductName: "Fone XYZ",
		},
	}

	if err := svc.Reconcile(context.Background(), in); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if len(repo.messages) != 1 {
		t.Fatalf("expected 1 message row, got %d", len(repo.messages))
	}
	msg := repo.messages[[2]int64{-100, 7}]
	if msg == nil {
		t.Fatal("message row missing")
	}

	promo := repo.promotions[msg.InternalID]
	if promo == nil {
		t.Fatalf("promotion not linked to internal id %d", msg.InternalID)
	}
	if promo.ProductName != "Fone XYZ" {
		t.Fatalf("unexpected promotion %+v", promo)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	repo := newMemRepo()
	svc := reconcile.NewService(repo)

	in := reconcile.Input{
		Message:    domain.RawMessage{ID: 7, ChatID: -100, Text: "50% OFF"},
		Extraction: domain.Extraction{Type: domain.ExtractionProductOffer, ProductName: "v1"},
	}
	if err := svc.Reconcile(context.Background(), in); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	firstID := repo.messages[[2]int64{-100, 7}].InternalID

	in.Extraction.ProductName = "v2"
	if err := svc.Reconcile(context.Background(), in); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	if len(repo.messages) != 1 || len(repo.promotions) != 1 {
		t.Fatalf("reprocessing duplicated rows: %d messages, %d promotions",
			len(repo.messages), len(repo.promotions))
	}
	if repo.messages[[2]int64{-100, 7}].InternalID != firstID {
		t.Fatal("internal id changed across upserts")
	}
	if repo.promotions[firstID].ProductName != "v2" {
		t.Fatalf("second write must overwrite, got %q", repo.promotions[firstID].ProductName)
	}
}

func TestReconcilePlaceholderStored(t *testing.T) {
	repo := newMemRepo()
	svc := reconcile.NewService(repo)

	in := reconcile.Input{
		Message:    domain.RawMessage{ID: 8, ChatID: -100},
		Extraction: domain.NotAttempted(domain.ExtractionNoText, domain.ReasonNoText),
	}
	if err := svc.Reconcile(context.Background(), in); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	msg := repo.messages[[2]int64{-100, 8}]
	promo := repo.promotions[msg.InternalID]
	if promo == nil {
		t.Fatal("placeholder row not stored")
	}
	if promo.Type != domain.ExtractionNoText || promo.Reason != domain.ReasonNoText {
		t.Fatalf("unexpected placeholder %+v", promo)
	}
}

func TestReconcileNoPromotionRow(t *testing.T) {
	repo := newMemRepo()
	svc := reconcile.NewService(repo)

	in := reconcile.Input{
		Message:    domain.RawMessage{ID: 9, ChatID: -100, Text: "oi"},
		Extraction: domain.Extraction{},
	}
	if err := svc.Reconcile(context.Background(), in); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if len(repo.messages) != 1 {
		t.Fatalf("expected message row, got %d", len(repo.messages))
	}
	if len(repo.promotions) != 0 {
		t.Fatalf("expected no promotion rows, got %d", len(repo.promotions))
	}
}

func TestReconcileMessageUpsertError(t *testing.T) {
	repo := newMemRepo()
	repo.msgErr = errors.New("connection reset")
	svc := reconcile.NewService(repo)

	in := reconcile.Input{
		Message:    domain.RawMessage{ID: 10, ChatID: -100, Text: "cupom"},
		Extraction: domain.Extraction{Type: domain.ExtractionCouponOnly},
	}
	err := svc.Reconcile(context.Background(), in)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(repo.promotions) != 0 {
		t.Fatal("promotion must not be attempted after message upsert failure")
	}
}

func TestReconcilePromotionUpsertError(t *testing.T) {
	repo := newMemRepo()
	repo.promoErr = errors.New("constraint violation")
	svc := reconcile.NewService(repo)

	in := reconcile.Input{
		Message:    domain.RawMessage{ID: 11, ChatID: -100, Text: "cupom"},
		Extraction: domain.Extraction{Type: domain.ExtractionCouponOnly},
	}
	err := svc.Reconcile(context.Background(), in)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(repo.messages) != 1 {
		t.Fatal("message row should have been written before the failure")
	}
}

type zeroIDRepo struct{}

func (zeroIDRepo) UpsertMessage(context.Context, *domain.Message) (int64, error) {
	return 0, nil
}

func (zeroIDRepo) UpsertPromotion(context.Context, *domain.Promotion) error { return nil }

func TestReconcileNoInternalID(t *testing.T) {
	svc := reconcile.NewService(zeroIDRepo{})

	in := reconcile.Input{
		Message:    domain.RawMessage{ID: 12, ChatID: -100, Text: "oferta"},
		Extraction: domain.Extraction{Type: domain.ExtractionProductOffer},
	}
	if err := svc.Reconcile(context.Background(), in); !errors.Is(err, reconcile.ErrNoInternalID) {
		t.Fatalf("expected ErrNoInternalID, got %v", err)
	}
}
