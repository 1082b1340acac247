package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// MockPaymentRepository is an in-memory implementation of PaymentRepository.
type MockPaymentRepository struct {
	records map[string]models.PaymentRecord // keyed by record ID
	mu      sync.RWMutex
}

// NewMockPaymentRepository creates a new instance of MockPaymentRepository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		records: make(map[string]models.PaymentRecord),
	}
}

// Create adds a new payment record.
func (r *MockPaymentRepository) Create(record *models.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()
	r.records[record.ID] = *record
	return nil
}

// GetByProviderRef returns the payment record carrying a provider reference.
func (r *MockPaymentRepository) GetByProviderRef(providerRef string) (*models.PaymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, record := range r.records {
		if record.ProviderRef == providerRef {
			rec := record
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%w: payment with provider ref %s", models.ErrNotFound, providerRef)
}

// GetByOrderID returns all payment attempts for an order, oldest first.
func (r *MockPaymentRepository) GetByOrderID(orderID string) ([]models.PaymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.PaymentRecord
	for _, record := range r.records {
		if record.OrderID == orderID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Update replaces the stored payment record.
func (r *MockPaymentRepository) Update(record *models.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.ID]; !ok {
		return fmt.Errorf("%w: payment record %s for update", models.ErrNotFound, record.ID)
	}
	record.UpdatedAt = time.Now()
	r.records[record.ID] = *record
	return nil
}
