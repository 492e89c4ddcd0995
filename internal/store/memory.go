package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"transaction-service/internal/models"
	"transaction-service/internal/query"

	"github.com/google/uuid"
)

// MemoryStore keeps records in a map. It evaluates filters in process and is
// used for local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.Transaction
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.Transaction)}
}

func (s *MemoryStore) Create(_ context.Context, t *models.Transaction) error {
	t.ID = uuid.NewString()
	stamp(t, now())

	s.mu.Lock()
	s.records[t.ID] = clone(*t)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	updated := clone(current)
	if err := patch.Apply(&updated); err != nil {
		return nil, err
	}
	updated.ID = id
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = now()
	s.records[id] = updated

	out := clone(updated)
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.records, id)
	return &current, nil
}

func (s *MemoryStore) Find(_ context.Context, spec query.Spec) ([]models.Transaction, error) {
	s.mu.RLock()
	matched := s.filter(spec.Filter)
	s.mu.RUnlock()

	sortRecords(matched, spec.Sort)

	if spec.Skip >= int64(len(matched)) {
		return []models.Transaction{}, nil
	}
	end := int64(len(matched))
	if spec.Limit > 0 && spec.Skip+spec.Limit < end {
		end = spec.Skip + spec.Limit
	}
	return matched[spec.Skip:end], nil
}

func (s *MemoryStore) Count(_ context.Context, filter query.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filter(filter))), nil
}

func (s *MemoryStore) EstimatedCount(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

func (s *MemoryStore) Distinct(_ context.Context, field string) ([]string, error) {
	if err := checkDistinctField(field); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	values := []string{}
	for _, t := range s.records {
		v := stringField(&t, field)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	return compactSorted(values), nil
}

func (s *MemoryStore) Stats(_ context.Context) (*models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.Stats{}
	for _, t := range s.records {
		stats.TotalUnits += int64(t.Quantity)
		stats.TotalAmount += t.TotalAmount
	}
	return stats, nil
}

func (s *MemoryStore) InsertMany(_ context.Context, records []models.Transaction) (int, error) {
	ts := now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range records {
		t := clone(records[i])
		t.ID = uuid.NewString()
		stamp(&t, ts)
		s.records[t.ID] = t
	}
	return len(records), nil
}

func (s *MemoryStore) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.records))
	s.records = make(map[string]models.Transaction)
	return n, nil
}

func (s *MemoryStore) NewestIDs(_ context.Context, n int) ([]string, error) {
	s.mu.RLock()
	all := s.filter(query.Filter{})
	s.mu.RUnlock()

	sortRecords(all, query.Sort{Field: "date", Desc: true})
	if n < len(all) {
		all = all[:n]
	}

	ids := make([]string, len(all))
	for i, t := range all {
		ids[i] = t.ID
	}
	return ids, nil
}

func (s *MemoryStore) DeleteExcept(_ context.Context, keep []string) (int64, error) {
	keepSet := make(map[string]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id := range s.records {
		if !keepSet[id] {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) EnsureIndexes(context.Context) error { return nil }

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }

// filter returns copies of the matching records. Callers hold the read lock.
func (s *MemoryStore) filter(f query.Filter) []models.Transaction {
	out := []models.Transaction{}
	for _, t := range s.records {
		if matches(&t, f) {
			out = append(out, clone(t))
		}
	}
	return out
}

func matches(t *models.Transaction, f query.Filter) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		found := false
		for _, field := range query.SearchFields {
			if strings.Contains(strings.ToLower(stringField(t, field)), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, clause := range f.In {
		if !slices.Contains(clause.Values, stringField(t, clause.Field)) {
			return false
		}
	}

	if len(f.Tags) > 0 && !slices.ContainsFunc(t.Tags, func(tag string) bool {
		return slices.Contains(f.Tags, tag)
	}) {
		return false
	}

	if r := f.TotalAmount; r != nil {
		if r.Min != nil && t.TotalAmount < *r.Min {
			return false
		}
		if r.Max != nil && t.TotalAmount > *r.Max {
			return false
		}
	}

	if r := f.Date; r != nil {
		if r.From != nil && t.Date.Before(*r.From) {
			return false
		}
		if r.To != nil && t.Date.After(*r.To) {
			return false
		}
	}
	return true
}

func stringField(t *models.Transaction, field string) string {
	switch field {
	case "customerId":
		return t.CustomerID
	case "customerName":
		return t.CustomerName
	case "phoneNumber":
		return t.PhoneNumber
	case "gender":
		return t.Gender
	case "region":
		return t.Region
	case "customerType":
		return t.CustomerType
	case "productId":
		return t.ProductID
	case "productName":
		return t.ProductName
	case "brand":
		return t.Brand
	case "category":
		return t.Category
	case "currency":
		return t.Currency
	case "paymentMethod":
		return t.PaymentMethod
	case "orderStatus":
		return t.OrderStatus
	case "deliveryType":
		return t.DeliveryType
	case "storeId":
		return t.StoreID
	case "storeLocation":
		return t.StoreLocation
	case "salespersonId":
		return t.SalespersonID
	case "employeeName":
		return t.EmployeeName
	case "imageUrl":
		return t.ImageURL
	}
	return ""
}

// sortRecords orders records by the sort field, breaking ties by id in the
// same direction so pages never overlap.
func sortRecords(records []models.Transaction, s query.Sort) {
	slices.SortStableFunc(records, func(a, b models.Transaction) int {
		c := compareField(&a, &b, s.Field)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if s.Desc {
			return -c
		}
		return c
	})
}

func compareField(a, b *models.Transaction, field string) int {
	switch field {
	case "date":
		return a.Date.Compare(b.Date)
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "quantity":
		return cmp.Compare(a.Quantity, b.Quantity)
	case "age":
		return cmp.Compare(a.Age, b.Age)
	case "pricePerUnit":
		return cmp.Compare(a.PricePerUnit, b.PricePerUnit)
	case "discountPercent":
		return cmp.Compare(a.DiscountPercent, b.DiscountPercent)
	case "totalAmount":
		return cmp.Compare(a.TotalAmount, b.TotalAmount)
	case "finalAmount":
		return cmp.Compare(a.FinalAmount, b.FinalAmount)
	}
	return cmp.Compare(stringField(a, field), stringField(b, field))
}

func clone(t models.Transaction) models.Transaction {
	t.Tags = append([]string{}, t.Tags...)
	return t
}
