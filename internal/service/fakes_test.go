package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/supplysync/catalog_api/internal/models"
	"github.com/supplysync/catalog_api/internal/queue"
	"github.com/supplysync/catalog_api/internal/repository"
)

// In-memory fakes for the store interfaces. They run service tests without
// PostgreSQL; the SQL contracts themselves live in the repository layer.

type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error {
	return fn(nil)
}

type fakeItemStore struct {
	mu    sync.Mutex
	items map[int]*models.SupplierItem

	mergedCharacteristics map[int]models.Characteristics

	// afterGet, when set, runs after GetByID snapshots an item. Lets tests
	// interleave a write between a service's read and its merge.
	afterGet func()
}

func newFakeItemStore(items ...*models.SupplierItem) *fakeItemStore {
	s := &fakeItemStore{
		items:                 make(map[int]*models.SupplierItem),
		mergedCharacteristics: make(map[int]models.Characteristics),
	}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *fakeItemStore) ClaimUnmatched(ctx context.Context, q sqlx.ExtContext, categoryID *int, limit int) ([]models.SupplierItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SupplierItem
	for _, it := range s.items {
		if len(out) >= limit {
			break
		}
		if it.MatchStatus != models.MatchStatusUnmatched {
			continue
		}
		if categoryID != nil && (it.CategoryID == nil || *it.CategoryID != *categoryID) {
			continue
		}
		out = append(out, *it)
	}
	return out, nil
}

func (s *fakeItemStore) GetByID(ctx context.Context, q sqlx.ExtContext, id int) (*models.SupplierItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *it
	if s.afterGet != nil {
		s.afterGet()
	}
	return &copied, nil
}

func (s *fakeItemStore) GetByIDLocked(ctx context.Context, q sqlx.ExtContext, id int) (*models.SupplierItem, error) {
	return s.GetByID(ctx, q, id)
}

func (s *fakeItemStore) ResolveLink(ctx context.Context, q sqlx.ExtContext, itemID, productID int, status models.MatchStatus, score *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.items[itemID]
	it.MatchStatus = status
	it.ProductID = &productID
	it.MatchScore = score
	it.MatchCandidates = nil
	return nil
}

func (s *fakeItemStore) ResolvePotential(ctx context.Context, q sqlx.ExtContext, itemID, score int, candidates models.CandidateList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.items[itemID]
	it.MatchStatus = models.MatchStatusPotentialMatch
	it.MatchScore = &score
	it.MatchCandidates = candidates
	return nil
}

func (s *fakeItemStore) ResolveNeedsCategory(ctx context.Context, q sqlx.ExtContext, itemID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[itemID].MatchStatus = models.MatchStatusNeedsCategory
	return nil
}

func (s *fakeItemStore) Unlink(ctx context.Context, q sqlx.ExtContext, itemID int, previousProductID *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.items[itemID]
	it.MatchStatus = models.MatchStatusUnmatched
	it.ProductID = nil
	it.MatchScore = nil
	it.MatchCandidates = nil
	it.PreviousProductID = previousProductID
	return nil
}

func (s *fakeItemStore) MergeCharacteristics(ctx context.Context, itemID int, extracted models.Characteristics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergedCharacteristics[itemID] = extracted
	it := s.items[itemID]
	merged := make(models.Characteristics, len(it.Characteristics)+len(extracted))
	for k, v := range extracted {
		merged[k] = v
	}
	// Mirrors the repository's jsonb merge: stored values win on collision.
	for k, v := range it.Characteristics {
		merged[k] = v
	}
	it.Characteristics = merged
	return nil
}

type fakeProductStore struct {
	mu       sync.Mutex
	products map[int]*models.Product
	nextID   int

	// linkedPrices/linkedStock seed what the recompute derives aggregates
	// from, standing in for the linked supplier item rows.
	linkedPrices map[int][]float64
	linkedStock  map[int][]bool

	recalced  []int
	recalcErr error
}

func newFakeProductStore(products ...*models.Product) *fakeProductStore {
	s := &fakeProductStore{
		products:     make(map[int]*models.Product),
		nextID:       1000,
		linkedPrices: make(map[int][]float64),
		linkedStock:  make(map[int][]bool),
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeProductStore) GetByID(ctx context.Context, q sqlx.ExtContext, id int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *p
	return &copied, nil
}

func (s *fakeProductStore) ListCandidates(ctx context.Context, q sqlx.ExtContext, categoryID int) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, p := range s.products {
		if p.Status == models.ProductStatusArchived {
			continue
		}
		if p.CategoryID != nil && *p.CategoryID != categoryID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeProductStore) CreateDraft(ctx context.Context, q sqlx.ExtContext, name string, categoryID *int, internalSKU string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := &models.Product{
		ID:          s.nextID,
		InternalSKU: internalSKU,
		Name:        name,
		CategoryID:  categoryID,
		Status:      models.ProductStatusDraft,
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *fakeProductStore) RecalcAggregates(ctx context.Context, q sqlx.ExtContext, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recalcErr != nil {
		return s.recalcErr
	}
	s.recalced = append(s.recalced, productID)
	p, ok := s.products[productID]
	if !ok {
		return nil
	}
	prices := s.linkedPrices[productID]
	if len(prices) == 0 {
		p.MinPrice = decimal.NullDecimal{}
		p.Availability = false
		return nil
	}
	min := prices[0]
	for _, v := range prices[1:] {
		if v < min {
			min = v
		}
	}
	p.MinPrice = decimal.NewNullDecimal(decimal.NewFromFloat(min))
	p.Availability = false
	for _, inStock := range s.linkedStock[productID] {
		if inStock {
			p.Availability = true
			break
		}
	}
	return nil
}

type fakeReviewStore struct {
	mu      sync.Mutex
	nextID  int
	entries map[int]*models.MatchReviewQueueItem

	expired int64
}

func newFakeReviewStore(entries ...*models.MatchReviewQueueItem) *fakeReviewStore {
	s := &fakeReviewStore{entries: make(map[int]*models.MatchReviewQueueItem)}
	for _, e := range entries {
		s.entries[e.ID] = e
		if e.ID > s.nextID {
			s.nextID = e.ID
		}
	}
	return s
}

func (s *fakeReviewStore) Create(ctx context.Context, q sqlx.ExtContext, itemID int, candidates models.CandidateList, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.SupplierItemID == itemID && e.Status == models.ReviewStatusPending {
			return nil
		}
	}
	s.nextID++
	s.entries[s.nextID] = &models.MatchReviewQueueItem{
		ID:                s.nextID,
		SupplierItemID:    itemID,
		CandidateProducts: candidates,
		Status:            models.ReviewStatusPending,
		CreatedAt:         time.Now(),
		ExpiresAt:         expiresAt,
	}
	return nil
}

func (s *fakeReviewStore) GetByID(ctx context.Context, q sqlx.ExtContext, id int) (*models.MatchReviewQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *e
	return &copied, nil
}

func (s *fakeReviewStore) ResolvePendingForItem(ctx context.Context, q sqlx.ExtContext, itemID int, status models.ReviewStatus, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, e := range s.entries {
		if e.SupplierItemID == itemID && e.Status == models.ReviewStatusPending {
			e.Status = status
			e.ResolvedAt = &now
			e.ResolvedBy = &actor
		}
	}
	return nil
}

func (s *fakeReviewStore) ExpireDue(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := time.Now()
	for _, e := range s.entries {
		if e.Status == models.ReviewStatusPending && e.ExpiresAt.Before(now) {
			e.Status = models.ReviewStatusExpired
			n++
		}
	}
	s.expired = n
	return n, nil
}

func (s *fakeReviewStore) ListPending(ctx context.Context, f *repository.ListPendingFilter) ([]models.ReviewCandidateRow, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []models.ReviewCandidateRow
	for _, e := range s.entries {
		if e.Status != models.ReviewStatusPending {
			continue
		}
		rows = append(rows, models.ReviewCandidateRow{
			ReviewID:       e.ID,
			SupplierItemID: e.SupplierItemID,
			Candidates:     e.CandidateProducts,
			CreatedAt:      e.CreatedAt,
			ExpiresAt:      e.ExpiresAt,
		})
	}
	return rows, len(rows), nil
}

func (s *fakeReviewStore) CountsByStatus(ctx context.Context) ([]models.ReviewQueueStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[models.ReviewStatus]int)
	for _, e := range s.entries {
		counts[e.Status]++
	}
	var stats []models.ReviewQueueStat
	for status, n := range counts {
		stats = append(stats, models.ReviewQueueStat{Status: status, Count: n})
	}
	return stats, nil
}

func (s *fakeReviewStore) SearchCandidates(ctx context.Context, f *repository.SearchCandidatesFilter) ([]models.ReviewCandidateRow, int, error) {
	return s.ListPending(ctx, nil)
}

func (s *fakeReviewStore) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.Status == models.ReviewStatusPending {
			n++
		}
	}
	return n
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []models.MatchAuditLog
}

func (s *fakeAuditStore) Insert(ctx context.Context, q sqlx.ExtContext, entry *models.MatchAuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *fakeAuditStore) ListByItem(ctx context.Context, itemID int) ([]models.MatchAuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MatchAuditLog
	for _, e := range s.entries {
		if e.SupplierItemID == itemID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeAuditStore) lastAction() models.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return ""
	}
	return s.entries[len(s.entries)-1].Action
}

type fakeQueue struct {
	mu        sync.Mutex
	published []*models.Task
	delayed   []delayedTask
	dead      []queue.DeadTask
}

type delayedTask struct {
	task  *models.Task
	delay time.Duration
}

func (q *fakeQueue) Publish(ctx context.Context, task *models.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, task)
	return nil
}

func (q *fakeQueue) PublishDelayed(ctx context.Context, task *models.Task, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.delayed = append(q.delayed, delayedTask{task: task, delay: delay})
	return nil
}

func (q *fakeQueue) Consume(ctx context.Context) (*models.Task, error) {
	return nil, nil
}

func (q *fakeQueue) PromoteDue(ctx context.Context) (int, error) { return 0, nil }

func (q *fakeQueue) DeadLetter(ctx context.Context, task *models.Task, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, queue.DeadTask{Task: *task, Reason: reason, FailedAt: time.Now()})
	return nil
}

func (q *fakeQueue) DeadLetters(ctx context.Context, limit int64) ([]queue.DeadTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.DeadTask(nil), q.dead...), nil
}

func unmarshalPayload(task *models.Task, v any) error {
	return json.Unmarshal(task.Payload, v)
}

func (q *fakeQueue) publishedTypes() []models.TaskType {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []models.TaskType
	for _, t := range q.published {
		out = append(out, t.Type)
	}
	return out
}

// fixedStrategy returns canned candidates regardless of input.
type fixedStrategy struct {
	candidates []models.MatchCandidate
}

func (s *fixedStrategy) FindMatches(item *models.SupplierItem, candidates []models.Product) []models.MatchCandidate {
	return s.candidates
}

func (s *fixedStrategy) Name() string { return "fixed" }
