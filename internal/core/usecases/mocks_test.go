package usecases_test

import (
	"context"
	"sync"

	"github.com/biohubbc/biohub/internal/core/domain"
	"github.com/biohubbc/biohub/internal/core/ports"
)

// --- Mock SubmissionRepository ---

type mockSubmissionRepo struct {
	createFn  func(ctx context.Context, sub *domain.Submission) error
	getByIDFn func(ctx context.Context, id string) (*domain.Submission, error)
	listFn    func(ctx context.Context, offset, limit int) ([]domain.Submission, int, error)
}

func (m *mockSubmissionRepo) Create(ctx context.Context, sub *domain.Submission) error {
	if m.createFn != nil {
		return m.createFn(ctx, sub)
	}
	return nil
}

func (m *mockSubmissionRepo) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSubmissionRepo) List(ctx context.Context, offset, limit int) ([]domain.Submission, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, 0, nil
}

// --- Mock TransformRepository ---

type mockTransformRepo struct {
	saveFn      func(ctx context.Context, out *domain.TransformOutput) error
	recordRunFn func(ctx context.Context, run *domain.TransformRun) error
	currentFn   func(ctx context.Context, id string) ([]domain.SpatialComponent, error)
	metadataFn  func(ctx context.Context, id string) (*domain.SubmissionMetadata, error)
}

func (m *mockTransformRepo) SaveTransform(ctx context.Context, out *domain.TransformOutput) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, out)
	}
	return nil
}

func (m *mockTransformRepo) RecordRun(ctx context.Context, run *domain.TransformRun) error {
	if m.recordRunFn != nil {
		return m.recordRunFn(ctx, run)
	}
	return nil
}

func (m *mockTransformRepo) CurrentSpatialComponents(ctx context.Context, id string) ([]domain.SpatialComponent, error) {
	if m.currentFn != nil {
		return m.currentFn(ctx, id)
	}
	return nil, nil
}

func (m *mockTransformRepo) CurrentMetadata(ctx context.Context, id string) (*domain.SubmissionMetadata, error) {
	if m.metadataFn != nil {
		return m.metadataFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockTransformRepo) LatestRun(ctx context.Context, id string) (*domain.TransformRun, error) {
	return nil, domain.ErrNotFound
}

// --- Mock SearchRepository ---

type mockSearchRepo struct {
	boundsFn   func(ctx context.Context, b domain.Bounds, limit int) ([]domain.SpatialComponent, error)
	nearbyFn   func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.SpatialComponent, error)
	metadataFn func(ctx context.Context, q string, limit int) ([]domain.SubmissionMetadata, error)
}

func (m *mockSearchRepo) WithinBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.SpatialComponent, error) {
	if m.boundsFn != nil {
		return m.boundsFn(ctx, b, limit)
	}
	return nil, nil
}

func (m *mockSearchRepo) Nearby(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.SpatialComponent, error) {
	if m.nearbyFn != nil {
		return m.nearbyFn(ctx, lat, lon, radius, limit)
	}
	return nil, nil
}

func (m *mockSearchRepo) Metadata(ctx context.Context, q string, limit int) ([]domain.SubmissionMetadata, error) {
	if m.metadataFn != nil {
		return m.metadataFn(ctx, q, limit)
	}
	return nil, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu          sync.Mutex
	ingested    []*ports.SubmissionEvent
	transformed []*ports.SubmissionEvent
	err         error
}

func (m *mockPublisher) PublishSubmissionIngested(ctx context.Context, ev *ports.SubmissionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingested = append(m.ingested, ev)
	return m.err
}

func (m *mockPublisher) PublishSubmissionTransformed(ctx context.Context, ev *ports.SubmissionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transformed = append(m.transformed, ev)
	return m.err
}

// --- In-memory CacheService ---

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}
