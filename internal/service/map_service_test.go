package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ergomap/risk-map/internal/ai"
	"github.com/ergomap/risk-map/internal/model"
	"github.com/ergomap/risk-map/internal/queue"
	"github.com/ergomap/risk-map/internal/repository"
)

// fakeMapStore is an in-memory MapStore.
type fakeMapStore struct {
	mu      sync.Mutex
	nextID  uint64
	maps    map[uint64]*model.RiskMap
	touched []uint64
}

func newFakeMapStore() *fakeMapStore {
	return &fakeMapStore{maps: map[uint64]*model.RiskMap{}}
}

func (f *fakeMapStore) Create(ctx context.Context, m *model.RiskMap) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = time.Now().UTC()
	m.UpdatedAt = m.CreatedAt
	cp := *m
	f.maps[m.ID] = &cp
	return nil
}

func (f *fakeMapStore) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.RiskMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.maps[id]
	if !ok || m.OwnerID != ownerID {
		return nil, repository.ErrMapNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMapStore) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.RiskMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.RiskMap{}
	for id := uint64(1); id <= f.nextID; id++ {
		if m, ok := f.maps[id]; ok && m.OwnerID == ownerID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeMapStore) Touch(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeMapStore) touchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.touched)
}

func (f *fakeMapStore) DeleteCascade(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.maps[id]; !ok {
		return repository.ErrMapNotFound
	}
	delete(f.maps, id)
	return nil
}

// fakeRiskStore is an in-memory RiskStore.  failAfter > 0 makes the
// Nth Create call fail, to exercise the partial-population contract.
type fakeRiskStore struct {
	mu        sync.Mutex
	nextID    uint64
	risks     map[uint64]*model.Risk
	creates   int
	failAfter int
}

func newFakeRiskStore() *fakeRiskStore {
	return &fakeRiskStore{risks: map[uint64]*model.Risk{}}
}

func (f *fakeRiskStore) Create(ctx context.Context, rk *model.Risk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failAfter > 0 && f.creates >= f.failAfter {
		return fmt.Errorf("connection refused")
	}
	f.nextID++
	rk.ID = f.nextID
	rk.CreatedAt = time.Now().UTC()
	rk.UpdatedAt = rk.CreatedAt
	cp := *rk
	f.risks[rk.ID] = &cp
	return nil
}

func (f *fakeRiskStore) GetByID(ctx context.Context, id uint64) (*model.Risk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rk, ok := f.risks[id]
	if !ok {
		return nil, repository.ErrRiskNotFound
	}
	cp := *rk
	return &cp, nil
}

func (f *fakeRiskStore) ListByMap(ctx context.Context, mapID uint64) ([]*model.Risk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Risk{}
	for id := uint64(1); id <= f.nextID; id++ {
		if rk, ok := f.risks[id]; ok && rk.MapID == mapID {
			cp := *rk
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRiskStore) UpdatePosition(ctx context.Context, id uint64, x, y int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rk, ok := f.risks[id]
	if !ok {
		return repository.ErrRiskNotFound
	}
	rk.X, rk.Y = x, y
	return nil
}

func (f *fakeRiskStore) Update(ctx context.Context, id uint64, u model.RiskUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rk, ok := f.risks[id]
	if !ok {
		return repository.ErrRiskNotFound
	}
	if u.Label != nil {
		rk.Label = *u.Label
	}
	if u.Severity != nil {
		rk.Severity = *u.Severity
	}
	if u.Category != nil {
		rk.Category = *u.Category
	}
	if u.Description != nil {
		rk.Description = *u.Description
	}
	if u.X != nil {
		rk.X = *u.X
	}
	if u.Y != nil {
		rk.Y = *u.Y
	}
	if u.Radius != nil {
		rk.Radius = *u.Radius
	}
	if u.Color != nil {
		rk.Color = *u.Color
	}
	return nil
}

func (f *fakeRiskStore) DeleteByID(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.risks[id]; !ok {
		return repository.ErrRiskNotFound
	}
	delete(f.risks, id)
	return nil
}

// fakeGenerator returns canned output or injected errors.
type fakeGenerator struct {
	diagramErr error
	hazardsErr error
	hazards    []ai.Hazard
}

func (g *fakeGenerator) GenerateDiagram(ctx context.Context, description string, width, height int) (*ai.Diagram, error) {
	if g.diagramErr != nil {
		return nil, g.diagramErr
	}
	return &ai.Diagram{SVG: "<svg viewBox=\"0 0 1000 800\"></svg>", Width: width, Height: height}, nil
}

func (g *fakeGenerator) IdentifyHazards(ctx context.Context, description string) ([]ai.Hazard, error) {
	if g.hazardsErr != nil {
		return nil, g.hazardsErr
	}
	return g.hazards, nil
}

// fakePublisher records emitted events.
type fakePublisher struct {
	mu     sync.Mutex
	events []queue.MapGeneratedEvent
}

func (p *fakePublisher) PublishMapGenerated(ctx context.Context, ev queue.MapGeneratedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// fakeInvalidator records cache-drop callbacks per owner.
type fakeInvalidator struct {
	mu    sync.Mutex
	drops []uint64
}

func (f *fakeInvalidator) drop(ctx context.Context, ownerID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drops = append(f.drops, ownerID)
}

func (f *fakeInvalidator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.drops)
}

func (f *fakeInvalidator) owners() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uint64, len(f.drops))
	copy(out, f.drops)
	return out
}

func defaultHazards() []ai.Hazard {
	return []ai.Hazard{
		{Category: model.CategoryErgonomic, Severity: model.SeverityHigh, Label: "Poor posture", Description: "Non-adjustable desks."},
		{Category: model.CategoryPhysical, Severity: model.SeverityMedium, Label: "Trailing cables"},
		{Category: model.CategoryChemical, Severity: model.SeverityLow, Label: "Cleaning agents"},
		{Category: model.CategoryAccidental, Severity: model.SeverityCritical, Label: "Open stairwell"},
	}
}

func newTestService(gen ai.Generator, events EventPublisher) (*MapService, *fakeMapStore, *fakeRiskStore) {
	maps := newFakeMapStore()
	risks := newFakeRiskStore()
	svc := NewMapService(maps, risks, gen, events)
	svc.touchDelay = 20 * time.Millisecond
	return svc, maps, risks
}

func TestCreateMap_AppliesDefaultsAndValidates(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)
	ctx := context.Background()

	m, err := svc.CreateMap(ctx, 1, "Office", "10-person office", "<svg></svg>", 0, 0)
	require.NoError(t, err)
	assert.Positive(t, m.ID)
	assert.Equal(t, model.DefaultCanvasWidth, m.Width)
	assert.Equal(t, model.DefaultCanvasHeight, m.Height)

	list, err := svc.ListMaps(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, m.ID, list[0].ID)
	assert.Equal(t, "Office", list[0].Title)

	_, err = svc.CreateMap(ctx, 1, "  ", "desc", "<svg></svg>", 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateMap(ctx, 1, "Office", "desc", "", 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetMap_ForeignOwnerLooksMissing(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)
	ctx := context.Background()

	m, err := svc.CreateMap(ctx, 1, "Office", "desc", "<svg></svg>", 0, 0)
	require.NoError(t, err)

	// Owner sees it.
	_, _, err = svc.GetMap(ctx, m.ID, 1)
	require.NoError(t, err)

	// Someone else gets the exact same NotFound as for a missing id.
	_, _, errForeign := svc.GetMap(ctx, m.ID, 2)
	_, _, errMissing := svc.GetMap(ctx, 999, 2)
	assert.ErrorIs(t, errForeign, ErrNotFound)
	assert.ErrorIs(t, errMissing, ErrNotFound)
	assert.Equal(t, errMissing, errForeign)
}

func TestListMaps_EmptyIsNotNil(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)
	list, err := svc.ListMaps(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, list)
	assert.Empty(t, list)
}

func TestDeleteMap_CascadesToRisks(t *testing.T) {
	svc, _, risks := newTestService(nil, nil)
	ctx := context.Background()

	m, err := svc.CreateMap(ctx, 1, "Office", "desc", "<svg></svg>", 0, 0)
	require.NoError(t, err)
	rk, err := svc.AddRisk(ctx, 1, m.ID, RiskInput{
		Category: model.CategoryErgonomic, Severity: model.SeverityHigh, Label: "Poor posture", X: 100, Y: 100,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMap(ctx, m.ID, 1))

	_, _, err = svc.GetMap(ctx, m.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = risks.GetByID(ctx, rk.ID)
	assert.Error(t, err, "risk must not be retrievable after the map is gone")
}

func TestDeleteMap_ForeignOwnerRejected(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)
	ctx := context.Background()
	m, err := svc.CreateMap(ctx, 1, "Office", "desc", "<svg></svg>", 0, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteMap(ctx, m.ID, 2), ErrNotFound)
	_, _, err = svc.GetMap(ctx, m.ID, 1)
	assert.NoError(t, err, "map must survive a foreign delete attempt")
}

func TestAddRisk_DerivesRadiusAndColor(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)
	ctx := context.Background()
	m, err := svc.CreateMap(ctx, 1, "Office", "desc", "<svg></svg>", 0, 0)
	require.NoError(t, err)

	rk, err := svc.AddRisk(ctx, 1, m.ID, RiskInput{
		Category: model.CategoryErgonomic, Severity: model.SeverityHigh, Label: "Poor posture",
		X: 100, Y: 100, Color: "#6BCB77",
	})
	require.NoError(t, err)
	assert.Positive(t, rk.ID)
	assert.Equal(t, 40, rk.Radius, "radius defaults from severity high")
	assert.Equal(t, "#6BCB77", rk.Color)

	_, all, err := svc.GetMap(ctx, m.ID, 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, rk.ID, all[0].ID)

	// Color defaults from category when omitted.
	rk2, err := svc.AddRisk(ctx, 1, m.ID, RiskInput{
		Category: model.CategoryChemical, Severity: model.SeverityLow, Label: "Solvents", X: 10, Y: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "#FFD93D", rk2.Color)
	assert.Equal(t, 20, rk2.Radius)
}

func TestAddRisk_RejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)
	ctx := context.Background()
	m, err := svc.CreateMap(ctx, 1, "Office", "desc", "<svg></svg>", 0, 0)
	require.NoError(t, err)

	cases := []RiskInput{
		{Category: "cosmic", Severity: model.SeverityLow, Label: "x"},
		{Category: model.CategoryPhysical, Severity: "apocalyptic", Label: "x"},
		{Category: model.CategoryPhysical, Severity: model.SeverityLow, Label: "  "},
		{Category: model.CategoryPhysical, Severity: model.SeverityLow, Label: "x", X: -1},
		{Category: model.CategoryPhysical, Severity: model.SeverityLow, Label: "x", X: m.Width + 1},
	}
	for i, in := range cases {
		_, err := svc.AddRisk(ctx, 1, m.ID, in)
		assert.ErrorIs(t, err, ErrInvalidInput, "case %d", i)
	}

	// Nonexistent map and foreign map are both invalid input.
	_, err = svc.AddRisk(ctx, 1, 999, RiskInput{Category: model.CategoryPhysical, Severity: model.SeverityLow, Label: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddRisk(ctx, 2, m.ID, RiskInput{Category: model.CategoryPhysical, Severity: model.SeverityLow, Label: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdatePosition_RoundTripAndDebouncedTouch(t *testing.T) {
	svc, maps, _ := newTestService(nil, nil)
	defer svc.Close()
	ctx := context.Background()
	m, err := svc.CreateMap(ctx, 1, "Office", "desc", "<svg></svg>", 0, 0)
	require.NoError(t, err)
	rk, err := svc.AddRisk(ctx, 1, m.ID, RiskInput{
		Category: model.CategoryErgonomic, Severity: model.SeverityHigh, Label: "Poor posture", X: 100, Y: 100,
	})
	require.NoError(t, err)

	// A burst of drag updates: every one is durable immediately...
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.UpdatePosition(ctx, rk.ID, 1, 150+10*i, 150+10*i))
	}
	require.NoError(t, svc.UpdatePosition(ctx, rk.ID, 1, 200, 200))

	_, all, err := svc.GetMap(ctx, m.ID, 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 200, all[0].X)
	assert.Equal(t, 200, all[0].Y)
	assert.Equal(t, rk.Label, all[0].Label, "other fields unchanged")
	assert.Equal(t, rk.Radius, all[0].Radius)

	// ...but the parent-map touch coalesces to a single follow-up.
	require.Eventually(t, func() bool { return maps.touchCount() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, maps.touchCount(), "burst of moves must produce one touch")
}

func TestMutationsDropOwnerCache(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)
	inv := &fakeInvalidator{}
	svc.SetCacheInvalidator(inv.drop)
	ctx := context.Background()

	m, err := svc.CreateMap(ctx, 1, "Office", "desc", "<svg></svg>", 0, 0)
	require.NoError(t, err)
	rk, err := svc.AddRisk(ctx, 1, m.ID, RiskInput{
		Category: model.CategoryChemical, Severity: model.SeverityLow, Label: "Solvents", X: 10, Y: 10,
	})
	require.NoError(t, err)
	label := "Stored solvents"
	require.NoError(t, svc.UpdateRisk(ctx, rk.ID, 1, model.RiskUpdate{Label: &label}))
	require.NoError(t, svc.DeleteRisk(ctx, rk.ID, 1))
	require.NoError(t, svc.DeleteMap(ctx, m.ID, 1))

	assert.Equal(t, 5, inv.count(), "every mutation must drop the owner's cached responses")
	for _, owner := range inv.owners() {
		assert.Equal(t, uint64(1), owner)
	}
}

func TestUpdatePosition_SettleDropsCacheOnce(t *testing.T) {
	svc, maps, _ := newTestService(nil, nil)
	inv := &fakeInvalidator{}
	svc.SetCacheInvalidator(inv.drop)
	defer svc.Close()
	ctx := context.Background()

	m, err := svc.CreateMap(ctx, 2, "Workshop", "desc", "<svg></svg>", 0, 0)
	require.NoError(t, err)
	rk, err := svc.AddRisk(ctx, 2, m.ID, RiskInput{
		Category: model.CategoryPhysical, Severity: model.SeverityMedium, Label: "Noise", X: 50, Y: 50,
	})
	require.NoError(t, err)
	before := inv.count() // create + add drops

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.UpdatePosition(ctx, rk.ID, 2, 60+i, 60+i))
	}
	assert.Equal(t, before, inv.count(), "position writes alone must not drop the cache yet")

	// The settle follow-up bumps the map and drops this owner's entries once.
	require.Eventually(t, func() bool { return inv.count() == before+1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, before+1, inv.count(), "burst of moves must produce one cache drop")
	assert.Equal(t, 1, maps.touchCount())
	assert.Equal(t, uint64(2), inv.owners()[len(inv.owners())-1])
}

func TestUpdatePosition_OwnershipAndBounds(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)
	defer svc.Close()
	ctx := context.Background()
	m, err := svc.CreateMap(ctx, 1, "Office", "desc", "<svg></svg>", 0, 0)
	require.NoError(t, err)
	rk, err := svc.AddRisk(ctx, 1, m.ID, RiskInput{
		Category: model.CategoryErgonomic, Severity: model.SeverityHigh, Label: "Poor posture", X: 100, Y: 100,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdatePosition(ctx, rk.ID, 2, 10, 10), ErrNotFound)
	assert.ErrorIs(t, svc.UpdatePosition(ctx, 999, 1, 10, 10), ErrNotFound)
	assert.ErrorIs(t, svc.UpdatePosition(ctx, rk.ID, 1, -5, 10), ErrInvalidInput)
	assert.ErrorIs(t, svc.UpdatePosition(ctx, rk.ID, 1, 10, m.Height+1), ErrInvalidInput)
}

func TestUpdateRisk_PartialFields(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)
	defer svc.Close()
	ctx := context.Background()
	m, err := svc.CreateMap(ctx, 1, "Office", "desc", "<svg></svg>", 0, 0)
	require.NoError(t, err)
	rk, err := svc.AddRisk(ctx, 1, m.ID, RiskInput{
		Category: model.CategoryErgonomic, Severity: model.SeverityHigh, Label: "Poor posture", X: 100, Y: 100,
	})
	require.NoError(t, err)

	label := "Bad chairs"
	sev := model.SeverityCritical
	require.NoError(t, svc.UpdateRisk(ctx, rk.ID, 1, model.RiskUpdate{Label: &label, Severity: &sev}))

	_, all, err := svc.GetMap(ctx, m.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Bad chairs", all[0].Label)
	assert.Equal(t, model.SeverityCritical, all[0].Severity)
	assert.Equal(t, rk.Category, all[0].Category, "untouched fields survive")

	assert.ErrorIs(t, svc.UpdateRisk(ctx, rk.ID, 1, model.RiskUpdate{}), ErrInvalidInput)
	assert.ErrorIs(t, svc.UpdateRisk(ctx, rk.ID, 2, model.RiskUpdate{Label: &label}), ErrNotFound)
}

func TestDeleteRisk_OwnerScoped(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)
	defer svc.Close()
	ctx := context.Background()
	m, err := svc.CreateMap(ctx, 1, "Office", "desc", "<svg></svg>", 0, 0)
	require.NoError(t, err)
	rk, err := svc.AddRisk(ctx, 1, m.ID, RiskInput{
		Category: model.CategoryErgonomic, Severity: model.SeverityHigh, Label: "Poor posture", X: 100, Y: 100,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteRisk(ctx, rk.ID, 2), ErrNotFound)
	require.NoError(t, svc.DeleteRisk(ctx, rk.ID, 1))
	assert.ErrorIs(t, svc.DeleteRisk(ctx, rk.ID, 1), ErrNotFound)
}

func TestGenerateAndPopulate_FullFlow(t *testing.T) {
	gen := &fakeGenerator{hazards: defaultHazards()}
	pub := &fakePublisher{}
	svc, _, _ := newTestService(gen, pub)
	defer svc.Close()
	ctx := context.Background()

	res, err := svc.GenerateAndPopulate(ctx, 1, "10-person office with a kitchenette")
	require.NoError(t, err)
	require.NotNil(t, res.Map)
	assert.Positive(t, res.Map.ID)
	assert.Equal(t, model.DefaultCanvasWidth, res.Map.Width)
	require.Len(t, res.Risks, 4)

	// Insertion order mirrors the generation order.
	for i, h := range defaultHazards() {
		assert.Equal(t, h.Label, res.Risks[i].Label, "hazard %d out of order", i)
		assert.Equal(t, h.Category, res.Risks[i].Category)
	}
	// Every marker inside the safety margins, encoding from the tables.
	for _, rk := range res.Risks {
		assert.GreaterOrEqual(t, rk.X, 50)
		assert.LessOrEqual(t, rk.X, res.Map.Width-50)
		assert.GreaterOrEqual(t, rk.Y, 50)
		assert.LessOrEqual(t, rk.Y, res.Map.Height-50)
		assert.NotEmpty(t, rk.Color)
		assert.Positive(t, rk.Radius)
	}

	// Reading the aggregate back preserves the spread.
	_, all, err := svc.GetMap(ctx, res.Map.ID, 1)
	require.NoError(t, err)
	require.Len(t, all, 4)

	require.Len(t, pub.events, 1)
	assert.Equal(t, res.Map.ID, pub.events[0].MapID)
	assert.Equal(t, 4, pub.events[0].RiskCount)
}

func TestGenerateAndPopulate_EmptyDescription(t *testing.T) {
	svc, _, _ := newTestService(&fakeGenerator{hazards: defaultHazards()}, nil)
	defer svc.Close()
	_, err := svc.GenerateAndPopulate(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateAndPopulate_FormatErrorAborts(t *testing.T) {
	gen := &fakeGenerator{diagramErr: fmt.Errorf("%w: no <svg> fragment", ai.ErrBadFormat)}
	svc, maps, _ := newTestService(gen, nil)
	defer svc.Close()

	res, err := svc.GenerateAndPopulate(context.Background(), 1, "a workshop")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrGenerationFormat)

	// Nothing persisted when the first phase fails.
	list, _ := maps.ListByOwner(context.Background(), 1)
	assert.Empty(t, list)
}

func TestGenerateAndPopulate_HazardPhaseDistinctError(t *testing.T) {
	gen := &fakeGenerator{hazardsErr: errors.New("upstream timeout")}
	svc, _, _ := newTestService(gen, nil)
	defer svc.Close()

	_, err := svc.GenerateAndPopulate(context.Background(), 1, "a workshop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identify hazards", "failure reason names the phase")
}

func TestGenerateAndPopulate_PartialInsertKeepsPersistedRisks(t *testing.T) {
	gen := &fakeGenerator{hazards: defaultHazards()}
	svc, _, risks := newTestService(gen, nil)
	defer svc.Close()
	risks.failAfter = 3 // third insert fails

	ctx := context.Background()
	res, err := svc.GenerateAndPopulate(ctx, 1, "a workshop with four hazards")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
	assert.Contains(t, err.Error(), "hazard 3 of 4")

	// The partial aggregate is returned and remains queryable.
	require.NotNil(t, res)
	require.Len(t, res.Risks, 2)
	m, all, err := svc.GetMap(ctx, res.Map.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, res.Map.ID, m.ID)
	assert.Len(t, all, 2)
}
