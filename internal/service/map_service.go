package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ergomap/risk-map/internal/ai"
	"github.com/ergomap/risk-map/internal/debounce"
	"github.com/ergomap/risk-map/internal/layout"
	"github.com/ergomap/risk-map/internal/model"
	"github.com/ergomap/risk-map/internal/queue"
)

// positionSettleDelay is how long a marker must sit still before the
// coalesced follow-up (parent map updated_at bump) is written.  Drag
// events arrive tens of times per second; the follow-up happens once
// per pause.
const positionSettleDelay = 1500 * time.Millisecond

// MapStore is the persistence surface the service needs for risk maps.
// *repository.MapRepo satisfies it; tests inject in-memory fakes.
type MapStore interface {
	Create(ctx context.Context, m *model.RiskMap) error
	GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.RiskMap, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]*model.RiskMap, error)
	Touch(ctx context.Context, id uint64) error
	DeleteCascade(ctx context.Context, id uint64) error
}

// RiskStore is the persistence surface the service needs for risks.
// *repository.RiskRepo satisfies it.
type RiskStore interface {
	Create(ctx context.Context, rk *model.Risk) error
	GetByID(ctx context.Context, id uint64) (*model.Risk, error)
	ListByMap(ctx context.Context, mapID uint64) ([]*model.Risk, error)
	UpdatePosition(ctx context.Context, id uint64, x, y int) error
	Update(ctx context.Context, id uint64, u model.RiskUpdate) error
	DeleteByID(ctx context.Context, id uint64) error
}

// EventPublisher pushes domain events to the message broker.  Publish
// failures never break a request; implementations log and return the
// error for callers that care.
type EventPublisher interface {
	PublishMapGenerated(ctx context.Context, ev queue.MapGeneratedEvent) error
}

// RiskInput carries the caller-supplied fields of a new risk.  Radius
// and Color are optional: when zero/empty they are derived from the
// severity and category tables so manual adds look the same as
// generated ones.
type RiskInput struct {
	Category    model.Category
	Severity    model.Severity
	Label       string
	Description string
	X           int
	Y           int
	Radius      int
	Color       string
}

// GenerateResult is the aggregate returned by the composite generation
// flow.  On a mid-loop insert failure it carries everything persisted
// so far alongside the returned error; retry is the caller's business.
type GenerateResult struct {
	Map   *model.RiskMap `json:"map"`
	Risks []*model.Risk  `json:"risks"`
}

// MapService is the single orchestration point for risk map CRUD and
// the description → persisted aggregate generation flow.  All
// collaborators are injected at construction; there are no lazily
// initialized globals.
type MapService struct {
	maps   MapStore
	risks  RiskStore
	gen    ai.Generator
	events EventPublisher // optional, may be nil

	// dropCache evicts the owner's cached GET responses after a
	// mutation.  Optional; nil means no response cache is configured.
	dropCache func(ctx context.Context, ownerID uint64)

	touchDelay time.Duration
	mu         sync.Mutex
	touchers   map[uint64]*debounce.Debouncer[touchArgs]
}

// touchArgs carries what the debounced follow-up needs: the map to bump
// and the owner whose cache entries to drop.
type touchArgs struct {
	mapID   uint64
	ownerID uint64
}

// NewMapService wires the service.  gen and events may be nil when the
// corresponding features are disabled (generation endpoints then fail
// with ErrInvalidInput / events are skipped).
func NewMapService(maps MapStore, risks RiskStore, gen ai.Generator, events EventPublisher) *MapService {
	if maps == nil || risks == nil {
		panic("nil store passed to NewMapService")
	}
	return &MapService{
		maps:       maps,
		risks:      risks,
		gen:        gen,
		events:     events,
		touchDelay: positionSettleDelay,
		touchers:   map[uint64]*debounce.Debouncer[touchArgs]{},
	}
}

// SetCacheInvalidator installs the callback that drops an owner's
// cached GET responses.  Every mutation calls it; the debounced
// position follow-up calls it once per drag pause.
func (s *MapService) SetCacheInvalidator(fn func(ctx context.Context, ownerID uint64)) {
	s.dropCache = fn
}

func (s *MapService) invalidateCache(ctx context.Context, ownerID uint64) {
	if s.dropCache != nil {
		s.dropCache(ctx, ownerID)
	}
}

// CreateMap validates and persists a new risk map for the owner.
// Width/height default to 1000×800 when not supplied.
func (s *MapService) CreateMap(ctx context.Context, ownerID uint64, title, description, diagram string, width, height int) (*model.RiskMap, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(diagram) == "" {
		return nil, fmt.Errorf("%w: diagram is required", ErrInvalidInput)
	}
	if width <= 0 {
		width = model.DefaultCanvasWidth
	}
	if height <= 0 {
		height = model.DefaultCanvasHeight
	}
	m := &model.RiskMap{
		OwnerID:      ownerID,
		Title:        title,
		Description:  description,
		FloorPlanSVG: diagram,
		Width:        width,
		Height:       height,
	}
	if err := s.maps.Create(ctx, m); err != nil {
		return nil, storeErr(err)
	}
	s.invalidateCache(ctx, ownerID)
	return m, nil
}

// GetMap returns the map aggregate for its owner.  A missing map and a
// map owned by someone else produce the same ErrNotFound.
func (s *MapService) GetMap(ctx context.Context, mapID, ownerID uint64) (*model.RiskMap, []*model.Risk, error) {
	m, err := s.maps.GetByIDAndOwner(ctx, mapID, ownerID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	risks, err := s.risks.ListByMap(ctx, mapID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	return m, risks, nil
}

// ListMaps returns the owner's maps ordered by creation time.  An owner
// with no maps gets an empty slice, never nil.
func (s *MapService) ListMaps(ctx context.Context, ownerID uint64) ([]*model.RiskMap, error) {
	maps, err := s.maps.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	if maps == nil {
		maps = []*model.RiskMap{}
	}
	return maps, nil
}

// DeleteMap removes a map and, first, every risk referencing it.  The
// risks-before-map order is a correctness requirement since the store
// does not cascade on its own.
func (s *MapService) DeleteMap(ctx context.Context, mapID, ownerID uint64) error {
	if _, err := s.maps.GetByIDAndOwner(ctx, mapID, ownerID); err != nil {
		return storeErr(err)
	}
	if err := s.maps.DeleteCascade(ctx, mapID); err != nil {
		return storeErr(err)
	}
	s.dropToucher(mapID)
	s.invalidateCache(ctx, ownerID)
	return nil
}

// AddRisk validates and persists one manually added hazard marker.  A
// map id that does not correspond to a map of this owner is invalid
// input.  Radius defaults from severity, color from category.
func (s *MapService) AddRisk(ctx context.Context, ownerID, mapID uint64, in RiskInput) (*model.Risk, error) {
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}
	if !in.Severity.Valid() {
		return nil, fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, in.Severity)
	}
	if strings.TrimSpace(in.Label) == "" {
		return nil, fmt.Errorf("%w: label is required", ErrInvalidInput)
	}
	m, err := s.maps.GetByIDAndOwner(ctx, mapID, ownerID)
	if err != nil {
		// Missing and foreign-owned maps are equally "no such map" here.
		return nil, fmt.Errorf("%w: map %d does not exist", ErrInvalidInput, mapID)
	}
	if in.X < 0 || in.X > m.Width || in.Y < 0 || in.Y > m.Height {
		return nil, fmt.Errorf("%w: position (%d,%d) outside canvas %dx%d", ErrInvalidInput, in.X, in.Y, m.Width, m.Height)
	}
	radius := in.Radius
	if radius <= 0 {
		radius = layout.RadiusForSeverity(in.Severity)
	}
	color := in.Color
	if color == "" {
		color = layout.ColorForCategory(in.Category)
	}
	rk := &model.Risk{
		MapID:       mapID,
		Category:    in.Category,
		Severity:    in.Severity,
		Label:       strings.TrimSpace(in.Label),
		Description: in.Description,
		X:           in.X,
		Y:           in.Y,
		Radius:      radius,
		Color:       color,
	}
	if err := s.risks.Create(ctx, rk); err != nil {
		return nil, storeErr(err)
	}
	s.invalidateCache(ctx, ownerID)
	return rk, nil
}

// ownedRisk loads a risk and verifies, transitively through its map,
// that it belongs to the caller.  Every risk mutation funnels through
// this check; violations are plain ErrNotFound.
func (s *MapService) ownedRisk(ctx context.Context, riskID, ownerID uint64) (*model.Risk, *model.RiskMap, error) {
	rk, err := s.risks.GetByID(ctx, riskID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	m, err := s.maps.GetByIDAndOwner(ctx, rk.MapID, ownerID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	return rk, m, nil
}

// UpdatePosition moves a marker to (x, y).  The durable write happens
// immediately; the parent map's updated_at bump is debounced until the
// drag pauses, so a burst of moves costs one follow-up write.
func (s *MapService) UpdatePosition(ctx context.Context, riskID, ownerID uint64, x, y int) error {
	_, m, err := s.ownedRisk(ctx, riskID, ownerID)
	if err != nil {
		return err
	}
	if x < 0 || x > m.Width || y < 0 || y > m.Height {
		return fmt.Errorf("%w: position (%d,%d) outside canvas %dx%d", ErrInvalidInput, x, y, m.Width, m.Height)
	}
	if err := s.risks.UpdatePosition(ctx, riskID, x, y); err != nil {
		return storeErr(err)
	}
	s.toucher(m.ID).Call(touchArgs{mapID: m.ID, ownerID: ownerID})
	return nil
}

// UpdateRisk applies a partial update to a risk the caller owns.
func (s *MapService) UpdateRisk(ctx context.Context, riskID, ownerID uint64, u model.RiskUpdate) error {
	if u.Empty() {
		return fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	if u.Category != nil && !u.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, *u.Category)
	}
	if u.Severity != nil && !u.Severity.Valid() {
		return fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, *u.Severity)
	}
	if u.Radius != nil && *u.Radius <= 0 {
		return fmt.Errorf("%w: radius must be positive", ErrInvalidInput)
	}
	_, m, err := s.ownedRisk(ctx, riskID, ownerID)
	if err != nil {
		return err
	}
	if u.X != nil && (*u.X < 0 || *u.X > m.Width) {
		return fmt.Errorf("%w: x outside canvas", ErrInvalidInput)
	}
	if u.Y != nil && (*u.Y < 0 || *u.Y > m.Height) {
		return fmt.Errorf("%w: y outside canvas", ErrInvalidInput)
	}
	if err := s.risks.Update(ctx, riskID, u); err != nil {
		return storeErr(err)
	}
	s.invalidateCache(ctx, ownerID)
	return nil
}

// DeleteRisk removes a single marker the caller owns.
func (s *MapService) DeleteRisk(ctx context.Context, riskID, ownerID uint64) error {
	if _, _, err := s.ownedRisk(ctx, riskID, ownerID); err != nil {
		return err
	}
	if err := s.risks.DeleteByID(ctx, riskID); err != nil {
		return storeErr(err)
	}
	s.invalidateCache(ctx, ownerID)
	return nil
}

// GenerateDiagram exposes the bare diagram call for the UI's two-step
// flow.  Empty descriptions never reach the generation service.
func (s *MapService) GenerateDiagram(ctx context.Context, description string) (*ai.Diagram, error) {
	if s.gen == nil {
		return nil, fmt.Errorf("%w: generation is not configured", ErrInvalidInput)
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	d, err := s.gen.GenerateDiagram(ctx, description, model.DefaultCanvasWidth, model.DefaultCanvasHeight)
	if err != nil {
		return nil, genErr("generate diagram", err)
	}
	return d, nil
}

// IdentifyHazards exposes the bare hazard call.
func (s *MapService) IdentifyHazards(ctx context.Context, description string) ([]ai.Hazard, error) {
	if s.gen == nil {
		return nil, fmt.Errorf("%w: generation is not configured", ErrInvalidInput)
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	hazards, err := s.gen.IdentifyHazards(ctx, description)
	if err != nil {
		return nil, genErr("identify hazards", err)
	}
	return hazards, nil
}

// GenerateAndPopulate runs the composite flow: diagram call, hazard
// call, map insert, then one risk insert per hazard with grid placement
// from the layout engine.  Every step is awaited sequentially; hazard
// insertion order mirrors the generation order, which is what assigns
// grid cells.  The flow is NOT one atomic transaction: a failure at
// hazard N leaves hazards 1..N-1 persisted and the map queryable in its
// partial state, returned here alongside the error.
func (s *MapService) GenerateAndPopulate(ctx context.Context, ownerID uint64, description string) (*GenerateResult, error) {
	if s.gen == nil {
		return nil, fmt.Errorf("%w: generation is not configured", ErrInvalidInput)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}

	diagram, err := s.gen.GenerateDiagram(ctx, description, model.DefaultCanvasWidth, model.DefaultCanvasHeight)
	if err != nil {
		return nil, genErr("generate diagram", err)
	}
	hazards, err := s.gen.IdentifyHazards(ctx, description)
	if err != nil {
		return nil, genErr("identify hazards", err)
	}

	m, err := s.CreateMap(ctx, ownerID, deriveTitle(description), description, diagram.SVG, diagram.Width, diagram.Height)
	if err != nil {
		return nil, fmt.Errorf("create map: %w", err)
	}

	result := &GenerateResult{Map: m, Risks: []*model.Risk{}}
	for i, h := range hazards {
		x, y := layout.DistributedPosition(i, len(hazards), m.Width, m.Height)
		rk := &model.Risk{
			MapID:       m.ID,
			Category:    h.Category,
			Severity:    h.Severity,
			Label:       h.Label,
			Description: h.Description,
			X:           x,
			Y:           y,
			Radius:      layout.RadiusForSeverity(h.Severity),
			Color:       layout.ColorForCategory(h.Category),
		}
		if err := s.risks.Create(ctx, rk); err != nil {
			// Partial population: keep what was persisted, surface the error.
			s.invalidateCache(ctx, ownerID)
			return result, fmt.Errorf("persist hazard %d of %d: %w", i+1, len(hazards), storeErr(err))
		}
		result.Risks = append(result.Risks, rk)
	}

	s.invalidateCache(ctx, ownerID)
	s.publishGenerated(ctx, result)
	return result, nil
}

// publishGenerated emits the MapGenerated event.  Failures are logged
// and swallowed; the aggregate is already persisted and the request
// must succeed regardless of broker health.
func (s *MapService) publishGenerated(ctx context.Context, res *GenerateResult) {
	if s.events == nil {
		return
	}
	categories := make([]string, 0, len(res.Risks))
	for _, rk := range res.Risks {
		categories = append(categories, string(rk.Category))
	}
	ev := queue.MapGeneratedEvent{
		MapID:       res.Map.ID,
		UserID:      res.Map.OwnerID,
		Title:       res.Map.Title,
		RiskCount:   len(res.Risks),
		Categories:  categories,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishMapGenerated(ctx, ev); err != nil {
		log.Printf("service: publish map.generated failed: %v", err)
	}
}

// toucher returns the per-map debouncer, creating it on first use.
func (s *MapService) toucher(mapID uint64) *debounce.Debouncer[touchArgs] {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.touchers[mapID]
	if !ok {
		d = debounce.New(s.touchMap, s.touchDelay)
		s.touchers[mapID] = d
	}
	return d
}

// touchMap is the debounced follow-up: bump the parent map so list
// views see the drag session, then drop the owner's cached responses
// so the next GET reflects the settled positions.
func (s *MapService) touchMap(a touchArgs) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.maps.Touch(ctx, a.mapID); err != nil {
		log.Printf("service: touch map %d failed: %v", a.mapID, err)
	}
	s.invalidateCache(ctx, a.ownerID)
}

// dropToucher stops and forgets the debouncer of a deleted map so no
// pending follow-up fires against a row that is gone.
func (s *MapService) dropToucher(mapID uint64) {
	s.mu.Lock()
	d, ok := s.touchers[mapID]
	if ok {
		delete(s.touchers, mapID)
	}
	s.mu.Unlock()
	if ok {
		d.Stop()
	}
}

// Close stops every pending debounced follow-up.  Called on shutdown.
func (s *MapService) Close() {
	s.mu.Lock()
	touchers := s.touchers
	s.touchers = map[uint64]*debounce.Debouncer[touchArgs]{}
	s.mu.Unlock()
	for _, d := range touchers {
		d.Stop()
	}
}

// deriveTitle builds a short display title from the first line of the
// description.
func deriveTitle(description string) string {
	line := description
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	runes := []rune(line)
	if len(runes) > 60 {
		return string(runes[:57]) + "..."
	}
	if line == "" {
		return "Risk map"
	}
	return line
}
