package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"apontamento/backend/pkg/models"
)

// InMemoryStore is a Repository kept in process memory. A single mutex
// serialises every operation, which gives it the same atomicity guarantees the
// Postgres store gets from transactions. It backs tests and DEV runs without a
// database.
type InMemoryStore struct {
	mu sync.Mutex

	seq       map[string]int64
	orders    map[int64]*models.Order
	stages    map[int64]*models.Stage
	tracking  map[int64]*models.TrackingEntry
	reasons   map[int64]*models.InterruptionReason
	history   []*models.HistoryRecord
	sectors   map[int64]*models.Sector
	products  map[int64]*models.Product
	employees map[int64]*models.Employee
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		seq:       make(map[string]int64),
		orders:    make(map[int64]*models.Order),
		stages:    make(map[int64]*models.Stage),
		tracking:  make(map[int64]*models.TrackingEntry),
		reasons:   make(map[int64]*models.InterruptionReason),
		sectors:   make(map[int64]*models.Sector),
		products:  make(map[int64]*models.Product),
		employees: make(map[int64]*models.Employee),
	}
}

func (s *InMemoryStore) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ---- orders ----

func (s *InMemoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[order.ProductID]; !ok {
		return models.Validationf("product %d does not exist", order.ProductID)
	}
	if _, ok := s.employees[order.EmployeeID]; !ok {
		return models.Validationf("employee %d does not exist", order.EmployeeID)
	}
	order.ID = s.next("orders")
	stored := *order
	stored.Stages = nil
	s.orders[order.ID] = &stored
	return nil
}

func (s *InMemoryStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, models.NotFoundf("order %d", id)
	}
	return s.orderView(o), nil
}

func (s *InMemoryStore) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.Order{}
	for _, o := range s.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.EmployeeID != 0 && o.EmployeeID != filter.EmployeeID && !s.assignedToStage(o.ID, filter.EmployeeID) {
			continue
		}
		out = append(out, s.orderView(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (s *InMemoryStore) assignedToStage(orderID, employeeID int64) bool {
	for _, st := range s.stages {
		if st.OrderID == orderID && st.EmployeeID == employeeID {
			return true
		}
	}
	return false
}

// orderView copies o and attaches its stages ordered by position.
func (s *InMemoryStore) orderView(o *models.Order) *models.Order {
	c := *o
	c.Stages = s.stagesOf(o.ID)
	return &c
}

func (s *InMemoryStore) stagesOf(orderID int64) []*models.Stage {
	out := []*models.Stage{}
	for _, st := range s.stages {
		if st.OrderID == orderID {
			c := *st
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *InMemoryStore) TransitionOrder(ctx context.Context, t models.Transition) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[t.OrderID]
	if !ok {
		return nil, models.NotFoundf("order %d", t.OrderID)
	}
	if o.Status != t.From {
		return nil, models.ErrStatusChanged
	}
	if t.ReasonID != nil {
		if _, ok := s.reasons[*t.ReasonID]; !ok {
			return nil, models.Validationf("interruption reason %d does not exist", *t.ReasonID)
		}
	}

	if t.CloseActiveTracking {
		for _, e := range s.tracking {
			if e.OrderID != t.OrderID || !e.Active() {
				continue
			}
			s.closeEntry(e, t.At, t.EmployeeID, t.Observation)
		}
	}

	o.Status = t.To
	o.UpdatedAt = t.At
	from, to := t.From, t.To
	s.appendHistory(&models.HistoryRecord{
		Type:           models.HistoryStatusChange,
		OrderID:        t.OrderID,
		EmployeeID:     t.EmployeeID,
		PreviousStatus: &from,
		NewStatus:      &to,
		ReasonID:       t.ReasonID,
		Observation:    t.Observation,
		CreatedAt:      t.At,
	})
	return s.orderView(o), nil
}

// ---- stages ----

func (s *InMemoryStore) CreateStage(ctx context.Context, stage *models.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[stage.OrderID]; !ok {
		return models.NotFoundf("order %d", stage.OrderID)
	}
	if _, ok := s.employees[stage.EmployeeID]; !ok {
		return models.Validationf("employee %d does not exist", stage.EmployeeID)
	}
	position := 0
	for _, st := range s.stages {
		if st.OrderID == stage.OrderID && st.Position >= position {
			position = st.Position + 1
		}
	}
	stage.ID = s.next("etapas")
	stage.Position = position
	c := *stage
	s.stages[stage.ID] = &c
	return nil
}

func (s *InMemoryStore) ListStages(ctx context.Context, orderID int64) ([]*models.Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[orderID]; !ok {
		return nil, models.NotFoundf("order %d", orderID)
	}
	return s.stagesOf(orderID), nil
}

// ---- tracking ----

func (s *InMemoryStore) StartTracking(ctx context.Context, entry *models.TrackingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[entry.OrderID]
	if !ok {
		return models.NotFoundf("order %d", entry.OrderID)
	}
	if o.Status != models.StatusEmAndamento {
		return models.ErrOrderNotRunning
	}
	stage, ok := s.stages[entry.StageID]
	if !ok || stage.OrderID != entry.OrderID {
		return models.NotFoundf("etapa %d of order %d", entry.StageID, entry.OrderID)
	}
	if _, ok := s.employees[entry.EmployeeID]; !ok {
		return models.Validationf("employee %d does not exist", entry.EmployeeID)
	}
	for _, e := range s.tracking {
		if e.OrderID == entry.OrderID && e.Active() {
			return models.ErrTrackingActive
		}
	}

	entry.ID = s.next("rastreamentos")
	entry.EndedAt = nil
	c := *entry
	s.tracking[entry.ID] = &c

	if stage.StartedAt == nil {
		started := entry.StartedAt
		stage.StartedAt = &started
	}
	stage.EndedAt = nil

	employeeID, stageID := entry.EmployeeID, entry.StageID
	s.appendHistory(&models.HistoryRecord{
		Type:       models.HistoryEtapaStart,
		OrderID:    entry.OrderID,
		EmployeeID: &employeeID,
		StageID:    &stageID,
		CreatedAt:  entry.StartedAt,
	})
	return nil
}

func (s *InMemoryStore) EndTracking(ctx context.Context, end models.EndTracking) (*models.TrackingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tracking[end.TrackingID]
	if !ok {
		return nil, models.NotFoundf("rastreamento %d", end.TrackingID)
	}
	if end.OrderID != 0 && end.OrderID != e.OrderID {
		return nil, models.Validationf("rastreamento %d does not belong to order %d", e.ID, end.OrderID)
	}
	if end.StageID != 0 && end.StageID != e.StageID {
		return nil, models.Validationf("rastreamento %d does not belong to etapa %d", e.ID, end.StageID)
	}
	if !e.Active() {
		return nil, models.ErrTrackingNotActive
	}

	if end.ProcessedQuantity != nil {
		e.ProcessedQuantity = *end.ProcessedQuantity
	}
	if end.LostQuantity != nil {
		e.LostQuantity = *end.LostQuantity
	}
	var actor *int64
	if end.EmployeeID != 0 {
		id := end.EmployeeID
		actor = &id
	}
	s.closeEntry(e, end.At, actor, end.Observation)

	c := *e
	return &c, nil
}

// closeEntry ends e at the given instant, marks its stage ended and appends
// the etapa_end record. Callers hold s.mu.
func (s *InMemoryStore) closeEntry(e *models.TrackingEntry, at time.Time, actor *int64, observation *string) {
	ended := at
	e.EndedAt = &ended
	if observation != nil {
		obs := *observation
		e.Observation = &obs
	}
	if stage, ok := s.stages[e.StageID]; ok {
		stageEnd := at
		stage.EndedAt = &stageEnd
	}

	employeeID := e.EmployeeID
	if actor != nil {
		employeeID = *actor
	}
	stageID := e.StageID
	s.appendHistory(&models.HistoryRecord{
		Type:        models.HistoryEtapaEnd,
		OrderID:     e.OrderID,
		EmployeeID:  &employeeID,
		StageID:     &stageID,
		Observation: observation,
		CreatedAt:   at,
	})
}

func (s *InMemoryStore) ListTracking(ctx context.Context, orderID int64) ([]*models.TrackingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[orderID]; !ok {
		return nil, models.NotFoundf("order %d", orderID)
	}
	out := []*models.TrackingEntry{}
	for _, e := range s.tracking {
		if e.OrderID == orderID {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- reasons ----

func (s *InMemoryStore) CreateReason(ctx context.Context, reason *models.InterruptionReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reason.ID = s.next("motivos_interrupcao")
	c := *reason
	s.reasons[reason.ID] = &c
	return nil
}

func (s *InMemoryStore) GetReason(ctx context.Context, id int64) (*models.InterruptionReason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reasons[id]
	if !ok {
		return nil, models.NotFoundf("interruption reason %d", id)
	}
	c := *r
	return &c, nil
}

func (s *InMemoryStore) ListReasons(ctx context.Context) ([]*models.InterruptionReason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.InterruptionReason, 0, len(s.reasons))
	for _, r := range s.reasons {
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- history ----

func (s *InMemoryStore) appendHistory(rec *models.HistoryRecord) {
	rec.EmployeeID = cloneInt64(rec.EmployeeID)
	rec.ReasonID = cloneInt64(rec.ReasonID)
	if rec.Observation != nil {
		obs := *rec.Observation
		rec.Observation = &obs
	}
	rec.ID = s.next("historico")
	s.history = append(s.history, rec)
}

func (s *InMemoryStore) ListHistory(ctx context.Context, filter models.HistoryFilter) ([]*models.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.HistoryRecord{}
	for _, rec := range s.history {
		if filter.OrderID != 0 && rec.OrderID != filter.OrderID {
			continue
		}
		if filter.Type != "" && rec.Type != filter.Type {
			continue
		}
		if rec.ID <= filter.AfterID {
			continue
		}
		c := *rec
		out = append(out, &c)
	}
	return paginate(out, filter.Limit, 0), nil
}

// ---- catalog ----

func (s *InMemoryStore) CreateSector(ctx context.Context, sector *models.Sector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sector.ID = s.next("setores")
	c := *sector
	s.sectors[sector.ID] = &c
	return nil
}

func (s *InMemoryStore) GetSector(ctx context.Context, id int64) (*models.Sector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, ok := s.sectors[id]
	if !ok {
		return nil, models.NotFoundf("setor %d", id)
	}
	c := *sec
	return &c, nil
}

func (s *InMemoryStore) ListSectors(ctx context.Context) ([]*models.Sector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Sector, 0, len(s.sectors))
	for _, sec := range s.sectors {
		c := *sec
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) UpdateSector(ctx context.Context, sector *models.Sector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sectors[sector.ID]
	if !ok {
		return models.NotFoundf("setor %d", sector.ID)
	}
	sector.CreatedAt = existing.CreatedAt
	c := *sector
	s.sectors[sector.ID] = &c
	return nil
}

func (s *InMemoryStore) DeleteSector(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sectors[id]; !ok {
		return models.NotFoundf("setor %d", id)
	}
	for _, p := range s.products {
		if p.SectorID != nil && *p.SectorID == id {
			return referencedErr("setor", id)
		}
	}
	for _, e := range s.employees {
		if e.SectorID != nil && *e.SectorID == id {
			return referencedErr("setor", id)
		}
	}
	delete(s.sectors, id)
	return nil
}

func (s *InMemoryStore) checkSector(id *int64) error {
	if id == nil {
		return nil
	}
	if _, ok := s.sectors[*id]; !ok {
		return models.Validationf("setor %d does not exist", *id)
	}
	return nil
}

func (s *InMemoryStore) CreateProduct(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSector(product.SectorID); err != nil {
		return err
	}
	for _, p := range s.products {
		if p.Code == product.Code {
			return duplicateErr("product code", product.Code)
		}
	}
	product.ID = s.next("produtos")
	c := *product
	s.products[product.ID] = &c
	return nil
}

func (s *InMemoryStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, models.NotFoundf("produto %d", id)
	}
	c := *p
	return &c, nil
}

func (s *InMemoryStore) GetProductByCode(ctx context.Context, code string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if p.Code == code {
			c := *p
			return &c, nil
		}
	}
	return nil, models.NotFoundf("produto %q", code)
}

func (s *InMemoryStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Product, 0, len(s.products))
	for _, p := range s.products {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return models.NotFoundf("produto %d", product.ID)
	}
	if err := s.checkSector(product.SectorID); err != nil {
		return err
	}
	for _, p := range s.products {
		if p.ID != product.ID && p.Code == product.Code {
			return duplicateErr("product code", product.Code)
		}
	}
	product.CreatedAt = existing.CreatedAt
	c := *product
	s.products[product.ID] = &c
	return nil
}

func (s *InMemoryStore) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return models.NotFoundf("produto %d", id)
	}
	for _, o := range s.orders {
		if o.ProductID == id {
			return referencedErr("produto", id)
		}
	}
	delete(s.products, id)
	return nil
}

func (s *InMemoryStore) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSector(employee.SectorID); err != nil {
		return err
	}
	if err := s.checkEmployeeUnique(employee); err != nil {
		return err
	}
	employee.ID = s.next("funcionarios")
	c := *employee
	s.employees[employee.ID] = &c
	return nil
}

func (s *InMemoryStore) checkEmployeeUnique(employee *models.Employee) error {
	for _, e := range s.employees {
		if e.ID == employee.ID {
			continue
		}
		if e.Code == employee.Code {
			return duplicateErr("employee code", employee.Code)
		}
		if employee.Email != "" && strings.EqualFold(e.Email, employee.Email) {
			return duplicateErr("employee email", employee.Email)
		}
	}
	return nil
}

func (s *InMemoryStore) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.employees[id]
	if !ok {
		return nil, models.NotFoundf("funcionario %d", id)
	}
	c := *e
	return &c, nil
}

func (s *InMemoryStore) GetEmployeeByCode(ctx context.Context, code string) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.employees {
		if e.Code == code {
			c := *e
			return &c, nil
		}
	}
	return nil, models.NotFoundf("funcionario %q", code)
}

func (s *InMemoryStore) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.employees {
		if e.Email != "" && strings.EqualFold(e.Email, email) {
			c := *e
			return &c, nil
		}
	}
	return nil, models.NotFoundf("funcionario with email %q", email)
}

func (s *InMemoryStore) ListEmployees(ctx context.Context) ([]*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		c := *e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) UpdateEmployee(ctx context.Context, employee *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.employees[employee.ID]
	if !ok {
		return models.NotFoundf("funcionario %d", employee.ID)
	}
	if err := s.checkSector(employee.SectorID); err != nil {
		return err
	}
	if err := s.checkEmployeeUnique(employee); err != nil {
		return err
	}
	employee.CreatedAt = existing.CreatedAt
	c := *employee
	s.employees[employee.ID] = &c
	return nil
}

func (s *InMemoryStore) DeleteEmployee(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[id]; !ok {
		return models.NotFoundf("funcionario %d", id)
	}
	for _, o := range s.orders {
		if o.EmployeeID == id {
			return referencedErr("funcionario", id)
		}
	}
	for _, st := range s.stages {
		if st.EmployeeID == id {
			return referencedErr("funcionario", id)
		}
	}
	for _, e := range s.tracking {
		if e.EmployeeID == id {
			return referencedErr("funcionario", id)
		}
	}
	for _, r := range s.history {
		if r.EmployeeID != nil && *r.EmployeeID == id {
			return referencedErr("funcionario", id)
		}
	}
	delete(s.employees, id)
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
