package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"apontamento/backend/pkg/models"
)

//go:embed schema.sql
var schemaSQL string

// activeTrackingIndex is the partial unique index that enforces one open
// tracking entry per order.
const activeTrackingIndex = "rastreamentos_one_active_per_order"

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PostgresStore is a PostgreSQL implementation of the Repository interface.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, s.db, fn)
}

const orderColumns = `o.id, o.product_id, p.code, o.employee_id, f.code, o.lot_quantity,
	o.final_destination, o.status, o.created_at, o.updated_at`

const orderFrom = `FROM orders o
	JOIN produtos p ON p.id = o.product_id
	JOIN funcionarios f ON f.id = o.employee_id`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	var status string
	err := row.Scan(&o.ID, &o.ProductID, &o.ProductCode, &o.EmployeeID, &o.EmployeeCode,
		&o.LotQuantity, &o.FinalDestination, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	o.Stages = []*models.Stage{}
	return &o, nil
}

// CreateOrder inserts a new order.
func (s *PostgresStore) CreateOrder(ctx context.Context, order *models.Order) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO orders (product_id, employee_id, lot_quantity, final_destination, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		order.ProductID, order.EmployeeID, order.LotQuantity, order.FinalDestination,
		string(order.Status), order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	return mapError(err, "order")
}

// GetOrder retrieves an order with its stages.
func (s *PostgresStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(s.db.QueryRow(ctx, `SELECT `+orderColumns+` `+orderFrom+` WHERE o.id = $1`, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("order %d", id))
	}
	stages, err := s.stagesFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if st, ok := stages[id]; ok {
		o.Stages = st
	}
	return o, nil
}

// ListOrders returns orders newest first.
func (s *PostgresStore) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if filter.EmployeeID != 0 {
		args = append(args, filter.EmployeeID)
		where = append(where, fmt.Sprintf(
			"(o.employee_id = $%[1]d OR EXISTS (SELECT 1 FROM etapas e WHERE e.order_id = o.id AND e.employee_id = $%[1]d))",
			len(args)))
	}
	query := `SELECT ` + orderColumns + ` ` + orderFrom
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY o.id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "orders")
	}
	defer rows.Close()

	orders := []*models.Order{}
	var ids []int64
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, mapError(err, "orders")
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "orders")
	}

	stages, err := s.stagesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if st, ok := stages[o.ID]; ok {
			o.Stages = st
		}
	}
	return orders, nil
}

// TransitionOrder applies a compare-and-swap on the order status and appends
// the history it implies, all in one transaction.
func (s *PostgresStore) TransitionOrder(ctx context.Context, t models.Transition) (*models.Order, error) {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
			string(t.To), t.At, t.OrderID, string(t.From))
		if err != nil {
			return mapError(err, fmt.Sprintf("order %d", t.OrderID))
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, t.OrderID).Scan(&exists); err != nil {
				return mapError(err, fmt.Sprintf("order %d", t.OrderID))
			}
			if !exists {
				return models.NotFoundf("order %d", t.OrderID)
			}
			return models.ErrStatusChanged
		}

		if t.CloseActiveTracking {
			if err := closeActiveTracking(ctx, tx, t); err != nil {
				return err
			}
		}

		from, to := t.From, t.To
		return insertHistory(ctx, tx, &models.HistoryRecord{
			Type:           models.HistoryStatusChange,
			OrderID:        t.OrderID,
			EmployeeID:     t.EmployeeID,
			PreviousStatus: &from,
			NewStatus:      &to,
			ReasonID:       t.ReasonID,
			Observation:    t.Observation,
			CreatedAt:      t.At,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, t.OrderID)
}

func closeActiveTracking(ctx context.Context, tx pgx.Tx, t models.Transition) error {
	rows, err := tx.Query(ctx, `
		UPDATE rastreamentos
		SET ended_at = $1, observation = COALESCE($2, observation)
		WHERE order_id = $3 AND ended_at IS NULL
		RETURNING etapa_id, employee_id`,
		t.At, t.Observation, t.OrderID)
	if err != nil {
		return mapError(err, "rastreamentos")
	}
	type closed struct{ stageID, employeeID int64 }
	var ended []closed
	for rows.Next() {
		var c closed
		if err := rows.Scan(&c.stageID, &c.employeeID); err != nil {
			rows.Close()
			return mapError(err, "rastreamentos")
		}
		ended = append(ended, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return mapError(err, "rastreamentos")
	}

	for _, c := range ended {
		employeeID := c.employeeID
		if t.EmployeeID != nil {
			employeeID = *t.EmployeeID
		}
		if err := endStage(ctx, tx, c.stageID, t.OrderID, employeeID, t.Observation, t.At); err != nil {
			return err
		}
	}
	return nil
}

// endStage stamps the stage end and appends its etapa_end record.
func endStage(ctx context.Context, tx pgx.Tx, stageID, orderID, employeeID int64, observation *string, at time.Time) error {
	if _, err := tx.Exec(ctx, `UPDATE etapas SET ended_at = $1 WHERE id = $2`, at, stageID); err != nil {
		return mapError(err, fmt.Sprintf("etapa %d", stageID))
	}
	return insertHistory(ctx, tx, &models.HistoryRecord{
		Type:        models.HistoryEtapaEnd,
		OrderID:     orderID,
		EmployeeID:  &employeeID,
		StageID:     &stageID,
		Observation: observation,
		CreatedAt:   at,
	})
}

// ---- stages ----

const stageColumns = `id, order_id, name, position, employee_id, started_at, ended_at, created_at`

func scanStage(row pgx.Row) (*models.Stage, error) {
	var st models.Stage
	err := row.Scan(&st.ID, &st.OrderID, &st.Name, &st.Position, &st.EmployeeID,
		&st.StartedAt, &st.EndedAt, &st.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *PostgresStore) stagesFor(ctx context.Context, orderIDs []int64) (map[int64][]*models.Stage, error) {
	out := make(map[int64][]*models.Stage, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+stageColumns+` FROM etapas WHERE order_id = ANY($1) ORDER BY order_id, position`, orderIDs)
	if err != nil {
		return nil, mapError(err, "etapas")
	}
	defer rows.Close()
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, mapError(err, "etapas")
		}
		out[st.OrderID] = append(out[st.OrderID], st)
	}
	return out, mapError(rows.Err(), "etapas")
}

// CreateStage appends a stage at the end of the order's sequence.
func (s *PostgresStore) CreateStage(ctx context.Context, stage *models.Stage) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		// Lock the order so concurrent inserts agree on the next position.
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, stage.OrderID).Scan(&id)
		if err != nil {
			return mapError(err, fmt.Sprintf("order %d", stage.OrderID))
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO etapas (order_id, name, position, employee_id, created_at)
			VALUES ($1, $2, (SELECT COALESCE(MAX(position) + 1, 0) FROM etapas WHERE order_id = $1), $3, $4)
			RETURNING id, position`,
			stage.OrderID, stage.Name, stage.EmployeeID, stage.CreatedAt,
		).Scan(&stage.ID, &stage.Position)
		return mapError(err, "etapa")
	})
}

// ListStages returns the stages of an order in sequence.
func (s *PostgresStore) ListStages(ctx context.Context, orderID int64) ([]*models.Stage, error) {
	if err := s.orderExists(ctx, orderID); err != nil {
		return nil, err
	}
	stages, err := s.stagesFor(ctx, []int64{orderID})
	if err != nil {
		return nil, err
	}
	if st, ok := stages[orderID]; ok {
		return st, nil
	}
	return []*models.Stage{}, nil
}

func (s *PostgresStore) orderExists(ctx context.Context, orderID int64) error {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return mapError(err, fmt.Sprintf("order %d", orderID))
	}
	if !exists {
		return models.NotFoundf("order %d", orderID)
	}
	return nil
}

// ---- tracking ----

const trackingColumns = `id, order_id, etapa_id, employee_id, started_at, ended_at,
	processed_quantity, lost_quantity, observation`

func scanTracking(row pgx.Row) (*models.TrackingEntry, error) {
	var e models.TrackingEntry
	err := row.Scan(&e.ID, &e.OrderID, &e.StageID, &e.EmployeeID, &e.StartedAt, &e.EndedAt,
		&e.ProcessedQuantity, &e.LostQuantity, &e.Observation)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// StartTracking opens a tracking entry. The order row is locked for the
// duration so a concurrent transition or start waits; the partial unique index
// backs the one-active-entry rule regardless.
func (s *PostgresStore) StartTracking(ctx context.Context, entry *models.TrackingEntry) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, entry.OrderID).Scan(&status)
		if err != nil {
			return mapError(err, fmt.Sprintf("order %d", entry.OrderID))
		}
		if models.OrderStatus(status) != models.StatusEmAndamento {
			return models.ErrOrderNotRunning
		}

		var stageOrder int64
		err = tx.QueryRow(ctx, `SELECT order_id FROM etapas WHERE id = $1 FOR UPDATE`, entry.StageID).Scan(&stageOrder)
		if err != nil || stageOrder != entry.OrderID {
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return mapError(err, "etapa")
			}
			return models.NotFoundf("etapa %d of order %d", entry.StageID, entry.OrderID)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO rastreamentos (order_id, etapa_id, employee_id, started_at, processed_quantity, lost_quantity)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			entry.OrderID, entry.StageID, entry.EmployeeID, entry.StartedAt,
			entry.ProcessedQuantity, entry.LostQuantity,
		).Scan(&entry.ID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == activeTrackingIndex {
				return models.ErrTrackingActive
			}
			return mapError(err, "rastreamento")
		}
		entry.EndedAt = nil

		_, err = tx.Exec(ctx,
			`UPDATE etapas SET started_at = COALESCE(started_at, $1), ended_at = NULL WHERE id = $2`,
			entry.StartedAt, entry.StageID)
		if err != nil {
			return mapError(err, fmt.Sprintf("etapa %d", entry.StageID))
		}

		employeeID, stageID := entry.EmployeeID, entry.StageID
		return insertHistory(ctx, tx, &models.HistoryRecord{
			Type:       models.HistoryEtapaStart,
			OrderID:    entry.OrderID,
			EmployeeID: &employeeID,
			StageID:    &stageID,
			CreatedAt:  entry.StartedAt,
		})
	})
}

// EndTracking closes an active tracking entry.
func (s *PostgresStore) EndTracking(ctx context.Context, end models.EndTracking) (*models.TrackingEntry, error) {
	var result *models.TrackingEntry
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		e, err := scanTracking(tx.QueryRow(ctx,
			`SELECT `+trackingColumns+` FROM rastreamentos WHERE id = $1 FOR UPDATE`, end.TrackingID))
		if err != nil {
			return mapError(err, fmt.Sprintf("rastreamento %d", end.TrackingID))
		}
		if end.OrderID != 0 && end.OrderID != e.OrderID {
			return models.Validationf("rastreamento %d does not belong to order %d", e.ID, end.OrderID)
		}
		if end.StageID != 0 && end.StageID != e.StageID {
			return models.Validationf("rastreamento %d does not belong to etapa %d", e.ID, end.StageID)
		}
		if !e.Active() {
			return models.ErrTrackingNotActive
		}

		result, err = scanTracking(tx.QueryRow(ctx, `
			UPDATE rastreamentos
			SET ended_at = $1,
				processed_quantity = COALESCE($2, processed_quantity),
				lost_quantity = COALESCE($3, lost_quantity),
				observation = COALESCE($4, observation)
			WHERE id = $5
			RETURNING `+trackingColumns,
			end.At, end.ProcessedQuantity, end.LostQuantity, end.Observation, e.ID))
		if err != nil {
			return mapError(err, fmt.Sprintf("rastreamento %d", e.ID))
		}

		employeeID := e.EmployeeID
		if end.EmployeeID != 0 {
			employeeID = end.EmployeeID
		}
		return endStage(ctx, tx, e.StageID, e.OrderID, employeeID, end.Observation, end.At)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListTracking returns all tracking entries of an order, oldest first.
func (s *PostgresStore) ListTracking(ctx context.Context, orderID int64) ([]*models.TrackingEntry, error) {
	if err := s.orderExists(ctx, orderID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+trackingColumns+` FROM rastreamentos WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, mapError(err, "rastreamentos")
	}
	defer rows.Close()

	entries := []*models.TrackingEntry{}
	for rows.Next() {
		e, err := scanTracking(rows)
		if err != nil {
			return nil, mapError(err, "rastreamentos")
		}
		entries = append(entries, e)
	}
	return entries, mapError(rows.Err(), "rastreamentos")
}

// ---- history ----

func insertHistory(ctx context.Context, tx pgx.Tx, rec *models.HistoryRecord) error {
	var prev, next *string
	if rec.PreviousStatus != nil {
		v := string(*rec.PreviousStatus)
		prev = &v
	}
	if rec.NewStatus != nil {
		v := string(*rec.NewStatus)
		next = &v
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO historico (type, order_id, employee_id, etapa_id, previous_status, new_status, motivo_id, observation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		string(rec.Type), rec.OrderID, rec.EmployeeID, rec.StageID, prev, next, rec.ReasonID, rec.Observation, rec.CreatedAt,
	).Scan(&rec.ID)
	return mapError(err, "historico")
}

// ListHistory returns history records oldest first, starting after
// filter.AfterID.
func (s *PostgresStore) ListHistory(ctx context.Context, filter models.HistoryFilter) ([]*models.HistoryRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.OrderID != 0 {
		args = append(args, filter.OrderID)
		where = append(where, fmt.Sprintf("order_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.AfterID > 0 {
		args = append(args, filter.AfterID)
		where = append(where, fmt.Sprintf("id > $%d", len(args)))
	}
	query := `SELECT id, type, order_id, employee_id, etapa_id, previous_status, new_status, motivo_id, observation, created_at
		FROM historico`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "historico")
	}
	defer rows.Close()

	records := []*models.HistoryRecord{}
	for rows.Next() {
		var (
			rec        models.HistoryRecord
			recType    string
			prev, next *string
		)
		err := rows.Scan(&rec.ID, &recType, &rec.OrderID, &rec.EmployeeID, &rec.StageID,
			&prev, &next, &rec.ReasonID, &rec.Observation, &rec.CreatedAt)
		if err != nil {
			return nil, mapError(err, "historico")
		}
		rec.Type = models.HistoryType(recType)
		if prev != nil {
			v := models.OrderStatus(*prev)
			rec.PreviousStatus = &v
		}
		if next != nil {
			v := models.OrderStatus(*next)
			rec.NewStatus = &v
		}
		records = append(records, &rec)
	}
	return records, mapError(rows.Err(), "historico")
}
