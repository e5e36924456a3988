package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"apontamento/backend/pkg/models"
)

// ---- interruption reasons ----

// CreateReason inserts a reason into the catalog.
func (s *PostgresStore) CreateReason(ctx context.Context, reason *models.InterruptionReason) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO motivos_interrupcao (description, created_at) VALUES ($1, $2) RETURNING id`,
		reason.Description, reason.CreatedAt,
	).Scan(&reason.ID)
	return mapError(err, "motivo")
}

// GetReason retrieves a reason by ID.
func (s *PostgresStore) GetReason(ctx context.Context, id int64) (*models.InterruptionReason, error) {
	var r models.InterruptionReason
	err := s.db.QueryRow(ctx,
		`SELECT id, description, created_at FROM motivos_interrupcao WHERE id = $1`, id,
	).Scan(&r.ID, &r.Description, &r.CreatedAt)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("motivo %d", id))
	}
	return &r, nil
}

// ListReasons returns the whole catalog ordered by ID.
func (s *PostgresStore) ListReasons(ctx context.Context) ([]*models.InterruptionReason, error) {
	rows, err := s.db.Query(ctx, `SELECT id, description, created_at FROM motivos_interrupcao ORDER BY id`)
	if err != nil {
		return nil, mapError(err, "motivos")
	}
	defer rows.Close()

	reasons := []*models.InterruptionReason{}
	for rows.Next() {
		var r models.InterruptionReason
		if err := rows.Scan(&r.ID, &r.Description, &r.CreatedAt); err != nil {
			return nil, mapError(err, "motivos")
		}
		reasons = append(reasons, &r)
	}
	return reasons, mapError(rows.Err(), "motivos")
}

// ---- sectors ----

func (s *PostgresStore) CreateSector(ctx context.Context, sector *models.Sector) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO setores (name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		sector.Name, sector.Description, sector.CreatedAt, sector.UpdatedAt,
	).Scan(&sector.ID)
	return mapError(err, "setor")
}

func (s *PostgresStore) GetSector(ctx context.Context, id int64) (*models.Sector, error) {
	var sec models.Sector
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM setores WHERE id = $1`, id,
	).Scan(&sec.ID, &sec.Name, &sec.Description, &sec.CreatedAt, &sec.UpdatedAt)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("setor %d", id))
	}
	return &sec, nil
}

func (s *PostgresStore) ListSectors(ctx context.Context) ([]*models.Sector, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM setores ORDER BY id`)
	if err != nil {
		return nil, mapError(err, "setores")
	}
	defer rows.Close()

	sectors := []*models.Sector{}
	for rows.Next() {
		var sec models.Sector
		if err := rows.Scan(&sec.ID, &sec.Name, &sec.Description, &sec.CreatedAt, &sec.UpdatedAt); err != nil {
			return nil, mapError(err, "setores")
		}
		sectors = append(sectors, &sec)
	}
	return sectors, mapError(rows.Err(), "setores")
}

func (s *PostgresStore) UpdateSector(ctx context.Context, sector *models.Sector) error {
	err := s.db.QueryRow(ctx, `
		UPDATE setores SET name = $1, description = $2, updated_at = $3
		WHERE id = $4 RETURNING created_at`,
		sector.Name, sector.Description, sector.UpdatedAt, sector.ID,
	).Scan(&sector.CreatedAt)
	return mapError(err, fmt.Sprintf("setor %d", sector.ID))
}

func (s *PostgresStore) DeleteSector(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, "setores", "setor", id)
}

// deleteRow deletes by primary key. table is always a package constant.
func (s *PostgresStore) deleteRow(ctx context.Context, table, entity string, id int64) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return mapDeleteError(err, entity, id)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFoundf("%s %d", entity, id)
	}
	return nil
}

// ---- products ----

const productColumns = `id, code, name, description, setor_id, created_at, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.SectorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, product *models.Product) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO produtos (code, name, description, setor_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		product.Code, product.Name, product.Description, product.SectorID, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if isUnique(err) {
		return duplicateErr("product code", product.Code)
	}
	return mapError(err, "produto")
}

func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM produtos WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("produto %d", id))
	}
	return p, nil
}

func (s *PostgresStore) GetProductByCode(ctx context.Context, code string) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM produtos WHERE code = $1`, code))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("produto %q", code))
	}
	return p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	rows, err := s.db.Query(ctx, `SELECT `+productColumns+` FROM produtos ORDER BY id`)
	if err != nil {
		return nil, mapError(err, "produtos")
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, mapError(err, "produtos")
		}
		products = append(products, p)
	}
	return products, mapError(rows.Err(), "produtos")
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	err := s.db.QueryRow(ctx, `
		UPDATE produtos SET code = $1, name = $2, description = $3, setor_id = $4, updated_at = $5
		WHERE id = $6 RETURNING created_at`,
		product.Code, product.Name, product.Description, product.SectorID, product.UpdatedAt, product.ID,
	).Scan(&product.CreatedAt)
	if isUnique(err) {
		return duplicateErr("product code", product.Code)
	}
	return mapError(err, fmt.Sprintf("produto %d", product.ID))
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, "produtos", "produto", id)
}

// ---- employees ----

const employeeColumns = `id, code, name, COALESCE(email, ''), role, setor_id, created_at, updated_at`

func scanEmployee(row pgx.Row) (*models.Employee, error) {
	var (
		e    models.Employee
		role string
	)
	if err := row.Scan(&e.ID, &e.Code, &e.Name, &e.Email, &role, &e.SectorID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Role = models.Role(role)
	return &e, nil
}

func (s *PostgresStore) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO funcionarios (code, name, email, role, setor_id, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7) RETURNING id`,
		employee.Code, employee.Name, employee.Email, string(employee.Role), employee.SectorID,
		employee.CreatedAt, employee.UpdatedAt,
	).Scan(&employee.ID)
	if isUnique(err) {
		return duplicateErr("employee", employee.Code)
	}
	return mapError(err, "funcionario")
}

func (s *PostgresStore) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	e, err := scanEmployee(s.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM funcionarios WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("funcionario %d", id))
	}
	return e, nil
}

func (s *PostgresStore) GetEmployeeByCode(ctx context.Context, code string) (*models.Employee, error) {
	e, err := scanEmployee(s.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM funcionarios WHERE code = $1`, code))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("funcionario %q", code))
	}
	return e, nil
}

func (s *PostgresStore) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	e, err := scanEmployee(s.db.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM funcionarios WHERE lower(email) = $1`, strings.ToLower(email)))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("funcionario %q", email))
	}
	return e, nil
}

func (s *PostgresStore) ListEmployees(ctx context.Context) ([]*models.Employee, error) {
	rows, err := s.db.Query(ctx, `SELECT `+employeeColumns+` FROM funcionarios ORDER BY id`)
	if err != nil {
		return nil, mapError(err, "funcionarios")
	}
	defer rows.Close()

	employees := []*models.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, mapError(err, "funcionarios")
		}
		employees = append(employees, e)
	}
	return employees, mapError(rows.Err(), "funcionarios")
}

func (s *PostgresStore) UpdateEmployee(ctx context.Context, employee *models.Employee) error {
	err := s.db.QueryRow(ctx, `
		UPDATE funcionarios
		SET code = $1, name = $2, email = NULLIF($3, ''), role = $4, setor_id = $5, updated_at = $6
		WHERE id = $7 RETURNING created_at`,
		employee.Code, employee.Name, employee.Email, string(employee.Role), employee.SectorID,
		employee.UpdatedAt, employee.ID,
	).Scan(&employee.CreatedAt)
	if isUnique(err) {
		return duplicateErr("employee", employee.Code)
	}
	return mapError(err, fmt.Sprintf("funcionario %d", employee.ID))
}

func (s *PostgresStore) DeleteEmployee(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, "funcionarios", "funcionario", id)
}
