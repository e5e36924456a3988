package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"apontamento/backend/internal/config"
	"apontamento/backend/internal/logging"
	"apontamento/backend/internal/repository"
	"apontamento/backend/internal/services"
	"apontamento/backend/pkg/models"
)

func main() {
	ctx := context.Background()
	configFile := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	store := repository.NewPostgresStore(pool)

	if err := seed(ctx, store, logger, cfg.Auth.DevEmail); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	logger.Info("Seeding complete")
}

var (
	seedSectors = []models.Sector{
		{Name: "Corte", Description: "Corte de tecido"},
		{Name: "Costura", Description: "Montagem das peças"},
		{Name: "Acabamento", Description: "Revisão e embalagem"},
	}
	seedProducts = []struct {
		models.Product
		sector string
	}{
		{models.Product{Code: "CAM-01", Name: "Camisa social"}, "Costura"},
		{models.Product{Code: "CAL-02", Name: "Calça jeans"}, "Costura"},
		{models.Product{Code: "JAQ-03", Name: "Jaqueta"}, "Acabamento"},
	}
	seedEmployees = []models.Employee{
		{Code: "F001", Name: "Ana Souza", Role: models.RoleFuncionario},
		{Code: "F002", Name: "Bruno Lima", Role: models.RoleFuncionario},
	}
	seedReasons = []string{
		"Falta de material",
		"Manutenção de máquina",
		"Troca de turno",
		"Problema de qualidade",
	}
)

// seed inserts the reference data used in development. Rows that already
// exist, matched by name, code or description, are left untouched so the
// command can be rerun.
func seed(ctx context.Context, store repository.Repository, logger *logging.Logger, managerEmail string) error {
	catalog := services.NewCatalogService(store, logger)
	reasons := services.NewReasonService(store, logger)

	sectors, err := catalog.ListSectors(ctx)
	if err != nil {
		return fmt.Errorf("list sectors: %w", err)
	}
	sectorIDs := make(map[string]int64, len(sectors))
	for _, s := range sectors {
		sectorIDs[s.Name] = s.ID
	}
	for _, s := range seedSectors {
		if _, ok := sectorIDs[s.Name]; ok {
			continue
		}
		created, err := catalog.CreateSector(ctx, s)
		if err != nil {
			return fmt.Errorf("create sector %s: %w", s.Name, err)
		}
		sectorIDs[created.Name] = created.ID
		logger.Info("Created sector", "name", created.Name, "id", created.ID)
	}

	products, err := catalog.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	existingProducts := make(map[string]bool, len(products))
	for _, p := range products {
		existingProducts[p.Code] = true
	}
	for _, p := range seedProducts {
		if existingProducts[p.Code] {
			continue
		}
		product := p.Product
		if id, ok := sectorIDs[p.sector]; ok {
			product.SectorID = &id
		}
		created, err := catalog.CreateProduct(ctx, product)
		if err != nil {
			return fmt.Errorf("create product %s: %w", p.Code, err)
		}
		logger.Info("Created product", "code", created.Code, "id", created.ID)
	}

	employees, err := catalog.ListEmployees(ctx)
	if err != nil {
		return fmt.Errorf("list employees: %w", err)
	}
	existingEmployees := make(map[string]bool, len(employees))
	for _, e := range employees {
		existingEmployees[e.Code] = true
		if managerEmail != "" && strings.EqualFold(e.Email, managerEmail) {
			managerEmail = ""
		}
	}
	toCreate := seedEmployees
	if managerEmail != "" {
		toCreate = append([]models.Employee{{Code: "G001", Name: "Gestor", Email: managerEmail, Role: models.RoleGestor}}, toCreate...)
	}
	for _, e := range toCreate {
		if existingEmployees[e.Code] {
			continue
		}
		created, err := catalog.CreateEmployee(ctx, e)
		if err != nil {
			return fmt.Errorf("create employee %s: %w", e.Code, err)
		}
		logger.Info("Created employee", "code", created.Code, "role", created.Role, "id", created.ID)
	}

	existingReasons, err := reasons.List(ctx)
	if err != nil {
		return fmt.Errorf("list reasons: %w", err)
	}
	known := make(map[string]bool, len(existingReasons))
	for _, r := range existingReasons {
		known[strings.ToLower(r.Description)] = true
	}
	for _, description := range seedReasons {
		if known[strings.ToLower(description)] {
			continue
		}
		created, err := reasons.Create(ctx, description)
		if err != nil {
			return fmt.Errorf("create reason %q: %w", description, err)
		}
		logger.Info("Created interruption reason", "description", created.Description, "id", created.ID)
	}
	return nil
}
