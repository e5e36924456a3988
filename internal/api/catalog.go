package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"apontamento/backend/pkg/models"
)

// ---- setores ----

func (s *Server) ListSectors(c echo.Context) error {
	sectors, err := s.Catalog.ListSectors(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sectors)
}

func (s *Server) CreateSector(c echo.Context) error {
	var in models.Sector
	if err := bindBody(c, &in); err != nil {
		return err
	}
	sector, err := s.Catalog.CreateSector(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sector)
}

func (s *Server) GetSector(c echo.Context, id int64) error {
	sector, err := s.Catalog.GetSector(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sector)
}

func (s *Server) UpdateSector(c echo.Context, id int64) error {
	var in models.Sector
	if err := bindBody(c, &in); err != nil {
		return err
	}
	sector, err := s.Catalog.UpdateSector(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sector)
}

func (s *Server) DeleteSector(c echo.Context, id int64) error {
	if err := s.Catalog.DeleteSector(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- produtos ----

func (s *Server) ListProducts(c echo.Context) error {
	products, err := s.Catalog.ListProducts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

func (s *Server) CreateProduct(c echo.Context) error {
	var in models.Product
	if err := bindBody(c, &in); err != nil {
		return err
	}
	product, err := s.Catalog.CreateProduct(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, product)
}

func (s *Server) GetProduct(c echo.Context, id int64) error {
	product, err := s.Catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

func (s *Server) UpdateProduct(c echo.Context, id int64) error {
	var in models.Product
	if err := bindBody(c, &in); err != nil {
		return err
	}
	product, err := s.Catalog.UpdateProduct(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

func (s *Server) DeleteProduct(c echo.Context, id int64) error {
	if err := s.Catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- funcionarios ----

func (s *Server) ListEmployees(c echo.Context) error {
	employees, err := s.Catalog.ListEmployees(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, employees)
}

func (s *Server) CreateEmployee(c echo.Context) error {
	var in models.Employee
	if err := bindBody(c, &in); err != nil {
		return err
	}
	employee, err := s.Catalog.CreateEmployee(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, employee)
}

func (s *Server) GetEmployee(c echo.Context, id int64) error {
	employee, err := s.Catalog.GetEmployee(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, employee)
}

func (s *Server) UpdateEmployee(c echo.Context, id int64) error {
	var in models.Employee
	if err := bindBody(c, &in); err != nil {
		return err
	}
	employee, err := s.Catalog.UpdateEmployee(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, employee)
}

func (s *Server) DeleteEmployee(c echo.Context, id int64) error {
	if err := s.Catalog.DeleteEmployee(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
