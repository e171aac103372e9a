package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tammmikel/task-botv2/internal/models"
)

const companyColumns = `company_id, name, description, created_by, created_at`

func scanCompany(row interface{ Scan(...any) error }) (*models.Company, error) {
	var c models.Company
	var description sql.NullString
	err := row.Scan(
		&c.CompanyID,
		&c.Name,
		&description,
		&c.CreatedBy,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Description = description.String
	return &c, nil
}

func (db *DB) CreateCompany(ctx context.Context, company *models.Company) error {
	company.CompanyID = newID()
	company.CreatedAt = now()

	_, err := db.db.ExecContext(ctx,
		`INSERT INTO companies (`+companyColumns+`) VALUES (?, ?, ?, ?, ?)`,
		company.CompanyID,
		company.Name,
		nullable(company.Description),
		company.CreatedBy,
		company.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (db *DB) GetCompanyByID(ctx context.Context, companyID string) (*models.Company, error) {
	row := db.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE company_id = ?`, companyID)

	company, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return company, nil
}

// GetCompanyByName находит компанию по точному названию из нажатой кнопки.
func (db *DB) GetCompanyByName(ctx context.Context, name string) (*models.Company, error) {
	row := db.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE name = ?`, name)

	company, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get company by name: %w", err)
	}
	return company, nil
}

func (db *DB) GetAllCompanies(ctx context.Context) ([]*models.Company, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("get companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, company)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return companies, nil
}
