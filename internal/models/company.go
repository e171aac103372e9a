package models

import "time"

type Company struct {
	CompanyID   string    `json:"company_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// CompanyTaskCount — компания вместе с числом видимых пользователю задач,
// используется в фильтре по компаниям.
type CompanyTaskCount struct {
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	TaskCount int    `json:"task_count"`
}
