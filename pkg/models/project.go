// Package models contains domain types for askdb.
package models

import "fmt"

// Project binds a connection profile to the table schemas known for it.
// Projects are owned by an external catalog; the pipeline treats them as read-only.
type Project struct {
	ID         string            `json:"id" yaml:"id"`
	Name       string            `json:"name" yaml:"name"`
	Connection ConnectionProfile `json:"connection" yaml:"connection"`
	Tables     []TableSchema     `json:"tables" yaml:"tables"`
}

// Validate checks the project carries enough information to answer questions.
func (p *Project) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("project id is required")
	}
	if p.Connection.DBType == "" {
		return fmt.Errorf("project %s: db_type is required", p.ID)
	}
	for _, t := range p.Tables {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("project %s: %w", p.ID, err)
		}
	}
	return nil
}
