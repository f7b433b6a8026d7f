package models

import (
	"errors"
	"time"
)

// Dataset is one stored raw input. The cube is never stored: it is rebuilt
// from Raw every time the dataset is loaded.
type Dataset struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Source   string    `json:"source"`
	Raw      string    `json:"-"`
	RowCount int       `json:"row_count"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Validate checks that all dataset fields are valid
func (d *Dataset) Validate() error {
	if d.ID == "" {
		return errors.New("dataset ID must not be empty")
	}
	if d.Name == "" {
		return errors.New("dataset name must not be empty")
	}
	if d.RowCount < 0 {
		return errors.New("row count must not be negative")
	}
	if d.LoadedAt.IsZero() {
		return errors.New("loaded at must be set")
	}
	if d.LoadedAt.After(time.Now()) {
		return errors.New("loaded at must not be in the future")
	}
	return nil
}

// Session is the persisted state of one explorer: its filter text and the
// id of the selected cell, if any.
type Session struct {
	ID           string    `json:"id"`
	DatasetID    string    `json:"dataset_id"`
	Filter       string    `json:"filter"`
	SelectedCell string    `json:"selected_cell,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks that all session fields are valid
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("session ID must not be empty")
	}
	if s.DatasetID == "" {
		return errors.New("dataset ID must not be empty")
	}
	if s.UpdatedAt.IsZero() {
		return errors.New("updated at must be set")
	}
	if s.UpdatedAt.After(time.Now()) {
		return errors.New("updated at must not be in the future")
	}
	return nil
}
