package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dheryaagarwal/energy-bill-extractor/dto"
)

var ErrRecordNotFound = errors.New("bill record not found")

// BillHistory persists extraction results in a local SQLite database.
type BillHistory struct {
	db *sql.DB
}

const createTableStmt = `
CREATE TABLE IF NOT EXISTS bill_history (
	id                 TEXT PRIMARY KEY,
	filename           TEXT NOT NULL,
	month              TEXT NOT NULL,
	units_consumed     TEXT NOT NULL,
	sanctioned_load_kw TEXT NOT NULL,
	contract_demand_kw TEXT NOT NULL,
	maximum_demand_kw  TEXT NOT NULL,
	method             TEXT NOT NULL,
	ocr_confidence     REAL NOT NULL,
	created_at         TIMESTAMP NOT NULL
)`

// NewBillHistory opens (or creates) the history database at dbPath.
func NewBillHistory(dbPath string) (*BillHistory, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}

	if _, err := db.Exec(createTableStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history table: %w", err)
	}

	return &BillHistory{db: db}, nil
}

// Save stores one processed bill.
func (h *BillHistory) Save(ctx context.Context, record *dto.BillRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO bill_history (
			id, filename, month, units_consumed,
			sanctioned_load_kw, contract_demand_kw, maximum_demand_kw,
			method, ocr_confidence, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Filename, record.Month, record.UnitsConsumed,
		record.SanctionedLoad, record.ContractDemand, record.MaxDemand,
		string(record.Method), record.OcrConfidence, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save bill record: %w", err)
	}
	return nil
}

// ListRecent returns up to limit records, newest first.
func (h *BillHistory) ListRecent(ctx context.Context, limit int) ([]dto.BillRecord, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, filename, month, units_consumed,
		       sanctioned_load_kw, contract_demand_kw, maximum_demand_kw,
		       method, ocr_confidence, created_at
		FROM bill_history
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bill history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListAll returns every record, newest first. Used by exports.
func (h *BillHistory) ListAll(ctx context.Context) ([]dto.BillRecord, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, filename, month, units_consumed,
		       sanctioned_load_kw, contract_demand_kw, maximum_demand_kw,
		       method, ocr_confidence, created_at
		FROM bill_history
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bill history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetByID returns a single record, or ErrRecordNotFound.
func (h *BillHistory) GetByID(ctx context.Context, id string) (*dto.BillRecord, error) {
	row := h.db.QueryRowContext(ctx, `
		SELECT id, filename, month, units_consumed,
		       sanctioned_load_kw, contract_demand_kw, maximum_demand_kw,
		       method, ocr_confidence, created_at
		FROM bill_history
		WHERE id = ?`, id)

	var record dto.BillRecord
	var method string
	err := row.Scan(
		&record.ID, &record.Filename, &record.Month, &record.UnitsConsumed,
		&record.SanctionedLoad, &record.ContractDemand, &record.MaxDemand,
		&method, &record.OcrConfidence, &record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bill record: %w", err)
	}
	record.Method = dto.ExtractionMethod(method)

	return &record, nil
}

func (h *BillHistory) Close() error {
	return h.db.Close()
}

func scanRecords(rows *sql.Rows) ([]dto.BillRecord, error) {
	var records []dto.BillRecord
	for rows.Next() {
		var record dto.BillRecord
		var method string
		if err := rows.Scan(
			&record.ID, &record.Filename, &record.Month, &record.UnitsConsumed,
			&record.SanctionedLoad, &record.ContractDemand, &record.MaxDemand,
			&method, &record.OcrConfidence, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bill record: %w", err)
		}
		record.Method = dto.ExtractionMethod(method)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bill history rows: %w", err)
	}
	return records, nil
}
