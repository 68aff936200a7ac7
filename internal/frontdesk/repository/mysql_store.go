package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/apperrors"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/models"
)

const (
	mysqlErrDuplicateEntry = 1062
	mysqlErrDeadlock       = 1213

	patientColumns = `p.id, p.name, DATE_FORMAT(p.date_of_birth, '%Y-%m-%d') AS date_of_birth,
		p.phone, p.email, p.address, p.medical_history, p.created_at, p.updated_at`

	visitColumns = `id, patient_id, token_number, reason_for_visit, status, consultation_fee,
		issue_time, completion_time, DATE_FORMAT(visit_date, '%Y-%m-%d') AS visit_date`
)

// MySQLStore is the MariaDB/MySQL implementation of Store.
type MySQLStore struct {
	DB *sqlx.DB
}

func NewMySQLStore(db *sqlx.DB) *MySQLStore {
	return &MySQLStore{DB: db}
}

func (s *MySQLStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *MySQLStore) Close() error {
	return s.DB.Close()
}

func (s *MySQLStore) WithTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&mysqlTx{tx: tx}); err != nil {
		err = deadlockAsConflict(err)
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return deadlockAsConflict(tx.Commit())
}

// deadlockAsConflict turns a deadlock victim into a conflict the caller can
// retry. MySQL has already rolled the transaction back at that point.
func deadlockAsConflict(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlErrDeadlock {
		return apperrors.Conflict("transaction deadlocked, retry the request")
	}
	return err
}

func (s *MySQLStore) GetPatient(ctx context.Context, id string) (models.Patient, error) {
	var p models.Patient
	query := `SELECT ` + patientColumns + ` FROM patients p WHERE p.id = ?`
	if err := s.DB.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, apperrors.NotFound("patient %s not found", id)
		}
		return p, err
	}
	return p, nil
}

func (s *MySQLStore) ListPatients(ctx context.Context, search, visitDate string) ([]models.PatientWithVisit, error) {
	query := `
		SELECT ` + patientColumns + `,
			v.id AS visit_id, v.token_number, v.reason_for_visit, v.status, v.consultation_fee,
			v.issue_time, v.completion_time, DATE_FORMAT(v.visit_date, '%Y-%m-%d') AS visit_date
		FROM patients p
		LEFT JOIN visits v ON v.id = (
			SELECT MAX(v2.id) FROM visits v2 WHERE v2.patient_id = p.id AND v2.visit_date = ?
		)`
	args := []interface{}{visitDate}
	if search != "" {
		query += ` WHERE LOWER(p.name) LIKE ? OR LOWER(p.id) LIKE ? OR LOWER(p.phone) LIKE ?`
		pattern := likePattern(search)
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC`

	result := []models.PatientWithVisit{}
	if err := s.DB.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *MySQLStore) GetVisit(ctx context.Context, id int64) (models.Visit, error) {
	var v models.Visit
	if err := s.DB.GetContext(ctx, &v, `SELECT `+visitColumns+` FROM visits WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return v, apperrors.NotFound("visit %d not found", id)
		}
		return v, err
	}
	return v, nil
}

func (s *MySQLStore) ListVisits(ctx context.Context, filter models.VisitFilter) ([]models.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE 1 = 1`
	var args []interface{}
	if filter.Date != "" {
		query += ` AND visit_date = ?`
		args = append(args, filter.Date)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY visit_date, token_number`

	result := []models.Visit{}
	if err := s.DB.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *MySQLStore) DailyCounts(ctx context.Context, date string) (models.DailyCounts, error) {
	var c models.DailyCounts
	query := `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN status = 'completed' THEN consultation_fee ELSE 0 END), 0) AS revenue
		FROM visits
		WHERE visit_date = ?`
	err := s.DB.GetContext(ctx, &c, query, date)
	return c, err
}

func (s *MySQLStore) GetTokenCounter(ctx context.Context, date string) (models.TokenCounter, error) {
	c := models.TokenCounter{Date: date}
	err := s.DB.QueryRowContext(ctx, `SELECT last_token FROM token_counters WHERE counter_date = ?`, date).Scan(&c.LastToken)
	if errors.Is(err, sql.ErrNoRows) {
		return c, nil
	}
	return c, err
}

type mysqlTx struct {
	tx *sqlx.Tx
}

func (t *mysqlTx) PatientExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM patients WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *mysqlTx) NextPatientOrdinal(ctx context.Context) (int, error) {
	var count int
	// FOR UPDATE takes next-key locks over the whole table so a concurrent
	// registration waits here instead of reusing the same count. Two of them
	// can still deadlock on the gap locks, which WithTx reports as a conflict.
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients FOR UPDATE`).Scan(&count); err != nil {
		return 0, err
	}
	return count + 1, nil
}

func (t *mysqlTx) InsertPatient(ctx context.Context, p models.Patient) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO patients
			(id, name, date_of_birth, phone, email, address, medical_history, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.DateOfBirth, p.Phone, p.Email, p.Address, p.MedicalHistory, p.CreatedAt, p.UpdatedAt,
	)
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry {
		return apperrors.Conflict("patient id %s is already taken, retry the registration", p.ID)
	}
	return err
}

func (t *mysqlTx) NextToken(ctx context.Context, date string) (int, error) {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO token_counters (counter_date, last_token) VALUES (?, 1)
		ON DUPLICATE KEY UPDATE last_token = last_token + 1`, date)
	if err != nil {
		return 0, err
	}
	// The upsert holds the row lock until commit, so this read sees exactly
	// the value this transaction wrote.
	var token int
	if err := t.tx.QueryRowContext(ctx,
		`SELECT last_token FROM token_counters WHERE counter_date = ? FOR UPDATE`, date).Scan(&token); err != nil {
		return 0, err
	}
	return token, nil
}

func (t *mysqlTx) InsertVisit(ctx context.Context, v *models.Visit) error {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO visits (patient_id, token_number, reason_for_visit, status, issue_time, visit_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.PatientID, v.TokenNumber, v.ReasonForVisit, string(v.Status), v.IssueTime, v.VisitDate,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = id
	return nil
}

func (t *mysqlTx) GetVisitForUpdate(ctx context.Context, id int64) (models.Visit, error) {
	var v models.Visit
	err := t.tx.GetContext(ctx, &v, `SELECT `+visitColumns+` FROM visits WHERE id = ? FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return v, apperrors.NotFound("visit %d not found", id)
	}
	return v, err
}

func (t *mysqlTx) CompleteVisit(ctx context.Context, id int64, fee float64, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE visits
		SET status = 'completed', consultation_fee = ?, completion_time = ?
		WHERE id = ? AND status = 'pending'`, fee, at, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.Conflict("visit %d is not pending", id)
	}
	return nil
}
