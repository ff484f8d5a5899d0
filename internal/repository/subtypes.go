package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/models"
)

const dateLayout = "2006-01-02"

// queryer and execer are satisfied by *sql.Conn and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// subtypeTable names the table and key column holding a role's subtype rows.
func subtypeTable(role models.Role) (table, key string, err error) {
	switch role {
	case models.RolePatient:
		return "patients", "patient_id", nil
	case models.RoleSpecialist:
		return "specialists", "specialist_id", nil
	case models.RoleClinicStaff:
		return "clinic_staff", "staff_id", nil
	case models.RoleAdministrator:
		return "administrators", "administrator_id", nil
	default:
		return "", "", fmt.Errorf("%w: %q", models.ErrUnknownRole, string(role))
	}
}

func insertRoleData(ctx context.Context, ex execer, userID int64, data models.RoleData) error {
	var err error
	switch d := data.(type) {
	case *models.PatientData:
		_, err = ex.ExecContext(ctx,
			`INSERT INTO patients (patient_id, healthcare_number, date_of_birth) VALUES ($1, $2, $3)`,
			userID, d.HealthcareNumber, d.DateOfBirth)
		d.PatientID = userID
	case *models.SpecialistData:
		_, err = ex.ExecContext(ctx,
			`INSERT INTO specialists (specialist_id, working_id, specialization) VALUES ($1, $2, $3)`,
			userID, d.WorkingID, d.Specialization)
		d.SpecialistID = userID
	case *models.StaffData:
		_, err = ex.ExecContext(ctx,
			`INSERT INTO clinic_staff (staff_id, working_id, department) VALUES ($1, $2, $3)`,
			userID, d.WorkingID, d.Department)
		d.StaffID = userID
	case *models.AdministratorData:
		_, err = ex.ExecContext(ctx,
			`INSERT INTO administrators (administrator_id) VALUES ($1)`,
			userID)
		d.AdministratorID = userID
	default:
		return fmt.Errorf("%w: subtype %T", models.ErrUnknownRole, data)
	}
	return err
}

func selectRoleData(ctx context.Context, q queryer, role models.Role, userID int64) (models.RoleData, error) {
	var (
		data models.RoleData
		err  error
	)
	switch role {
	case models.RolePatient:
		d := &models.PatientData{}
		var dob time.Time
		err = q.QueryRowContext(ctx,
			`SELECT patient_id, healthcare_number, date_of_birth FROM patients WHERE patient_id = $1`,
			userID).Scan(&d.PatientID, &d.HealthcareNumber, &dob)
		d.DateOfBirth = dob.Format(dateLayout)
		data = d
	case models.RoleSpecialist:
		d := &models.SpecialistData{}
		err = q.QueryRowContext(ctx,
			`SELECT specialist_id, working_id, specialization FROM specialists WHERE specialist_id = $1`,
			userID).Scan(&d.SpecialistID, &d.WorkingID, &d.Specialization)
		data = d
	case models.RoleClinicStaff:
		d := &models.StaffData{}
		err = q.QueryRowContext(ctx,
			`SELECT staff_id, working_id, department FROM clinic_staff WHERE staff_id = $1`,
			userID).Scan(&d.StaffID, &d.WorkingID, &d.Department)
		data = d
	case models.RoleAdministrator:
		d := &models.AdministratorData{}
		err = q.QueryRowContext(ctx,
			`SELECT administrator_id FROM administrators WHERE administrator_id = $1`,
			userID).Scan(&d.AdministratorID)
		data = d
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownRole, string(role))
	}

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s row for user %d", models.ErrRoleDataMissing, role, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s record: %w", role, err)
	}
	return data, nil
}

func deleteRoleData(ctx context.Context, ex execer, role models.Role, userID int64) error {
	table, key, err := subtypeTable(role)
	if err != nil {
		return err
	}
	// A missing subtype row is not an error here; deleting the user clears the inconsistency.
	if _, err := ex.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, key), userID); err != nil {
		return fmt.Errorf("failed to delete %s record: %w", role, err)
	}
	return nil
}
