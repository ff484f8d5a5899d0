package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/models"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var userRowColumns = []string{
	"user_id", "name", "email", "password_hash", "phone", "role", "profile_image", "status", "created_at",
}

func setupReadRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *miniredis.Miniredis, *UserReadRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return db, mock, mr, NewUserReadRepository(db, client, time.Minute, zap.NewNop())
}

func userRow(id int64, role string) *sqlmock.Rows {
	return sqlmock.NewRows(userRowColumns).
		AddRow(id, "Dr. Lee", "lee@example.com", "$2a$10$hash", nil, role, nil, "Active", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
}

func TestGetByEmail(t *testing.T) {
	_, mock, _, repo := setupReadRepo(t)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).WithArgs("lee@example.com").
		WillReturnRows(userRow(4, "Specialist"))

	user, err := repo.GetByEmail(context.Background(), "lee@example.com")

	require.NoError(t, err)
	assert.Equal(t, int64(4), user.ID)
	assert.Equal(t, models.RoleSpecialist, user.Role)
	assert.Equal(t, "$2a$10$hash", user.PasswordHash)
	assert.Empty(t, user.Phone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail_NotFound(t *testing.T) {
	_, mock, _, repo := setupReadRepo(t)

	mock.ExpectQuery(`FROM users WHERE email`).WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetProfile_MergesSubtypeForEveryRole(t *testing.T) {
	tests := []struct {
		role    string
		subtype string
		rows    *sqlmock.Rows
		check   func(t *testing.T, data models.RoleData)
	}{
		{
			role:    "Patient",
			subtype: `FROM patients WHERE patient_id`,
			rows: sqlmock.NewRows([]string{"patient_id", "healthcare_number", "date_of_birth"}).
				AddRow(int64(1), "HC-1", time.Date(1988, 7, 9, 0, 0, 0, 0, time.UTC)),
			check: func(t *testing.T, data models.RoleData) {
				d, ok := data.(*models.PatientData)
				require.True(t, ok)
				assert.Equal(t, "HC-1", d.HealthcareNumber)
				assert.Equal(t, "1988-07-09", d.DateOfBirth)
			},
		},
		{
			role:    "Specialist",
			subtype: `FROM specialists WHERE specialist_id`,
			rows:    sqlmock.NewRows([]string{"specialist_id", "working_id", "specialization"}).AddRow(int64(1), "W-9", "Endocrinology"),
			check: func(t *testing.T, data models.RoleData) {
				d, ok := data.(*models.SpecialistData)
				require.True(t, ok)
				assert.Equal(t, "Endocrinology", d.Specialization)
			},
		},
		{
			role:    "Clinic_Staff",
			subtype: `FROM clinic_staff WHERE staff_id`,
			rows:    sqlmock.NewRows([]string{"staff_id", "working_id", "department"}).AddRow(int64(1), "W-3", "Reception"),
			check: func(t *testing.T, data models.RoleData) {
				d, ok := data.(*models.StaffData)
				require.True(t, ok)
				assert.Equal(t, "Reception", d.Department)
			},
		},
		{
			role:    "Administrator",
			subtype: `FROM administrators WHERE administrator_id`,
			rows:    sqlmock.NewRows([]string{"administrator_id"}).AddRow(int64(1)),
			check: func(t *testing.T, data models.RoleData) {
				d, ok := data.(*models.AdministratorData)
				require.True(t, ok)
				assert.Equal(t, int64(1), d.AdministratorID)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			_, mock, _, repo := setupReadRepo(t)

			mock.ExpectQuery(`FROM users WHERE user_id = \$1`).WithArgs(int64(1)).WillReturnRows(userRow(1, tt.role))
			mock.ExpectQuery(tt.subtype).WithArgs(int64(1)).WillReturnRows(tt.rows)

			view, err := repo.GetProfile(context.Background(), 1)

			require.NoError(t, err)
			assert.Equal(t, models.Role(tt.role), view.Role)
			tt.check(t, view.RoleData)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetProfile_ServesSecondReadFromCache(t *testing.T) {
	_, mock, mr, repo := setupReadRepo(t)
	ctx := context.Background()

	mock.ExpectQuery(`FROM users WHERE user_id`).WillReturnRows(userRow(2, "Specialist"))
	mock.ExpectQuery(`FROM specialists`).
		WillReturnRows(sqlmock.NewRows([]string{"specialist_id", "working_id", "specialization"}).AddRow(int64(2), "W-2", "Cardiology"))

	first, err := repo.GetProfile(ctx, 2)
	require.NoError(t, err)
	assert.True(t, mr.Exists("profile:view:2"))

	second, err := repo.GetProfile(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, first.Email, second.Email)
	assert.Equal(t, first.RoleData, second.RoleData)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfile_Failures(t *testing.T) {
	t.Run("user missing", func(t *testing.T) {
		_, mock, _, repo := setupReadRepo(t)
		mock.ExpectQuery(`FROM users WHERE user_id`).WillReturnRows(sqlmock.NewRows(userRowColumns))

		_, err := repo.GetProfile(context.Background(), 99)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("unknown stored role", func(t *testing.T) {
		_, mock, _, repo := setupReadRepo(t)
		mock.ExpectQuery(`FROM users WHERE user_id`).WillReturnRows(userRow(5, "Janitor"))

		_, err := repo.GetProfile(context.Background(), 5)
		assert.ErrorIs(t, err, models.ErrUnknownRole)
		assert.NotErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("subtype row missing", func(t *testing.T) {
		_, mock, mr, repo := setupReadRepo(t)
		mock.ExpectQuery(`FROM users WHERE user_id`).WillReturnRows(userRow(6, "Patient"))
		mock.ExpectQuery(`FROM patients`).WillReturnRows(sqlmock.NewRows([]string{"patient_id", "healthcare_number", "date_of_birth"}))

		_, err := repo.GetProfile(context.Background(), 6)
		assert.ErrorIs(t, err, models.ErrRoleDataMissing)
		assert.False(t, mr.Exists("profile:view:6"))
	})
}

func TestInvalidateProfile(t *testing.T) {
	_, mock, mr, repo := setupReadRepo(t)
	ctx := context.Background()

	mock.ExpectQuery(`FROM users WHERE user_id`).WillReturnRows(userRow(3, "Administrator"))
	mock.ExpectQuery(`FROM administrators`).WillReturnRows(sqlmock.NewRows([]string{"administrator_id"}).AddRow(int64(3)))

	_, err := repo.GetProfile(ctx, 3)
	require.NoError(t, err)
	require.True(t, mr.Exists("profile:view:3"))

	repo.InvalidateProfile(ctx, 3)
	assert.False(t, mr.Exists("profile:view:3"))
}

func TestGetProfile_ReadInFlightDuringInvalidateIsNotCached(t *testing.T) {
	_, mock, mr, repo := setupReadRepo(t)
	ctx := context.Background()

	mock.ExpectQuery(`FROM users WHERE user_id`).
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(userRow(4, "Administrator"))
	mock.ExpectQuery(`FROM administrators`).WillReturnRows(sqlmock.NewRows([]string{"administrator_id"}).AddRow(int64(4)))

	done := make(chan error, 1)
	go func() {
		_, err := repo.GetProfile(ctx, 4)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	repo.InvalidateProfile(ctx, 4)

	require.NoError(t, <-done)
	assert.False(t, mr.Exists("profile:view:4"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByRole(t *testing.T) {
	_, mock, _, repo := setupReadRepo(t)

	rows := sqlmock.NewRows(userRowColumns).
		AddRow(int64(2), "Kim", "kim@example.com", "h", "555", "Clinic_Staff", nil, "Active", time.Now()).
		AddRow(int64(5), "Ola", "ola@example.com", "h", nil, "Clinic_Staff", nil, "Active", time.Now())
	mock.ExpectQuery(`FROM users WHERE role = \$1 ORDER BY user_id`).WithArgs("Clinic_Staff").WillReturnRows(rows)
	mock.ExpectQuery(`FROM clinic_staff`).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"staff_id", "working_id", "department"}).AddRow(int64(2), "W-2", "Lab"))
	mock.ExpectQuery(`FROM clinic_staff`).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"staff_id", "working_id", "department"}).AddRow(int64(5), "W-5", "Front desk"))

	views, err := repo.ListByRole(context.Background(), models.RoleClinicStaff)

	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, int64(2), views[0].UserID)
	assert.Equal(t, "Front desk", views[1].RoleData.(*models.StaffData).Department)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByRole_UnknownRoleQueriesNothing(t *testing.T) {
	_, mock, _, repo := setupReadRepo(t)

	_, err := repo.ListByRole(context.Background(), models.Role("Janitor"))

	assert.ErrorIs(t, err, models.ErrUnknownRole)
	require.NoError(t, mock.ExpectationsWereMet())
}
