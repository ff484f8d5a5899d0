package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/models"
	sharedredis "github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	profileViewKeyPrefix = "profile:view:"
	profileGenKeyPrefix  = "profile:gen:"
)

const userColumns = `user_id, name, email, password_hash, phone, role, profile_image, status, created_at`

// UserReadRepository handles all read operations for users. Profiles are
// served from Redis when cached and fall back to PostgreSQL on a miss.
type UserReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.ProfileView]
}

func NewUserReadRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration, logger *zap.Logger) *UserReadRepository {
	return &UserReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.ProfileView](redisClient, ttl, logger),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user         models.User
		role         string
		phone, image sql.NullString
	)
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &phone,
		&role, &image, &user.Status, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Phone = phone.String
	user.ProfileImage = image.String

	user.Role, err = models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", user.ID, err)
	}
	return &user, nil
}

// GetByEmail fetches the full user, including PasswordHash, for credential checks.
func (r *UserReadRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetProfile returns the user merged with its subtype record.
func (r *UserReadRepository) GetProfile(ctx context.Context, id int64) (*models.ProfileView, error) {
	cacheKey := profileViewKey(id)
	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view, nil
	}
	gen, cacheable := r.cache.Generation(ctx, profileGenKey(id))

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	user, err := scanUser(conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	data, err := selectRoleData(ctx, conn, user.Role, user.ID)
	if err != nil {
		return nil, err
	}

	view := models.NewProfileView(user, data)
	if cacheable {
		r.cache.SetAt(ctx, cacheKey, profileGenKey(id), gen, view)
	}
	return view, nil
}

// ListByRole returns every user holding role, ordered by id, each merged
// with its subtype record.
func (r *UserReadRepository) ListByRole(ctx context.Context, role models.Role) ([]*models.ProfileView, error) {
	if _, _, err := subtypeTable(role); err != nil {
		return nil, err
	}

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY user_id`
	rows, err := conn.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	rows.Close()

	views := make([]*models.ProfileView, 0, len(users))
	for _, user := range users {
		data, err := selectRoleData(ctx, conn, user.Role, user.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, models.NewProfileView(user, data))
	}
	return views, nil
}

// InvalidateProfile drops the cached profile after a write. Reads already in
// flight for id will not repopulate the cache with what they loaded.
func (r *UserReadRepository) InvalidateProfile(ctx context.Context, id int64) {
	r.cache.Invalidate(ctx, profileViewKey(id), profileGenKey(id))
}

func profileViewKey(id int64) string {
	return profileViewKeyPrefix + strconv.FormatInt(id, 10)
}

func profileGenKey(id int64) string {
	return profileGenKeyPrefix + strconv.FormatInt(id, 10)
}
