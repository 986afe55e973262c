package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/vibast-solutions/authsvc/app/entity"
)

const mysqlDuplicateEntry = 1062

// MySQLStore persists users in a `users` table with the refresh-token set
// normalized into a `refresh_tokens` table. The email column carries a
// unique index and `role` a secondary one.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

const userColumns = `id, email, password_hash, name, phone, role, is_email_verified, is_active,
       avatar_url, bio, last_login_at, created_at, updated_at`

func (s *MySQLStore) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, phone, role, is_email_verified, is_active, avatar_url, bio, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		NormalizeEmail(user.Email),
		user.PasswordHash,
		user.Name,
		user.Phone,
		user.Role,
		user.IsEmailVerified,
		user.IsActive,
		user.AvatarURL,
		user.Bio,
		user.CreatedAt,
		user.UpdatedAt,
	)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return ErrDuplicateEmail
	}
	return err
}

func (s *MySQLStore) FindByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.findOne(ctx, query, id)
}

func (s *MySQLStore) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return s.findOne(ctx, query, NormalizeEmail(email))
}

func (s *MySQLStore) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadRefreshTokens(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *MySQLStore) loadRefreshTokens(ctx context.Context, user *entity.User) error {
	rows, err := s.db.QueryContext(ctx, `SELECT token FROM refresh_tokens WHERE user_id = ?`, user.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return err
		}
		user.RefreshTokens = append(user.RefreshTokens, token)
	}
	return rows.Err()
}

func (s *MySQLStore) Update(ctx context.Context, id string, update UserUpdate) error {
	sets := make([]string, 0, 10)
	args := make([]any, 0, 11)

	appendSet := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if update.Name != nil {
		appendSet("name", *update.Name)
	}
	if update.Phone != nil {
		appendSet("phone", *update.Phone)
	}
	if update.Bio != nil {
		appendSet("bio", *update.Bio)
	}
	if update.AvatarURL != nil {
		appendSet("avatar_url", *update.AvatarURL)
	}
	if update.PasswordHash != nil {
		appendSet("password_hash", *update.PasswordHash)
	}
	if update.Role != nil {
		appendSet("role", *update.Role)
	}
	if update.IsEmailVerified != nil {
		appendSet("is_email_verified", *update.IsEmailVerified)
	}
	if update.IsActive != nil {
		appendSet("is_active", *update.IsActive)
	}
	if update.LastLoginAt != nil {
		appendSet("last_login_at", *update.LastLoginAt)
	}
	if len(sets) == 0 {
		return nil
	}
	appendSet("updated_at", time.Now())
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = ?`, strings.Join(sets, ", "))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *MySQLStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *MySQLStore) List(ctx context.Context, filter ListFilter) ([]*entity.User, int, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if filter.Role != "" {
		where = append(where, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *filter.IsActive)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset, limit := filter.limits()
	query := `SELECT ` + userColumns + ` FROM users` + clause + ` ORDER BY created_at LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*entity.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func (s *MySQLStore) AddRefreshToken(ctx context.Context, id, token string) error {
	query := `INSERT IGNORE INTO refresh_tokens (user_id, token, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, id, token, time.Now())
	return err
}

// RemoveRefreshToken's row count doubles as the rotation guard: of two
// concurrent refreshes with the same token, only one DELETE affects a row.
func (s *MySQLStore) RemoveRefreshToken(ctx context.Context, id, token string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ? AND token = ?`, id, token)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *MySQLStore) RemoveAllRefreshTokens(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, id)
	return err
}

func (s *MySQLStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, at, id)
	return err
}

func (s *MySQLStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entity.User, error) {
	user := &entity.User{}
	var (
		name      sql.NullString
		phone     sql.NullString
		avatarURL sql.NullString
		bio       sql.NullString
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&name,
		&phone,
		&user.Role,
		&user.IsEmailVerified,
		&user.IsActive,
		&avatarURL,
		&bio,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Name = name.String
	user.Phone = phone.String
	user.AvatarURL = avatarURL.String
	user.Bio = bio.String
	if lastLogin.Valid {
		at := lastLogin.Time
		user.LastLoginAt = &at
	}
	return user, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
