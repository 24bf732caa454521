package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/campusmarket/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `user_id, name, username, email, password_hash, salt, bio, is_verified, is_banned, created_at, updated_at`

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, userID string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`,
		userID,
	)
	return scanUser(row)
}

// FindByIdentifier はユーザー名またはメールアドレスでユーザーを検索する。
// 単一クエリのOR条件で検索し、どちらが一致したかを漏らさない。
func (r *PostgresUserRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)`,
		identifier,
	)
	return scanUser(row)
}

// FindByUsername はユーザー名でユーザーを検索する。大文字小文字を区別しない。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`,
		username,
	)
	return scanUser(row)
}

// FindByEmail はメールアドレスでユーザーを検索する。大文字小文字を区別しない。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`,
		email,
	)
	return scanUser(row)
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		user.UserID, user.Name, user.Username, user.Email,
		user.PasswordHash, user.Salt, user.Bio,
		user.IsVerified, user.IsBanned, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateProfile はプロフィールフィールドを更新する。
// password_hashとsaltはこのメソッドでは変更しない。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET name = $2, username = $3, email = $4, bio = $5, updated_at = $6
		 WHERE user_id = $1`,
		user.UserID, user.Name, user.Username, user.Email, user.Bio, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s not found", user.UserID)
	}
	return nil
}

// scanUser は1行のクエリ結果をmodel.Userに変換する。行なしの場合は(nil, nil)。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var bio sql.NullString
	err := row.Scan(
		&user.UserID, &user.Name, &user.Username, &user.Email,
		&user.PasswordHash, &user.Salt, &bio,
		&user.IsVerified, &user.IsBanned, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	user.Bio = bio.String
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
