package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// PostgresKV 把偏好存进 listview_kv 表（PREFERENCES_BACKEND=postgres）
// ttl 写入 expires_at，读取时过滤过期行
type PostgresKV struct {
	db *sql.DB
}

func NewPostgresKV(db *sql.DB) *PostgresKV {
	return &PostgresKV{db: db}
}

// EnsureSchema 建表（幂等）
func (p *PostgresKV) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS listview_kv (
			kv_key     TEXT PRIMARY KEY,
			kv_value   TEXT NOT NULL,
			expires_at TIMESTAMPTZ NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure listview_kv: %w", err)
	}
	return nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.db.QueryRowContext(ctx,
		`SELECT kv_value FROM listview_kv
		 WHERE kv_key = $1 AND (expires_at IS NULL OR expires_at > NOW())`,
		key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrMiss
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (p *PostgresKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(ttl), Valid: true}
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO listview_kv (kv_key, kv_value, expires_at, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (kv_key)
		 DO UPDATE SET kv_value = EXCLUDED.kv_value,
		               expires_at = EXCLUDED.expires_at,
		               updated_at = NOW()`,
		key, value, expiresAt,
	)
	return err
}

func (p *PostgresKV) Delete(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM listview_kv WHERE kv_key = $1`, key)
	return err
}

// ScanKeys pattern 使用 Redis glob（* ?），转换成 LIKE
func (p *PostgresKV) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT kv_key FROM listview_kv
		 WHERE kv_key LIKE $1 ESCAPE '\' AND (expires_at IS NULL OR expires_at > NOW())
		 ORDER BY kv_key`,
		globToLike(pattern),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func globToLike(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteRune('%')
		case '?':
			b.WriteRune('_')
		case '%', '_', '\\':
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
