package mysql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	_ "github.com/go-sql-driver/mysql"

	"wanstay/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

const maxReasonLen = 255

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valJSON(b []byte) any {
	if len(b) == 0 {
		return "{}"
	}
	return string(b)
}

// Repo archives contact inquiries and failed detail lookups.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Open connects with pool limits suited to a small write-mostly workload.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema files in name order. Statements are
// idempotent, so running it on every start is safe.
func (r *Repo) Migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := migrations.ReadFile(f)
		if err != nil {
			return err
		}
		for _, stmt := range strings.Split(string(b), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := r.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
		}
	}
	return nil
}

func (r *Repo) SaveInquiry(ctx context.Context, in domain.Inquiry) error {
	_, err := r.db.ExecContext(ctx, insertInquirySQL,
		in.ID,
		string(in.Kind),
		in.Email,
		valJSON(in.Payload),
		in.Delivered,
		valStr(in.Error),
		in.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) LogMiss(ctx context.Context, id int64, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, id, truncateRunes(reason, maxReasonLen))
	return err
}

// truncateRunes cuts s to at most n characters; VARCHAR(n) counts characters,
// and a cut inside a multi-byte sequence would be rejected by utf8mb4.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
