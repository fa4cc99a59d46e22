// Package dbtest поднимает изолированную схему PostgreSQL для тестов с базой.
// Нужна переменная TEST_DATABASE_URL, без неё тест пропускается.
package dbtest

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bersemuka.app/rewards/internal/db/postgres"
	"bersemuka.app/rewards/internal/db/schema"
)

// EnvURL: строка подключения к тестовой базе.
const EnvURL = "TEST_DATABASE_URL"

// URL создаёт для теста отдельную пустую схему и возвращает строку подключения,
// у которой search_path смотрит в эту схему. После теста схема удаляется.
func URL(t testing.TB) string {
	t.Helper()

	base := lookupURL(t)
	ctx := context.Background()
	name := schemaName(t.Name())

	if err := execAdmin(ctx, base,
		"DROP SCHEMA IF EXISTS "+name+" CASCADE",
		"CREATE SCHEMA "+name,
	); err != nil {
		t.Fatalf("не удалось создать схему %s: %v", name, err)
	}
	t.Cleanup(func() {
		if err := execAdmin(context.Background(), base, "DROP SCHEMA IF EXISTS "+name+" CASCADE"); err != nil {
			t.Logf("не удалось удалить схему %s: %v", name, err)
		}
	})

	return withSearchPath(t, base, name)
}

// Pool: URL плюс пул с применёнными миграциями.
func Pool(t testing.TB) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	cfg, err := pgxpool.ParseConfig(URL(t))
	if err != nil {
		t.Fatalf("некорректный %s: %v", EnvURL, err)
	}
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("ошибка создания пула: %v", err)
	}
	// Cleanup выполняются в обратном порядке: пул закрывается раньше, чем удаляется схема
	t.Cleanup(pool.Close)

	if err := postgres.RunMigrations(ctx, pool, schema.Migrations); err != nil {
		t.Fatalf("ошибка миграций: %v", err)
	}
	return pool
}

func withSearchPath(t testing.TB, base, name string) string {
	t.Helper()
	if !strings.Contains(base, "://") {
		// Формат key=value
		return base + " search_path=" + name
	}
	u, err := url.Parse(base)
	if err != nil {
		t.Fatalf("некорректный %s: %v", EnvURL, err)
	}
	q := u.Query()
	q.Set("search_path", name)
	u.RawQuery = q.Encode()
	return u.String()
}

func lookupURL(t testing.TB) string {
	dsn := strings.TrimSpace(os.Getenv(EnvURL))
	if dsn == "" {
		t.Skipf("%s не задан, пропускаем тест с базой", EnvURL)
	}
	return dsn
}

func execAdmin(ctx context.Context, dsn string, stmts ...string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	for _, s := range stmts {
		if _, err := conn.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// schemaName: имя схемы из имени теста, только [a-z0-9_], не длиннее 63 символов.
// Длинные имена обрезаются, хвост заменяется хешем полного имени.
func schemaName(testName string) string {
	var b strings.Builder
	b.WriteString("test_")
	for _, r := range strings.ToLower(testName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if len(name) > 63 {
		h := fnv.New32a()
		h.Write([]byte(name))
		name = fmt.Sprintf("%s_%08x", name[:54], h.Sum32())
	}
	return name
}
