package dbtest

import (
	"strings"
	"testing"
)

func TestSchemaName(t *testing.T) {
	if got := schemaName("TestExpireBatch/limit=5000"); got != "test_testexpirebatch_limit_5000" {
		t.Fatalf("got %q", got)
	}

	long := "TestSomething/" + strings.Repeat("x", 80)
	a := schemaName(long)
	b := schemaName(long + "y")
	if len(a) != 63 || len(b) != 63 {
		t.Fatalf("long names must be cut to 63: %d %d", len(a), len(b))
	}
	if a == b {
		t.Fatal("different long names must give different schemas")
	}
}

func TestWithSearchPath(t *testing.T) {
	got := withSearchPath(t, "postgres://u:p@localhost:5432/berse?sslmode=disable", "test_x")
	if got != "postgres://u:p@localhost:5432/berse?search_path=test_x&sslmode=disable" {
		t.Fatalf("url form: %q", got)
	}
	if got := withSearchPath(t, "host=localhost dbname=berse", "test_x"); got != "host=localhost dbname=berse search_path=test_x" {
		t.Fatalf("key=value form: %q", got)
	}
}
