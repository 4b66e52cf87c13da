package database

import (
	"strings"
	"testing"
)

// 埋め込みマイグレーションにup/downのペアが存在することを検証
func TestMigrationsFS_ContainsUpDownPairs(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migration files embedded")
	}

	ups := 0
	downs := 0
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups++
		case strings.HasSuffix(name, ".down.sql"):
			downs++
		default:
			t.Errorf("unexpected migration file name: %s", name)
		}
	}
	if ups != downs {
		t.Errorf("up migrations = %d, down migrations = %d, want equal", ups, downs)
	}
}

// 初期スキーマに共有リンクのユニーク制約が含まれることを検証
func TestInitSchema_HasShareUniqueConstraints(t *testing.T) {
	data, err := migrationsFS.ReadFile("migrations/000001_init_schema.up.sql")
	if err != nil {
		t.Fatalf("failed to read init schema: %v", err)
	}
	content := string(data)

	for _, constraint := range []string{
		"uq_shared_notes_note_user",
		"uq_shared_files_file_user",
		"chk_shared_notes_no_self",
		"chk_shared_files_no_self",
	} {
		if !strings.Contains(content, constraint) {
			t.Errorf("init schema should define constraint %s", constraint)
		}
	}
}
