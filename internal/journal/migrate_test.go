package journal

import (
	"path/filepath"
	"strings"
	"testing"
)

// openBareJournal opens a journal without applying any migrations.
func openBareJournal(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "journal.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name,
	).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to check for table %s: %v", name, err)
	}
	return n > 0
}

func indexExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?`, name,
	).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to check for index %s: %v", name, err)
	}
	return n > 0
}

// TestMigrateVersionOnFreshDatabase verifies the nil-version mapping
func TestMigrateVersionOnFreshDatabase(t *testing.T) {
	db := openBareJournal(t)

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("Expected version 0 clean, got %d (dirty: %v)", version, dirty)
	}
}

// TestMigrateUpCreatesSchema applies all migrations and checks the result
func TestMigrateUpCreatesSchema(t *testing.T) {
	db := openBareJournal(t)

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	latest, err := GetLatestMigrationVersion()
	if err != nil {
		t.Fatalf("GetLatestMigrationVersion failed: %v", err)
	}
	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != latest || dirty {
		t.Errorf("Expected version %d clean, got %d (dirty: %v)", latest, version, dirty)
	}

	for _, table := range []string{"sessions", "fixes", "alarms"} {
		if !tableExists(t, db, table) {
			t.Errorf("Expected table %s after migration", table)
		}
	}
	if !indexExists(t, db, "idx_fixes_session_at") {
		t.Error("Expected idx_fixes_session_at after migration")
	}

	// A second up is a no-op.
	if err := db.MigrateUp(); err != nil {
		t.Fatalf("Second MigrateUp failed: %v", err)
	}
}

// TestMigrateDownStepsBack rolls back one version at a time
func TestMigrateDownStepsBack(t *testing.T) {
	db := openBareJournal(t)

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	if err := db.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	version, _, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected version 1 after one rollback, got %d", version)
	}
	if indexExists(t, db, "idx_fixes_session_at") {
		t.Error("Expected idx_fixes_session_at dropped at version 1")
	}
	if !tableExists(t, db, "sessions") {
		t.Error("Expected sessions table still present at version 1")
	}

	if err := db.MigrateDown(); err != nil {
		t.Fatalf("Second MigrateDown failed: %v", err)
	}
	version, _, err = db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("Expected version 0 after full rollback, got %d", version)
	}
	if tableExists(t, db, "sessions") {
		t.Error("Expected sessions table dropped at version 0")
	}
}

// TestMigrateTo walks to an explicit version in both directions
func TestMigrateTo(t *testing.T) {
	db := openBareJournal(t)

	if err := db.MigrateTo(1); err != nil {
		t.Fatalf("MigrateTo(1) failed: %v", err)
	}
	version, _, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected version 1, got %d", version)
	}
	if indexExists(t, db, "idx_fixes_session_at") {
		t.Error("Expected no indexes at version 1")
	}

	if err := db.MigrateTo(2); err != nil {
		t.Fatalf("MigrateTo(2) failed: %v", err)
	}
	version, _, err = db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("Expected version 2, got %d", version)
	}
}

// TestEnsureSchemaInitializesFreshDatabase verifies first-run auto-migration
func TestEnsureSchemaInitializesFreshDatabase(t *testing.T) {
	db := openBareJournal(t)

	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	latest, err := GetLatestMigrationVersion()
	if err != nil {
		t.Fatalf("GetLatestMigrationVersion failed: %v", err)
	}
	version, _, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != latest {
		t.Errorf("Expected version %d after EnsureSchema, got %d", latest, version)
	}

	// Running it again against a current database is quiet.
	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("EnsureSchema on current database failed: %v", err)
	}
}

// TestEnsureSchemaRejectsOutOfDate verifies stale databases are not auto-migrated
func TestEnsureSchemaRejectsOutOfDate(t *testing.T) {
	db := openBareJournal(t)

	if err := db.MigrateTo(1); err != nil {
		t.Fatalf("MigrateTo(1) failed: %v", err)
	}

	err := db.EnsureSchema()
	if err == nil {
		t.Fatal("Expected EnsureSchema to reject an out-of-date database")
	}
	if !strings.Contains(err.Error(), "migrate up") {
		t.Errorf("Expected guidance to run migrate up, got: %v", err)
	}

	// The stale schema must be untouched.
	version, _, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected version still 1, got %d", version)
	}
}

// TestBaselineAtVersion verifies baselining without running migrations
func TestBaselineAtVersion(t *testing.T) {
	db := openBareJournal(t)

	if err := db.BaselineAtVersion(2); err != nil {
		t.Fatalf("BaselineAtVersion failed: %v", err)
	}

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("Expected version 2 clean after baseline, got %d (dirty: %v)", version, dirty)
	}

	// Baselining never creates the journal tables themselves.
	if tableExists(t, db, "sessions") {
		t.Error("Expected no sessions table after bare baseline")
	}

	// A second baseline must refuse to overwrite.
	if err := db.BaselineAtVersion(1); err == nil {
		t.Error("Expected second BaselineAtVersion to fail")
	}
}

// TestGetLatestMigrationVersion pins the embedded migration set
func TestGetLatestMigrationVersion(t *testing.T) {
	latest, err := GetLatestMigrationVersion()
	if err != nil {
		t.Fatalf("GetLatestMigrationVersion failed: %v", err)
	}
	if latest != 2 {
		t.Errorf("Expected latest embedded migration version 2, got %d", latest)
	}
}

// TestGetMigrationStatus verifies the status summary keys
func TestGetMigrationStatus(t *testing.T) {
	db := openBareJournal(t)

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	status, err := db.GetMigrationStatus()
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status["current_version"] != uint(2) {
		t.Errorf("Expected current_version 2, got %v", status["current_version"])
	}
	if status["dirty"] != false {
		t.Errorf("Expected dirty false, got %v", status["dirty"])
	}
	if status["schema_migrations_exists"] != true {
		t.Errorf("Expected schema_migrations_exists true, got %v", status["schema_migrations_exists"])
	}
}
