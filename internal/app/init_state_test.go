package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vanillai/vanillai/internal/db"
	"github.com/vanillai/vanillai/internal/models"
	"github.com/vanillai/vanillai/internal/seed"
)

func TestHasAdminInitialized(t *testing.T) {
	conn, err := db.Open(db.BuildSQLiteDSN(filepath.Join(t.TempDir(), "state.db")))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	initialized, err := HasAdminInitialized(conn)
	if err != nil {
		t.Fatalf("HasAdminInitialized: %v", err)
	}
	if initialized {
		t.Fatalf("expected initialized=false before migrate")
	}

	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	if _, errSeed := seed.Run(context.Background(), conn); errSeed != nil {
		t.Fatalf("seed: %v", errSeed)
	}

	initialized, err = HasAdminInitialized(conn)
	if err != nil {
		t.Fatalf("HasAdminInitialized after seed: %v", err)
	}
	if initialized {
		t.Fatalf("expected initialized=false with only member accounts")
	}

	admin := models.User{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "hashed-password",
		Role:     models.RoleAdmin,
	}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}

	initialized, err = HasAdminInitialized(conn)
	if err != nil {
		t.Fatalf("HasAdminInitialized after admin: %v", err)
	}
	if !initialized {
		t.Fatalf("expected initialized=true after admin created")
	}
}
