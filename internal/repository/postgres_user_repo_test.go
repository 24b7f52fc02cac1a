package repository

import (
	"database/sql"
	"testing"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

func TestNewPostgresUserRepo(t *testing.T) {
	db := &sql.DB{}
	repo := NewPostgresUserRepo(db)
	if repo == nil {
		t.Fatal("expected repo, got nil")
	}
	if repo.db != db {
		t.Error("expected repo to hold the given db handle")
	}
}
