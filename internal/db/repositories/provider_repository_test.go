package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/module-registry/module-registry/internal/db/models"
)

var providerCols = []string{"id", "module_id", "name", "created_at", "updated_at"}

const testProviderID = "33333333-3333-3333-3333-333333333333"

func newProviderRepo(t *testing.T) (*ProviderRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewProviderRepository(db), mock
}

func TestProviderGet_Found(t *testing.T) {
	repo, mock := newProviderRepo(t)
	mock.ExpectQuery("SELECT.*FROM providers.*WHERE module_id").
		WithArgs(testModuleID, "aws").
		WillReturnRows(sqlmock.NewRows(providerCols).
			AddRow(testProviderID, testModuleID, "aws", time.Now(), time.Now()))

	p, err := repo.Get(context.Background(), testModuleID, "aws")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || p.Name != "aws" {
		t.Fatalf("provider = %+v, want name aws", p)
	}
}

func TestProviderCreate_Duplicate(t *testing.T) {
	repo, mock := newProviderRepo(t)
	mock.ExpectQuery("INSERT INTO providers").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Provider{ModuleID: testModuleID, Name: "aws"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestProviderDelete_BlockedByVersions(t *testing.T) {
	repo, mock := newProviderRepo(t)
	mock.ExpectExec("DELETE FROM providers").
		WillReturnError(&pq.Error{Code: "23503"})

	_, err := repo.Delete(context.Background(), testProviderID)
	if !errors.Is(err, ErrRestricted) {
		t.Errorf("err = %v, want ErrRestricted", err)
	}
}

func TestProviderHasVersions(t *testing.T) {
	repo, mock := newProviderRepo(t)
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasVersions(context.Background(), testProviderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected exists = true")
	}
}
