package database

import (
	"testing"

	"nft-vault/server/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return db, mock
}

func TestFindUserByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(1, "a@example.com"))

		user, err := FindUserByEmail(db, "a@example.com")
		if err != nil {
			t.Fatalf("FindUserByEmail: %v", err)
		}
		if user == nil || user.ID != 1 {
			t.Errorf("user = %+v", user)
		}
	})

	t.Run("absent returns nil without error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		user, err := FindUserByEmail(db, "missing@example.com")
		if err != nil {
			t.Fatalf("FindUserByEmail: %v", err)
		}
		if user != nil {
			t.Errorf("expected nil user, got %+v", user)
		}
	})

	t.Run("empty email short-circuits", func(t *testing.T) {
		db, _ := newMockDB(t)
		user, err := FindUserByEmail(db, "")
		if err != nil || user != nil {
			t.Errorf("got (%+v, %v), want (nil, nil)", user, err)
		}
	})
}

func TestFindInvoiceByKey(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE key =`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "key", "blockchain"}).
				AddRow(2, 9, "abc-123", "SOLANA"))

		invoice, err := FindInvoiceByKey(db, "abc-123")
		if err != nil {
			t.Fatalf("FindInvoiceByKey: %v", err)
		}
		if invoice == nil || invoice.UserID != 9 {
			t.Errorf("invoice = %+v", invoice)
		}
	})

	t.Run("absent returns nil without error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE key =`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		invoice, err := FindInvoiceByKey(db, "missing")
		if err != nil {
			t.Fatalf("FindInvoiceByKey: %v", err)
		}
		if invoice != nil {
			t.Errorf("expected nil invoice, got %+v", invoice)
		}
	})
}

func TestCreateInvoiceRoundTripAssets(t *testing.T) {
	db, mock := newMockDB(t)

	invoice := &models.Invoice{UserID: 1, Blockchain: "ETHEREUM", Key: "k-1"}
	assets := []models.InvoiceAsset{
		{Nft: "0xa/1", CollectionName: "Cool Cats", TxHash: "0xhash"},
	}
	if err := invoice.SetAssets(assets); err != nil {
		t.Fatalf("SetAssets: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "invoices"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectCommit()

	if err := CreateInvoice(db, invoice); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if invoice.ID != 5 {
		t.Errorf("invoice.ID = %d, want 5", invoice.ID)
	}

	got, err := invoice.GetAssets()
	if err != nil {
		t.Fatalf("GetAssets: %v", err)
	}
	if len(got) != 1 || got[0].CollectionName != "Cool Cats" {
		t.Errorf("assets = %+v", got)
	}
}

func TestListInvoicesByUser(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE user_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "key"}).
			AddRow(1, 3, "k-1").
			AddRow(2, 3, "k-2"))

	invoices, err := ListInvoicesByUser(db, 3)
	if err != nil {
		t.Fatalf("ListInvoicesByUser: %v", err)
	}
	if len(invoices) != 2 {
		t.Errorf("got %d invoices, want 2", len(invoices))
	}
}
