package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"nft-vault/server/internal/models"
	"nft-vault/shared/apperrors"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
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

func newTestResolver(t *testing.T, db *gorm.DB) *IdentityResolver {
	t.Helper()
	return &IdentityResolver{
		db:        db,
		jwtSecret: []byte("test-secret"),
		tokenTTL:  time.Hour,
		appLogger: newTestLogger(t),
	}
}

func TestResolveCreatesUserFromDiscordIdentity(t *testing.T) {
	db, mock := newMockDB(t)
	resolver := newTestResolver(t, db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	user, err := resolver.Resolve(context.Background(), VerifiedIdentity{
		Provider:   ProviderDiscord,
		ExternalID: "111",
		Email:      "d@example.com",
		Name:       "D User",
	}, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.ID != 7 {
		t.Errorf("user.ID = %d, want 7", user.ID)
	}
	if user.DiscordID != "111" {
		t.Errorf("DiscordID = %q", user.DiscordID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResolveReusesExistingEmailUser(t *testing.T) {
	db, mock := newMockDB(t)
	resolver := newTestResolver(t, db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "google_id"}).
			AddRow(3, "g@example.com", ""))
	// The missing provider id gets recorded on the existing row.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := resolver.Resolve(context.Background(), VerifiedIdentity{
		Provider:   ProviderGoogle,
		ExternalID: "g-9",
		Email:      "g@example.com",
	}, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.ID != 3 {
		t.Errorf("user.ID = %d, want 3", user.ID)
	}
	if user.GoogleID != "g-9" {
		t.Errorf("GoogleID = %q", user.GoogleID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResolveWalletLinksToSessionUser(t *testing.T) {
	db, mock := newMockDB(t)
	resolver := newTestResolver(t, db)

	sessionUser := &models.User{ID: 5, Email: "owner@example.com"}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := resolver.Resolve(context.Background(), VerifiedIdentity{
		Provider:      ProviderWallet,
		WalletAddress: "So1anaWa11et",
	}, sessionUser)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.ID != 5 {
		t.Errorf("user.ID = %d, want the session user", user.ID)
	}
	if user.WalletAddress != "So1anaWa11et" {
		t.Errorf("WalletAddress = %q", user.WalletAddress)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResolveWalletReplacesExistingLink(t *testing.T) {
	db, mock := newMockDB(t)
	resolver := newTestResolver(t, db)

	sessionUser := &models.User{ID: 5, Email: "owner@example.com", WalletAddress: "OldWallet"}

	// The session user keeps their row; only the wallet column changes.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := resolver.Resolve(context.Background(), VerifiedIdentity{
		Provider:      ProviderWallet,
		WalletAddress: "NewWallet",
	}, sessionUser)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.ID != 5 {
		t.Errorf("user.ID = %d, want the session user", user.ID)
	}
	if user.WalletAddress != "NewWallet" {
		t.Errorf("WalletAddress = %q, want the freshly proven wallet", user.WalletAddress)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResolveWalletCreatesUser(t *testing.T) {
	db, mock := newMockDB(t)
	resolver := newTestResolver(t, db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE wallet_address =`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	user, err := resolver.Resolve(context.Background(), VerifiedIdentity{
		Provider:      ProviderWallet,
		WalletAddress: "So1anaWa11et",
	}, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.ID != 11 || user.WalletAddress != "So1anaWa11et" {
		t.Errorf("unexpected user %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResolveTwitterUsesProviderID(t *testing.T) {
	db, mock := newMockDB(t)
	resolver := newTestResolver(t, db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE twitter_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "twitter_id"}).AddRow(8, "42"))

	user, err := resolver.Resolve(context.Background(), VerifiedIdentity{
		Provider:   ProviderTwitter,
		ExternalID: "42",
		Name:       "Bird Person",
	}, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.ID != 8 {
		t.Errorf("user.ID = %d, want 8", user.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	db, _ := newMockDB(t)
	resolver := newTestResolver(t, db)

	token, err := resolver.IssueToken(42)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	userID, err := resolver.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if userID != 42 {
		t.Errorf("ParseToken = %d, want 42", userID)
	}

	t.Run("tampered token rejected", func(t *testing.T) {
		parts := strings.Split(token, ".")
		tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]
		if _, err := resolver.ParseToken(tampered); !errors.Is(err, apperrors.ErrVerificationFailed) {
			t.Fatalf("expected ErrVerificationFailed, got %v", err)
		}
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		if _, err := resolver.ParseToken("not-a-jwt"); !errors.Is(err, apperrors.ErrVerificationFailed) {
			t.Fatalf("expected ErrVerificationFailed, got %v", err)
		}
	})
}

func TestPasswordSignupAndLogin(t *testing.T) {
	t.Run("signup rejects duplicate email", func(t *testing.T) {
		db, mock := newMockDB(t)
		resolver := newTestResolver(t, db)

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(2, "taken@example.com"))

		_, _, err := resolver.SignupWithPassword(context.Background(), "N", "taken@example.com", "hunter2")
		if !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("signup creates user and issues token", func(t *testing.T) {
		db, mock := newMockDB(t)
		resolver := newTestResolver(t, db)

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
		mock.ExpectCommit()

		user, token, err := resolver.SignupWithPassword(context.Background(), "N", "new@example.com", "hunter2")
		if err != nil {
			t.Fatalf("SignupWithPassword: %v", err)
		}
		if user.ID != 9 || token == "" {
			t.Errorf("user=%+v token=%q", user, token)
		}
		if user.Password == "hunter2" {
			t.Error("password stored in plaintext")
		}
	})

	t.Run("login verifies the stored hash", func(t *testing.T) {
		db, mock := newMockDB(t)
		resolver := newTestResolver(t, db)

		hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("bcrypt: %v", err)
		}
		rows := sqlmock.NewRows([]string{"id", "email", "password"}).
			AddRow(4, "u@example.com", string(hash))
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
			WillReturnRows(rows)

		user, token, err := resolver.LoginWithPassword(context.Background(), "u@example.com", "hunter2")
		if err != nil {
			t.Fatalf("LoginWithPassword: %v", err)
		}
		if user.ID != 4 || token == "" {
			t.Errorf("user=%+v token=%q", user, token)
		}
	})

	t.Run("login rejects a wrong password", func(t *testing.T) {
		db, mock := newMockDB(t)
		resolver := newTestResolver(t, db)

		hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("bcrypt: %v", err)
		}
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password"}).
				AddRow(4, "u@example.com", string(hash)))

		_, _, err = resolver.LoginWithPassword(context.Background(), "u@example.com", "wrong")
		if !errors.Is(err, apperrors.ErrVerificationFailed) {
			t.Fatalf("expected ErrVerificationFailed, got %v", err)
		}
	})
}
