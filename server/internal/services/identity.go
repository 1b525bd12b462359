package services

import (
	"context"
	"fmt"
	"time"

	"nft-vault/server/database"
	"nft-vault/server/internal/models"
	"nft-vault/shared/apperrors"
	"nft-vault/shared/env"
	"nft-vault/shared/logger"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Claims is the JWT payload. The user id travels under "_id" to stay
// compatible with tokens the frontend already stores.
type Claims struct {
	UserID uint `json:"_id"`
	jwt.RegisteredClaims
}

// IdentityResolver maps verified external identities onto database users and
// issues session tokens for them.
type IdentityResolver struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenTTL  time.Duration
	appLogger *logger.Logger
}

func NewIdentityResolver(db *gorm.DB, appLogger *logger.Logger) (*IdentityResolver, error) {
	if env.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not configured")
	}
	ttl, err := time.ParseDuration(env.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_IN %q: %w", env.JWTExpiresIn, err)
	}
	return &IdentityResolver{
		db:        db,
		jwtSecret: []byte(env.JWTSecret),
		tokenTTL:  ttl,
		appLogger: appLogger,
	}, nil
}

// Resolve finds or creates the user a verified identity belongs to.
// sessionUser, when non-nil, is the already-authenticated user of the current
// request; a wallet identity then links the wallet to that user instead of
// creating a fresh account.
func (r *IdentityResolver) Resolve(ctx context.Context, identity VerifiedIdentity, sessionUser *models.User) (*models.User, error) {
	db := r.db.WithContext(ctx)

	switch identity.Provider {
	case ProviderWallet:
		return r.resolveWallet(db, identity, sessionUser)
	case ProviderTwitter:
		// Twitter hands us no email, so the lookup keys on the provider id.
		user, err := database.FindUserByTwitterID(db, identity.ExternalID)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
		user = &models.User{Name: identity.Name, TwitterID: identity.ExternalID}
		if err := database.CreateUser(db, user); err != nil {
			return nil, err
		}
		r.appLogger.Info("Created user from Twitter identity", "userId", user.ID)
		return user, nil
	case ProviderDiscord, ProviderGoogle, ProviderFacebook:
		return r.resolveByEmail(db, identity)
	default:
		return nil, apperrors.InvalidInputf("unsupported provider %q", identity.Provider)
	}
}

func (r *IdentityResolver) resolveWallet(db *gorm.DB, identity VerifiedIdentity, sessionUser *models.User) (*models.User, error) {
	if sessionUser != nil {
		// An authenticated session always claims the proven wallet, replacing
		// any address the user linked before.
		sessionUser.WalletAddress = identity.WalletAddress
		if err := database.SaveUser(db, sessionUser); err != nil {
			return nil, err
		}
		r.appLogger.Info("Linked wallet to session user", "userId", sessionUser.ID)
		return sessionUser, nil
	}
	user, err := database.FindUserByWalletAddress(db, identity.WalletAddress)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	user = &models.User{WalletAddress: identity.WalletAddress}
	if err := database.CreateUser(db, user); err != nil {
		return nil, err
	}
	r.appLogger.Info("Created user from wallet identity", "userId", user.ID)
	return user, nil
}

func (r *IdentityResolver) resolveByEmail(db *gorm.DB, identity VerifiedIdentity) (*models.User, error) {
	if identity.Email == "" {
		return nil, apperrors.VerificationFailedf("%s identity carries no email", identity.Provider)
	}
	user, err := database.FindUserByEmail(db, identity.Email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if setProviderID(user, identity) {
			if err := database.SaveUser(db, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}
	user = &models.User{Name: identity.Name, Email: identity.Email}
	setProviderID(user, identity)
	if err := database.CreateUser(db, user); err != nil {
		return nil, err
	}
	r.appLogger.Info("Created user from social identity", "provider", identity.Provider, "userId", user.ID)
	return user, nil
}

// setProviderID records the provider-scoped id on the user, returning true
// when the record changed.
func setProviderID(user *models.User, identity VerifiedIdentity) bool {
	switch identity.Provider {
	case ProviderDiscord:
		if user.DiscordID != identity.ExternalID {
			user.DiscordID = identity.ExternalID
			return true
		}
	case ProviderGoogle:
		if user.GoogleID != identity.ExternalID {
			user.GoogleID = identity.ExternalID
			return true
		}
	case ProviderFacebook:
		if user.FacebookID != identity.ExternalID {
			user.FacebookID = identity.ExternalID
			return true
		}
	case ProviderTwitter:
		if user.TwitterID != identity.ExternalID {
			user.TwitterID = identity.ExternalID
			return true
		}
	}
	return false
}

// IssueToken signs a session token for the user.
func (r *IdentityResolver) IssueToken(userID uint) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(r.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session token and returns the user id it names.
func (r *IdentityResolver) ParseToken(tokenString string) (uint, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.jwtSecret, nil
	})
	if err != nil {
		return 0, apperrors.VerificationFailedf("invalid token: %v", err)
	}
	if !token.Valid || claims.UserID == 0 {
		return 0, apperrors.VerificationFailedf("invalid token claims")
	}
	return claims.UserID, nil
}

// SignupWithPassword registers a password-credential user and returns the new
// user with a session token.
func (r *IdentityResolver) SignupWithPassword(ctx context.Context, name, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", apperrors.InvalidInputf("email and password are required")
	}
	db := r.db.WithContext(ctx)
	existing, err := database.FindUserByEmail(db, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", apperrors.InvalidInputf("an account with this email already exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}
	user := &models.User{Name: name, Email: email, Password: string(hash)}
	if err := database.CreateUser(db, user); err != nil {
		return nil, "", err
	}
	token, err := r.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	r.appLogger.Info("User signed up", "userId", user.ID)
	return user, token, nil
}

// LoginWithPassword authenticates an email/password pair.
func (r *IdentityResolver) LoginWithPassword(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", apperrors.InvalidInputf("email and password are required")
	}
	db := r.db.WithContext(ctx)
	user, err := database.FindUserByEmail(db, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil || user.Password == "" {
		return nil, "", apperrors.VerificationFailedf("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", apperrors.VerificationFailedf("invalid email or password")
	}
	token, err := r.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
