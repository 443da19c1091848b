package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oceanauth/auth-api/internal/core/domain"
)

const userCollection = "users"

type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(userCollection)}
}

type mongoUser struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Email             string             `bson:"email"`
	PasswordHash      string             `bson:"password_hash,omitempty"`
	FullName          string             `bson:"full_name,omitempty"`
	IsActive          bool               `bson:"is_active"`
	EmailVerified     bool               `bson:"email_verified"`
	VerificationToken string             `bson:"verification_token,omitempty"`
	VerificationExp   *time.Time         `bson:"verification_token_expires,omitempty"`
	GoogleID          string             `bson:"google_id,omitempty"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

func (mu *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:                mu.ID.Hex(),
		Email:             mu.Email,
		PasswordHash:      mu.PasswordHash,
		FullName:          mu.FullName,
		IsActive:          mu.IsActive,
		EmailVerified:     mu.EmailVerified,
		VerificationToken: mu.VerificationToken,
		VerificationExp:   mu.VerificationExp,
		GoogleID:          mu.GoogleID,
		CreatedAt:         mu.CreatedAt,
		UpdatedAt:         mu.UpdatedAt,
	}
}

// EnsureIndexes creates the unique email index and the sparse unique index on
// the pending verification token. Safe to call on every startup.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "verification_token", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *MongoUserRepository) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := mongoUser{
		Email:             user.Email,
		PasswordHash:      user.PasswordHash,
		FullName:          user.FullName,
		IsActive:          user.IsActive,
		EmailVerified:     user.EmailVerified,
		VerificationToken: user.VerificationToken,
		VerificationExp:   user.VerificationExp,
		GoogleID:          user.GoogleID,
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *MongoUserRepository) SetVerificationToken(ctx context.Context, userID, token string, expires time.Time) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"verification_token":         token,
		"verification_token_expires": expires,
		"updated_at":                 time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("set verification token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// RedeemVerificationToken activates the account and clears its token in one
// FindOneAndUpdate, so redemption, activation and invalidation cannot be torn
// apart by a concurrent redeem of the same token.
func (r *MongoUserRepository) RedeemVerificationToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	filter := bson.M{
		"verification_token":         token,
		"verification_token_expires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"is_active":      true,
			"email_verified": true,
			"updated_at":     now,
		},
		"$unset": bson.M{
			"verification_token":         "",
			"verification_token_expires": "",
		},
	}

	var mu mongoUser
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&mu)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("redeem verification token: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
