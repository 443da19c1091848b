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

const resetCollection = "password_resets"

type MongoResetRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
	users  *mongo.Collection
}

func NewResetRepository(client *mongo.Client, db *mongo.Database) *MongoResetRepository {
	return &MongoResetRepository{
		client: client,
		coll:   db.Collection(resetCollection),
		users:  db.Collection(userCollection),
	}
}

type mongoResetRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Token     string             `bson:"token"`
	ExpiresAt time.Time          `bson:"expires_at"`
	Used      bool               `bson:"used"`
	CreatedAt time.Time          `bson:"created_at"`
}

// EnsureIndexes creates the unique token index. Safe to call on every startup.
func (r *MongoResetRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("reset indexes: %w", err)
	}
	return nil
}

func (r *MongoResetRepository) Insert(ctx context.Context, req *domain.PasswordResetRequest) error {
	uid, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	_, err = r.coll.InsertOne(ctx, mongoResetRequest{
		UserID:    uid,
		Token:     req.Token,
		ExpiresAt: req.ExpiresAt,
		Used:      false,
		CreatedAt: req.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert reset request: %w", err)
	}
	return nil
}

// Redeem claims the request and replaces the owning user's password hash in a
// single transaction. The claim itself is a FindOneAndUpdate that flips used
// from false to true, so two concurrent redeems of one token cannot both
// succeed; if the user write fails the claim is rolled back with it.
func (r *MongoResetRepository) Redeem(ctx context.Context, token, newPasswordHash string, now time.Time) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		filter := bson.M{
			"token":      token,
			"used":       false,
			"expires_at": bson.M{"$gt": now},
		}

		var req mongoResetRequest
		err := r.coll.FindOneAndUpdate(sc, filter, bson.M{"$set": bson.M{"used": true}}).Decode(&req)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, domain.ErrInvalidToken
			}
			return nil, fmt.Errorf("claim reset request: %w", err)
		}

		res, err := r.users.UpdateByID(sc, req.UserID, bson.M{"$set": bson.M{
			"password_hash": newPasswordHash,
			"updated_at":    now,
		}})
		if err != nil {
			return nil, fmt.Errorf("update password: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrUserNotFound
		}
		return nil, nil
	})
	return err
}
