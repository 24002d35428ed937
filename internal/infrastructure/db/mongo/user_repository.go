package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leavehub/approval-system/internal/core/domain"
)

const usersCollection = "users"

type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(usersCollection)}
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
	Email        string             `bson:"email,omitempty"`
	PhoneNumber  string             `bson:"phone_number,omitempty"`
	BirthDate    string             `bson:"birth_date,omitempty"`
	AvatarURL    string             `bson:"avatar_url,omitempty"`
	Nationality  string             `bson:"nationality,omitempty"`
	Address      string             `bson:"address,omitempty"`
	SocialQQ     string             `bson:"social_qq,omitempty"`
	SocialWechat string             `bson:"social_wechat,omitempty"`

	Enabled            bool `bson:"enabled"`
	Locked             bool `bson:"locked"`
	CredentialsExpired bool `bson:"credentials_expired"`

	CreatedAt int64 `bson:"created_at"`
	UpdatedAt int64 `bson:"updated_at"`
}

// EnsureIndexes creates the unique indexes backing duplicate detection.
// Username lookups are exact-match and case-sensitive. The email index is
// sparse because email is optional.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uk_username"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uk_email"),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := mongoUser{
		Username:           user.Username,
		PasswordHash:       user.PasswordHash,
		Email:              user.Email,
		PhoneNumber:        user.PhoneNumber,
		BirthDate:          user.BirthDate,
		AvatarURL:          user.AvatarURL,
		Nationality:        user.Nationality,
		Address:            user.Address,
		SocialQQ:           user.SocialQQ,
		SocialWechat:       user.SocialWechat,
		Enabled:            user.Enabled,
		Locked:             user.Locked,
		CredentialsExpired: user.CredentialsExpired,
		CreatedAt:          user.CreatedAt.Unix(),
		UpdatedAt:          user.UpdatedAt.Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// The race between the service-level existence check and this
			// insert resolves here; the index name tells us the field.
			if strings.Contains(err.Error(), "uk_email") {
				return nil, domain.ErrEmailTaken
			}
			return nil, domain.ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return r.FindByUsername(ctx, user.Username)
}

func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *MongoUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"username": username}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count by username: %w", err)
	}
	return n > 0, nil
}

func (r *MongoUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count by email: %w", err)
	}
	return n > 0, nil
}

func (mu *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:                 mu.ID.Hex(),
		Username:           mu.Username,
		PasswordHash:       mu.PasswordHash,
		Email:              mu.Email,
		PhoneNumber:        mu.PhoneNumber,
		BirthDate:          mu.BirthDate,
		AvatarURL:          mu.AvatarURL,
		Nationality:        mu.Nationality,
		Address:            mu.Address,
		SocialQQ:           mu.SocialQQ,
		SocialWechat:       mu.SocialWechat,
		Enabled:            mu.Enabled,
		Locked:             mu.Locked,
		CredentialsExpired: mu.CredentialsExpired,
		CreatedAt:          unixToTime(mu.CreatedAt),
		UpdatedAt:          unixToTime(mu.UpdatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
