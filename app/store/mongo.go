package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vibast-solutions/authsvc/app/entity"
)

// MongoStore keeps each user as a single document with the refresh-token
// set embedded as a string array, so membership changes are one atomic
// update. A unique index on `email` backs the duplicate check.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		users:  client.Database(database).Collection("users"),
	}
}

// EnsureIndexes creates the unique email index and the secondary role
// index. Call once at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
	})
	return err
}

func (s *MongoStore) Create(ctx context.Context, user *entity.User) error {
	doc := *user
	doc.Email = NormalizeEmail(user.Email)
	if doc.RefreshTokens == nil {
		doc.RefreshTokens = []string{}
	}

	_, err := s.users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	user := &entity.User{}
	err := s.users.FindOne(ctx, filter).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, update UserUpdate) error {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.AvatarURL != nil {
		set["avatar_url"] = *update.AvatarURL
	}
	if update.PasswordHash != nil {
		set["password_hash"] = *update.PasswordHash
	}
	if update.Role != nil {
		set["role"] = *update.Role
	}
	if update.IsEmailVerified != nil {
		set["is_email_verified"] = *update.IsEmailVerified
	}
	if update.IsActive != nil {
		set["is_active"] = *update.IsActive
	}
	if update.LastLoginAt != nil {
		set["last_login_at"] = *update.LastLoginAt
	}
	if len(set) == 0 {
		return nil
	}
	set["updated_at"] = time.Now()

	result, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	result, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, filter ListFilter) ([]*entity.User, int, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.IsActive != nil {
		query["is_active"] = *filter.IsActive
	}

	total, err := s.users.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	offset, limit := filter.limits()
	cursor, err := s.users.Find(ctx, query, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	users := make([]*entity.User, 0, limit)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, int(total), nil
}

func (s *MongoStore) AddRefreshToken(ctx context.Context, id, token string) error {
	result, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"refresh_tokens": token}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveRefreshToken is a single $pull, so of two racing rotations only one
// observes a modified document.
func (s *MongoStore) RemoveRefreshToken(ctx context.Context, id, token string) (bool, error) {
	result, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$pull": bson.M{"refresh_tokens": token}},
	)
	if err != nil {
		return false, err
	}
	if result.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return result.ModifiedCount > 0, nil
}

func (s *MongoStore) RemoveAllRefreshTokens(ctx context.Context, id string) error {
	result, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"refresh_tokens": []string{}}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_login_at": at}},
	)
	return err
}

func (s *MongoStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}
