package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/exercise-tracker/apiserver/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoUsersCollection     = "users"
	mongoExercisesCollection = "exercises"
)

type mongoUserDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d mongoUserDocument) toUser() types.User {
	return types.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type mongoExerciseDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"userId"`
	Description string             `bson:"description"`
	Duration    int                `bson:"duration"`
	Date        time.Time          `bson:"date"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d mongoExerciseDocument) toExercise() types.Exercise {
	return types.Exercise{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		Description: d.Description,
		Duration:    d.Duration,
		Date:        d.Date.UTC(),
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

// EnsureMongoIndexes creates the unique username index the user repository
// relies on for duplicate detection, plus the index backing log queries.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(mongoUsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = db.Collection(mongoExercisesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create exercises index: %w", err)
	}
	return nil
}

// MongoUserRepository handles persistence for users in MongoDB.
type MongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection(mongoUsersCollection)}
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.User{}, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) List(ctx context.Context) ([]types.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	var docs []mongoUserDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	users := make([]types.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toUser())
	}
	return users, nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	doc := mongoUserDocument{
		ID:        primitive.NewObjectID(),
		Username:  user.Username,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return types.User{}, mongoWriteErr(err, "username", user.Username)
	}
	return doc.toUser(), nil
}

// mongoWriteErr maps a duplicate key error (code 11000) to ErrDuplicate.
func mongoWriteErr(err error, field, value string) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s %q", ErrDuplicate, field, value)
	}
	return err
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (types.User, error) {
	var doc mongoUserDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return doc.toUser(), nil
}

// MongoExerciseRepository handles persistence for exercises in MongoDB.
type MongoExerciseRepository struct {
	collection *mongo.Collection
}

func NewMongoExerciseRepository(db *mongo.Database) *MongoExerciseRepository {
	return &MongoExerciseRepository{collection: db.Collection(mongoExercisesCollection)}
}

func (r *MongoExerciseRepository) Create(ctx context.Context, exercise types.Exercise) (types.Exercise, error) {
	doc := mongoExerciseDocument{
		ID:          primitive.NewObjectID(),
		UserID:      exercise.UserID,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        exercise.Date,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return types.Exercise{}, err
	}
	return doc.toExercise(), nil
}

func (r *MongoExerciseRepository) List(ctx context.Context, filter types.ExerciseFilter) ([]types.Exercise, error) {
	// createdAt is stored at millisecond precision; _id breaks the remaining ties.
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, exerciseQuery(filter), opts)
	if err != nil {
		return nil, err
	}

	var docs []mongoExerciseDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	exercises := make([]types.Exercise, 0, len(docs))
	for _, doc := range docs {
		exercises = append(exercises, doc.toExercise())
	}
	return exercises, nil
}

func exerciseQuery(filter types.ExerciseFilter) bson.M {
	query := bson.M{"userId": filter.UserID}
	dateRange := bson.M{}
	if filter.From != nil {
		dateRange["$gte"] = *filter.From
	}
	if filter.To != nil {
		dateRange["$lte"] = *filter.To
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}
	return query
}
