package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/VKx64/Farely-Backend/internal/models"
)

type mongoUserRepo struct {
	col *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database, collection string) UserRepository {
	col := db.Collection(collection)
	// absence does not collide: sparse indexes skip documents without the field
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	})
	return &mongoUserRepo{col: col}
}

func isDuplicateKey(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}

func identifierFilter(u *models.User) bson.M {
	if u.Email != "" {
		return bson.M{"email": u.Email}
	}
	return bson.M{"phone": u.Phone}
}

func fieldFor(method models.ContactMethod) string {
	if method == models.ContactPhone {
		return "phone"
	}
	return "email"
}

func (r *mongoUserRepo) CreateIfAbsent(ctx context.Context, u *models.User) error {
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt

	checkAndInsert := func(sc mongo.SessionContext) (interface{}, error) {
		err := r.col.FindOne(sc, identifierFilter(u)).Err()
		if err == nil {
			return nil, ErrUserExists
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		return r.col.InsertOne(sc, u)
	}

	session, err := r.col.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	res, err := session.WithTransaction(ctx, checkAndInsert)
	if err != nil {
		if errors.Is(err, ErrUserExists) || isDuplicateKey(err) {
			return ErrUserExists
		}
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == 20 {
			// standalone deployments reject transactions; the unique indexes
			// still enforce the invariant
			return r.insertDirect(ctx, u)
		}
		return err
	}

	u.ID = res.(*mongo.InsertOneResult).InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoUserRepo) insertDirect(ctx context.Context, u *models.User) error {
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrUserExists
		}
		return err
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

var withoutSecret = options.FindOne().SetProjection(bson.M{"password_hash": 0})

func (r *mongoUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	var u models.User
	err = r.col.FindOne(ctx, bson.M{"_id": objID}, withoutSecret).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *mongoUserRepo) FindByIdentifier(ctx context.Context, method models.ContactMethod, value string) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{fieldFor(method): value}, withoutSecret).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *mongoUserRepo) FindByIdentifierWithSecret(ctx context.Context, method models.ContactMethod, value string) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{fieldFor(method): value}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *mongoUserRepo) SetChallenge(ctx context.Context, id string, code string, expiresAt time.Time) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}
	res, err := r.col.UpdateByID(ctx, objID, bson.M{"$set": bson.M{
		"otp_code":       code,
		"otp_expires_at": expiresAt,
		"updated_at":     time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *mongoUserRepo) ConsumeChallenge(ctx context.Context, method models.ContactMethod, value, code string, now time.Time) (*models.User, error) {
	verifiedFlag := "email_verified"
	if method == models.ContactPhone {
		verifiedFlag = "phone_verified"
	}

	filter := bson.M{
		fieldFor(method): value,
		"otp_code":       code,
		"otp_expires_at": bson.M{"$gte": now},
	}
	update := bson.M{
		"$set": bson.M{
			verifiedFlag: true,
			"status":     models.StatusVerified,
			"updated_at": now.UTC(),
		},
		"$unset": bson.M{"otp_code": "", "otp_expires_at": ""},
	}

	var u models.User
	err := r.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(bson.M{"password_hash": 0}),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrChallengeNotMatched
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *mongoUserRepo) Update(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.col.UpdateByID(ctx, u.ID, bson.M{"$set": u})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *mongoUserRepo) List(ctx context.Context, page, limit int64) ([]*models.User, int64, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetProjection(bson.M{"password_hash": 0})

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var users []*models.User
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, 0, err
		}
		users = append(users, &u)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *mongoUserRepo) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
