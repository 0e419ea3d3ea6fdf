package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/oakline/storefront/pkg/models"
)

// GetUserBySubject resolves an identity-provider subject to the local user
// record, or (nil, nil) when the subject has never been seen.
func (s *Store) GetUserBySubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	err := s.collection("users").FindOne(ctx, bson.M{"oidc_subject": subject}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var user models.User
	err := s.collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	user.SetTimestamps()
	if _, err := s.collection("users").InsertOne(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
