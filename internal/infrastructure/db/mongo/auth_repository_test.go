package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMongoUserToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	u := mongoUser{
		ID:           oid,
		Name:         "A",
		Email:        "a@x.com",
		PasswordHash: "hash",
		Department:   "CSE",
		Role:         "teacher",
		CreatedAt:    created.Unix(),
	}.toDomain()

	if u.ID != oid.Hex() {
		t.Errorf("expected id %s, got %s", oid.Hex(), u.ID)
	}
	if u.Email != "a@x.com" || u.Department != "CSE" || u.Role != "teacher" {
		t.Errorf("fields not copied: %+v", u)
	}
	if !u.CreatedAt.Equal(created) {
		t.Errorf("expected created %v, got %v", created, u.CreatedAt)
	}
	if !u.UpdatedAt.IsZero() {
		t.Errorf("zero unix timestamp should map to zero time, got %v", u.UpdatedAt)
	}
}
