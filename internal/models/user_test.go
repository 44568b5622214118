package models_test

import (
	"anonrelay/backend/internal/models"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSenderUser verifies that a sender converts into a user row with the same identity.
func TestSenderUser(t *testing.T) {
	// Arrange
	sender := models.Sender{ID: 111, Username: "alice", FirstName: "Alice", LastName: "Doe", LanguageCode: "en"}

	// Act
	user := sender.User()

	// Assert
	assert.Equal(t, int64(111), user.UserID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Alice", user.FirstName)
	assert.Equal(t, "Doe", user.LastName)
	assert.True(t, user.RegisteredAt.IsZero(), "RegisteredAt is filled by GORM on insert")
}

// TestModelStructTags verifies that primary keys are not auto-incremented for Telegram IDs.
func TestModelStructTags(t *testing.T) {
	userField, found := reflect.TypeOf(models.User{}).FieldByName("UserID")
	assert.True(t, found)
	assert.Contains(t, userField.Tag.Get("gorm"), "primaryKey")
	assert.Contains(t, userField.Tag.Get("gorm"), "autoIncrement:false")

	banField, found := reflect.TypeOf(models.Ban{}).FieldByName("UserID")
	assert.True(t, found)
	assert.Contains(t, banField.Tag.Get("gorm"), "autoIncrement:false")

	anonField, found := reflect.TypeOf(models.Message{}).FieldByName("AnonID")
	assert.True(t, found)
	assert.Contains(t, anonField.Tag.Get("gorm"), "index")
}

// TestTableNames keeps the persisted layout stable.
func TestTableNames(t *testing.T) {
	assert.Equal(t, "users", models.User{}.TableName())
	assert.Equal(t, "messages", models.Message{}.TableName())
	assert.Equal(t, "banned_users", models.Ban{}.TableName())
}
