package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewUser(t *testing.T) {
	// Test valid user creation
	validName := "Test User"
	validEmail := "test@example.com"
	validPassword := "password123"

	user, err := NewUser(validName, validEmail, validPassword)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if user.Email != validEmail {
		t.Errorf("Expected email %s, got %s", validEmail, user.Email)
	}

	if user.RemainingUpdates != 3 {
		t.Errorf("Expected 3 remaining updates, got %d", user.RemainingUpdates)
	}

	if user.RemainingDeletes != 3 {
		t.Errorf("Expected 3 remaining deletes, got %d", user.RemainingDeletes)
	}

	if !user.NotificationsOn {
		t.Error("Expected notifications to default to on")
	}

	if user.TaskStrikes != 0 {
		t.Errorf("Expected 0 task strikes, got %d", user.TaskStrikes)
	}

	if user.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	if user.UpdatedAt.IsZero() {
		t.Error("Expected non-zero UpdatedAt time")
	}

	// Test invalid name
	_, err = NewUser("", validEmail, validPassword)
	if err != ErrEmptyUserName {
		t.Errorf("Expected error %v, got %v", ErrEmptyUserName, err)
	}

	// Test invalid email
	_, err = NewUser(validName, "", validPassword)
	if err != ErrEmptyEmail {
		t.Errorf("Expected error %v, got %v", ErrEmptyEmail, err)
	}

	_, err = NewUser(validName, "invalidemail", validPassword)
	if err != ErrInvalidEmail {
		t.Errorf("Expected error %v, got %v", ErrInvalidEmail, err)
	}

	// Test invalid password
	_, err = NewUser(validName, validEmail, "short")
	if err != ErrPasswordTooShort {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooShort, err)
	}
}

func TestUserValidate(t *testing.T) {
	validUser := User{
		ID:             uuid.New(),
		Name:           "Test User",
		Email:          "test@example.com",
		HashedPassword: "hashedpassword123",
	}

	// Test valid user
	if err := validUser.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	// Test invalid ID
	invalidUser := validUser
	invalidUser.ID = uuid.Nil
	if err := invalidUser.Validate(); err != ErrEmptyUserID {
		t.Errorf("Expected error %v, got %v", ErrEmptyUserID, err)
	}

	// Test invalid email
	invalidUser = validUser
	invalidUser.Email = "invalidemail"
	if err := invalidUser.Validate(); err != ErrInvalidEmail {
		t.Errorf("Expected error %v, got %v", ErrInvalidEmail, err)
	}

	// Test missing passwords
	invalidUser = validUser
	invalidUser.HashedPassword = ""
	if err := invalidUser.Validate(); err != ErrEmptyPassword {
		t.Errorf("Expected error %v, got %v", ErrEmptyPassword, err)
	}

	// Test overlong plaintext password
	invalidUser = validUser
	invalidUser.Password = string(make([]byte, 73))
	if err := invalidUser.Validate(); err != ErrPasswordTooLong {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooLong, err)
	}
}

func TestUserBanned(t *testing.T) {
	user := User{TaskStrikes: StrikeThreshold - 1}
	if user.Banned() {
		t.Error("Expected user below threshold not to be banned")
	}

	user.TaskStrikes = StrikeThreshold
	if !user.Banned() {
		t.Error("Expected user at threshold to be banned")
	}

	user.TaskStrikes = StrikeThreshold + 1
	if !user.Banned() {
		t.Error("Expected user above threshold to be banned")
	}
}

func TestValidateEmailFormat(t *testing.T) {
	validEmails := []string{
		"user@example.com",
		"user.name@example.com",
		"user+tag@example.com",
		"user@sub.example.com",
	}

	invalidEmails := []string{
		"",
		"userexample.com",
		"user@",
		"@example.com",
		"user@.com",
		"user@example",
	}

	for _, email := range validEmails {
		if !validateEmailFormat(email) {
			t.Errorf("Expected email %s to be valid", email)
		}
	}

	for _, email := range invalidEmails {
		if validateEmailFormat(email) {
			t.Errorf("Expected email %s to be invalid", email)
		}
	}
}
