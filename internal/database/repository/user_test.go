package repository_test

import (
	"database/sql"
	"testing"

	"github.com/artur/whyspent-bot/internal/database"
	"github.com/artur/whyspent-bot/internal/database/models"
	"github.com/artur/whyspent-bot/internal/database/repository"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test db: %v", err)
	}

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return db.DB
}

func TestUserRepository_UpsertFromTelegram(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := repository.NewUserRepository(db, "en")

	tgUser := &tgbotapi.User{
		ID:           12345,
		FirstName:    "Test",
		UserName:     "testuser",
		LanguageCode: "ru",
	}

	// First insert
	user1, err := repo.UpsertFromTelegram(tgUser)
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	if user1 == nil {
		t.Fatal("Expected user to be returned")
	}

	if user1.ID != 12345 {
		t.Errorf("Expected user_id 12345, got %d", user1.ID)
	}

	if user1.Language != "en" {
		t.Errorf("New users should get the default language, got %s", user1.Language)
	}

	if len(user1.Flags) != 0 {
		t.Errorf("New users should have no flags, got %v", user1.Flags)
	}

	// Language changes must survive the next upsert
	if err := repo.SetLanguage(12345, "ru"); err != nil {
		t.Fatalf("Failed to set language: %v", err)
	}

	tgUser.FirstName = "Updated"
	user2, err := repo.UpsertFromTelegram(tgUser)
	if err != nil {
		t.Fatalf("Failed to update user: %v", err)
	}

	if user2.FirstName != "Updated" {
		t.Errorf("Expected first_name 'Updated', got %s", user2.FirstName)
	}

	if user2.Language != "ru" {
		t.Errorf("Upsert must not reset language, got %s", user2.Language)
	}

	if !user2.JoinedAt.Equal(user1.JoinedAt) {
		t.Errorf("joined_at changed: %v vs %v", user2.JoinedAt, user1.JoinedAt)
	}

	if user2.LastActiveAt.Before(user1.LastActiveAt) {
		t.Errorf("last_active_at went backwards")
	}
}

func TestUserRepository_UpsertFromTelegram_NilUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := repository.NewUserRepository(db, "en")

	_, err := repo.UpsertFromTelegram(nil)
	if err == nil {
		t.Error("Expected error for nil user")
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := repository.NewUserRepository(db, "en")

	// Get non-existent user
	user, err := repo.GetByID(99999)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("Expected nil for non-existent user")
	}

	// Insert and retrieve
	_, err = repo.UpsertFromTelegram(&tgbotapi.User{ID: 12345, FirstName: "Test"})
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	user, err = repo.GetByID(12345)
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if user == nil || user.ID != 12345 {
		t.Errorf("Failed to retrieve correct user")
	}
	if user.Username != "" {
		t.Errorf("Expected empty username, got %q", user.Username)
	}
}

func TestUserRepository_UpdateFlags(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := repository.NewUserRepository(db, "en")
	repo.UpsertFromTelegram(&tgbotapi.User{ID: 1, FirstName: "User1"})

	flags := models.Flags{models.FlagAIEnabled: true, "future_flag": false}
	if err := repo.UpdateFlags(1, flags); err != nil {
		t.Fatalf("Failed to update flags: %v", err)
	}

	user, err := repo.GetByID(1)
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if !user.Flags.Get(models.FlagAIEnabled) {
		t.Error("Expected ai_enabled to be stored")
	}
	if _, ok := user.Flags["future_flag"]; !ok {
		t.Error("Expected unknown flag keys to be preserved")
	}
}

func TestUserRepository_MalformedFlags(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := repository.NewUserRepository(db, "en")
	repo.UpsertFromTelegram(&tgbotapi.User{ID: 1, FirstName: "User1"})

	if _, err := db.Exec(`UPDATE users SET flags = 'not json' WHERE user_id = 1`); err != nil {
		t.Fatalf("Failed to corrupt flags: %v", err)
	}

	user, err := repo.GetByID(1)
	if err != nil {
		t.Fatalf("Malformed flags must not fail the read: %v", err)
	}
	if len(user.Flags) != 0 {
		t.Errorf("Expected empty flags, got %v", user.Flags)
	}
}

func TestUserRepository_FlagsWithForeignValues(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := repository.NewUserRepository(db, "en")
	repo.UpsertFromTelegram(&tgbotapi.User{ID: 1, FirstName: "User1"})

	if _, err := db.Exec(`UPDATE users SET flags = '{"feedback_mode": true, "theme": "dark"}' WHERE user_id = 1`); err != nil {
		t.Fatalf("Failed to write flags: %v", err)
	}

	user, err := repo.GetByID(1)
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if !user.Flags.Get(models.FlagFeedbackMode) {
		t.Error("Known flag must survive a non-boolean sibling")
	}
	if user.Flags["theme"] != "dark" {
		t.Errorf("theme = %v, want dark", user.Flags["theme"])
	}
}

func TestUserRepository_ListByLanguage(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := repository.NewUserRepository(db, "en")

	repo.UpsertFromTelegram(&tgbotapi.User{ID: 3, FirstName: "User3"})
	repo.UpsertFromTelegram(&tgbotapi.User{ID: 1, FirstName: "User1"})
	repo.UpsertFromTelegram(&tgbotapi.User{ID: 2, FirstName: "User2"})
	repo.SetLanguage(2, "ru")

	all, err := repo.ListAll()
	if err != nil {
		t.Fatalf("Failed to list users: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 users, got %d", len(all))
	}

	english, err := repo.ListByLanguage("en")
	if err != nil {
		t.Fatalf("Failed to list users: %v", err)
	}
	if len(english) != 2 {
		t.Fatalf("Expected 2 english users, got %d", len(english))
	}
	for _, u := range english {
		if u.Language != "en" {
			t.Errorf("Unexpected language %s for user %d", u.Language, u.ID)
		}
	}

	russian, _ := repo.ListByLanguage("ru")
	if len(russian) != 1 || russian[0].ID != 2 {
		t.Errorf("Expected only user 2 in ru, got %v", russian)
	}

	none, _ := repo.ListByLanguage("fr")
	if len(none) != 0 {
		t.Errorf("Expected no users for fr, got %d", len(none))
	}
}

func TestUserRepository_Count(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := repository.NewUserRepository(db, "en")

	// Initially zero
	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users, got %d", count)
	}

	// Add users
	repo.UpsertFromTelegram(&tgbotapi.User{ID: 1, FirstName: "User1"})
	repo.UpsertFromTelegram(&tgbotapi.User{ID: 2, FirstName: "User2"})
	repo.UpsertFromTelegram(&tgbotapi.User{ID: 1, FirstName: "User1"})

	count, err = repo.Count()
	if err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 users, got %d", count)
	}
}
