package main

import (
	"database/sql"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
)

// Open a fresh temp database with the schema applied.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "minitwit-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	dbh, err := openDB(tmpFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { dbh.Close() })

	if err := initSchema(dbh, "schema.sql"); err != nil {
		t.Fatal(err)
	}
	return dbh
}

func validForm() registerForm {
	return registerForm{
		Username:  "bob",
		Email:     "bob@example.com",
		Password:  "secret12",
		Password2: "secret12",
	}
}

func TestValidateRegisterForm(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*registerForm)
		field   string
		message string
	}{
		{"empty username", func(f *registerForm) { f.Username = "" },
			"username", "You have to enter a username"},
		{"long username", func(f *registerForm) { f.Username = strings.Repeat("a", 17) },
			"username", "The username must be at most 16 characters"},
		{"empty email", func(f *registerForm) { f.Email = "" },
			"email", "You have to enter a valid email address"},
		{"long email", func(f *registerForm) { f.Email = strings.Repeat("a", 30) + "@b.c" },
			"email", "The email address must be at most 32 characters"},
		{"email without at sign", func(f *registerForm) { f.Email = "broken" },
			"email", "You have to enter a valid email address"},
		{"empty password", func(f *registerForm) { f.Password = "" },
			"password", "You have to enter a password"},
		{"long password", func(f *registerForm) { f.Password = strings.Repeat("x", 33); f.Password2 = f.Password },
			"password", "The password must be at most 32 characters"},
		{"empty confirmation", func(f *registerForm) { f.Password2 = "" },
			"password2", "Please confirm your password"},
		{"mismatched confirmation", func(f *registerForm) { f.Password2 = "different" },
			"password2", "The two passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)
			errs := validateRegisterForm(form)
			if got := errs[tt.field]; got != tt.message {
				t.Errorf("field %q: got %q, want %q", tt.field, got, tt.message)
			}
		})
	}
}

func TestValidateRegisterFormValid(t *testing.T) {
	if errs := validateRegisterForm(validForm()); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

// One failing field must not hide the others.
func TestValidateRegisterFormAccumulates(t *testing.T) {
	errs := validateRegisterForm(registerForm{})
	want := map[string]string{
		"username":  "You have to enter a username",
		"email":     "You have to enter a valid email address",
		"password":  "You have to enter a password",
		"password2": "Please confirm your password",
	}
	if len(errs) != len(want) {
		t.Fatalf("expected %d errors, got %d: %v", len(want), len(errs), errs)
	}
	for field, message := range want {
		if errs[field] != message {
			t.Errorf("field %q: got %q, want %q", field, errs[field], message)
		}
	}
}

func TestRegisterUser(t *testing.T) {
	dbh := setupTestDB(t)

	outcome, err := registerUser(dbh, validForm())
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Redirect != "/login" {
		t.Errorf("expected redirect to /login, got %q", outcome.Redirect)
	}
	if outcome.Flash != "You were successfully registered and can login now" {
		t.Errorf("unexpected flash message %q", outcome.Flash)
	}

	// Re-query: the stored record matches the submission, minus the plaintext.
	u, err := findUserByUsername(dbh, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if u == nil {
		t.Fatal("expected bob to exist after registration")
	}
	if u.Username != "bob" || u.Email != "bob@example.com" {
		t.Errorf("stored user %q/%q does not match submission", u.Username, u.Email)
	}
	if u.PwHash == "secret12" {
		t.Error("password stored in plaintext")
	}
	if !checkPassword(u.PwHash, "secret12") {
		t.Error("stored hash does not verify against the submitted password")
	}
}

func TestRegisterUserDuplicate(t *testing.T) {
	dbh := setupTestDB(t)

	if _, err := registerUser(dbh, validForm()); err != nil {
		t.Fatal(err)
	}

	form := validForm()
	form.Email = "other@example.com"
	outcome, err := registerUser(dbh, form)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Redirect != "" {
		t.Error("expected redisplay, got a redirect")
	}
	if outcome.Errors["username"] != "The username is already taken" {
		t.Errorf("got %q, want duplicate-username error", outcome.Errors["username"])
	}

	var count int
	if err := dbh.QueryRow("SELECT COUNT(*) FROM user WHERE username = ?", "bob").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected exactly one bob, found %d", count)
	}
}

func TestRegisterUserInvalidFormTouchesNoStore(t *testing.T) {
	dbh := setupTestDB(t)

	form := validForm()
	form.Password2 = "different"
	outcome, err := registerUser(dbh, form)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcome.Errors) == 0 {
		t.Fatal("expected validation errors")
	}

	var count int
	if err := dbh.QueryRow("SELECT COUNT(*) FROM user").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected no users after failed validation, found %d", count)
	}
}

// The uniqueness check is read-then-write; the UNIQUE constraint settles
// races. Exactly one of two concurrent submissions may win.
func TestRegisterUserConcurrentSameUsername(t *testing.T) {
	dbh := setupTestDB(t)

	const attempts = 2
	outcomes := make([]registerOutcome, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = registerUser(dbh, validForm())
		}(i)
	}
	wg.Wait()

	successes := 0
	for i := 0; i < attempts; i++ {
		if errs[i] == nil && outcomes[i].Redirect != "" {
			successes++
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly one successful registration, got %d", successes)
	}

	var count int
	if err := dbh.QueryRow("SELECT COUNT(*) FROM user WHERE username = ?", "bob").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected exactly one bob row, found %d", count)
	}
}

func TestInsertUserUniqueViolation(t *testing.T) {
	dbh := setupTestDB(t)

	u := &User{Username: "bob", Email: "bob@example.com", PwHash: hashPassword("x")}
	if err := insertUser(dbh, u); err != nil {
		t.Fatal(err)
	}
	if u.UserID == 0 {
		t.Error("expected generated id to be written back")
	}

	dup := &User{Username: "bob", Email: "dup@example.com", PwHash: hashPassword("y")}
	if err := insertUser(dbh, dup); !errors.Is(err, errUsernameTaken) {
		t.Errorf("expected errUsernameTaken, got %v", err)
	}
}

// SQLite's default BINARY collation: usernames differing only in case are
// distinct users.
func TestFindUserByUsernameCaseSensitive(t *testing.T) {
	dbh := setupTestDB(t)

	if err := insertUser(dbh, &User{Username: "Bob", Email: "bob@example.com", PwHash: "h"}); err != nil {
		t.Fatal(err)
	}

	u, err := findUserByUsername(dbh, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if u != nil {
		t.Error("expected lookup of \"bob\" to miss \"Bob\"")
	}
}
