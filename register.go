package main

import (
	"database/sql"
	"errors"
	"strings"
)

// registerForm carries the submitted registration fields.
type registerForm struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

// fieldErrors maps a form field to its first failing constraint's message.
type fieldErrors map[string]string

func (e fieldErrors) add(field, message string) {
	if _, ok := e[field]; !ok {
		e[field] = message
	}
}

// registerOutcome tells the handler what to do next: redisplay the form with
// field errors, or redirect with a flash message.
type registerOutcome struct {
	Errors   fieldErrors
	Redirect string
	Flash    string
}

func validateRegisterForm(f registerForm) fieldErrors {
	errs := fieldErrors{}

	if f.Username == "" {
		errs.add("username", "You have to enter a username")
	} else if len(f.Username) > 16 {
		errs.add("username", "The username must be at most 16 characters")
	}

	if f.Email == "" {
		errs.add("email", "You have to enter a valid email address")
	} else if len(f.Email) > 32 {
		errs.add("email", "The email address must be at most 32 characters")
	} else if !strings.Contains(f.Email, "@") {
		errs.add("email", "You have to enter a valid email address")
	}

	if f.Password == "" {
		errs.add("password", "You have to enter a password")
	} else if len(f.Password) > 32 {
		errs.add("password", "The password must be at most 32 characters")
	}

	if f.Password2 == "" {
		errs.add("password2", "Please confirm your password")
	} else if len(f.Password2) > 32 {
		errs.add("password2", "The password must be at most 32 characters")
	} else if f.Password2 != f.Password {
		errs.add("password2", "The two passwords do not match")
	}

	return errs
}

// registerUser validates the form, checks username uniqueness and creates
// the user. Validation and duplicate-username failures come back inside the
// outcome; only a store failure is returned as an error, in which case no
// user was created.
func registerUser(dbh *sql.DB, f registerForm) (registerOutcome, error) {
	if errs := validateRegisterForm(f); len(errs) > 0 {
		return registerOutcome{Errors: errs}, nil
	}

	existing, err := findUserByUsername(dbh, f.Username)
	if err != nil {
		return registerOutcome{}, err
	}
	if existing != nil {
		errs := fieldErrors{}
		errs.add("username", "The username is already taken")
		return registerOutcome{Errors: errs}, nil
	}

	user := &User{
		Username: f.Username,
		Email:    f.Email,
		PwHash:   hashPassword(f.Password),
	}
	if err := insertUser(dbh, user); err != nil {
		// Two submissions can race past the uniqueness check; the UNIQUE
		// constraint decides the winner.
		if errors.Is(err, errUsernameTaken) {
			errs := fieldErrors{}
			errs.add("username", "The username is already taken")
			return registerOutcome{Errors: errs}, nil
		}
		return registerOutcome{}, err
	}

	return registerOutcome{
		Redirect: "/login",
		Flash:    "You were successfully registered and can login now",
	}, nil
}
