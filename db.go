package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-sqlite3"
)

// errUsernameTaken is returned by insertUser when the username UNIQUE
// constraint rejects the row.
var errUsernameTaken = errors.New("username already taken")

func openDB(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", path)
}

// initSchema applies the schema file to an empty database.
func initSchema(dbh *sql.DB, schemaPath string) error {
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := dbh.Exec(string(schema)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func getUserByID(dbh *sql.DB, userID int) *User {
	var u User
	err := dbh.QueryRow("SELECT user_id, username, email, pw_hash FROM user WHERE user_id = ?", userID).
		Scan(&u.UserID, &u.Username, &u.Email, &u.PwHash)
	if err != nil {
		return nil
	}
	return &u
}

// findUserByUsername returns the user with that exact username, or nil when
// none exists. The comparison is case-sensitive (SQLite BINARY collation).
func findUserByUsername(dbh *sql.DB, username string) (*User, error) {
	var u User
	err := dbh.QueryRow("SELECT user_id, username, email, pw_hash FROM user WHERE username = ?", username).
		Scan(&u.UserID, &u.Username, &u.Email, &u.PwHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user by username: %w", err)
	}
	return &u, nil
}

// insertUser stages the new user and commits it in one transaction. The
// generated id is written back into u on success.
func insertUser(dbh *sql.DB, u *User) error {
	tx, err := dbh.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	res, err := tx.Exec("INSERT INTO user (username, email, pw_hash) VALUES (?, ?, ?)",
		u.Username, u.Email, u.PwHash)
	if err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return errUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit user: %w", err)
	}

	u.UserID = int(id)
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func insertTwit(dbh *sql.DB, authorID int, text string, pubDate int64) error {
	_, err := dbh.Exec("INSERT INTO twit (author_id, text, pub_date, flagged) VALUES (?, ?, ?, 0)",
		authorID, text, pubDate)
	if err != nil {
		return fmt.Errorf("insert twit: %w", err)
	}
	return nil
}

func follow(dbh *sql.DB, followerID, followeeID int) error {
	_, err := dbh.Exec("INSERT INTO follower (follower_id, followee_id) VALUES (?, ?)",
		followerID, followeeID)
	if err != nil {
		return fmt.Errorf("insert follower: %w", err)
	}
	return nil
}

func unfollow(dbh *sql.DB, followerID, followeeID int) error {
	_, err := dbh.Exec("DELETE FROM follower WHERE follower_id = ? AND followee_id = ?",
		followerID, followeeID)
	if err != nil {
		return fmt.Errorf("delete follower: %w", err)
	}
	return nil
}

func isFollowing(dbh *sql.DB, followerID, followeeID int) bool {
	var exists int
	err := dbh.QueryRow("SELECT 1 FROM follower WHERE follower_id = ? AND followee_id = ?",
		followerID, followeeID).Scan(&exists)
	return err == nil
}

func queryTwits(dbh *sql.DB, query string, args ...interface{}) []TimelineTwit {
	rows, err := dbh.Query(query, args...)
	if err != nil {
		logger.WithError(err).Error("timeline query failed")
		return nil
	}
	defer rows.Close()

	var twits []TimelineTwit
	for rows.Next() {
		var t TimelineTwit
		if err := rows.Scan(&t.Text, &t.PubDate, &t.Username, &t.Email); err != nil {
			continue
		}
		twits = append(twits, t)
	}
	return twits
}
