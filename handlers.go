package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// GET / — personal timeline (redirect to /public if not logged in)
func timelineHandler(w http.ResponseWriter, r *http.Request) {
	user := getCurrentUser(r)
	if user == nil {
		http.Redirect(w, r, "/public", http.StatusFound)
		return
	}

	twits := queryTwits(db, `
		SELECT twit.text, twit.pub_date, user.username, user.email
		FROM twit, user
		WHERE twit.flagged = 0 AND twit.author_id = user.user_id AND (
			user.user_id = ? OR
			user.user_id IN (SELECT followee_id FROM follower WHERE follower_id = ?))
		ORDER BY twit.pub_date DESC LIMIT ?`,
		user.UserID, user.UserID, perPage)

	renderTemplate(w, r, "timeline.html", map[string]interface{}{
		"Twits":       twits,
		"CurrentUser": user,
		"IsTimeline":  true,
	})
}

// GET /public — public timeline
func publicTimelineHandler(w http.ResponseWriter, r *http.Request) {
	twits := queryTwits(db, `
		SELECT twit.text, twit.pub_date, user.username, user.email
		FROM twit, user
		WHERE twit.flagged = 0 AND twit.author_id = user.user_id
		ORDER BY twit.pub_date DESC LIMIT ?`, perPage)

	renderTemplate(w, r, "timeline.html", map[string]interface{}{
		"Twits":    twits,
		"IsPublic": true,
	})
}

// GET /{username} — user timeline
func userTimelineHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	username := vars["username"]

	profileUser, err := findUserByUsername(db, username)
	if err != nil {
		logger.WithError(err).Error("profile lookup failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}
	if profileUser == nil {
		http.NotFound(w, r)
		return
	}

	followed := false
	currentUser := getCurrentUser(r)
	if currentUser != nil {
		followed = isFollowing(db, currentUser.UserID, profileUser.UserID)
	}

	twits := queryTwits(db, `
		SELECT twit.text, twit.pub_date, user.username, user.email
		FROM twit, user
		WHERE user.user_id = twit.author_id AND user.user_id = ?
		ORDER BY twit.pub_date DESC LIMIT ?`,
		profileUser.UserID, perPage)

	renderTemplate(w, r, "timeline.html", map[string]interface{}{
		"Twits":       twits,
		"IsUser":      true,
		"ProfileUser": profileUser,
		"Followed":    followed,
	})
}

// GET /{username}/follow
func followHandler(w http.ResponseWriter, r *http.Request) {
	user := getCurrentUser(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	username := vars["username"]
	whom, err := findUserByUsername(db, username)
	if err != nil || whom == nil {
		http.NotFound(w, r)
		return
	}

	if err := follow(db, user.UserID, whom.UserID); err != nil {
		logger.WithError(err).Error("follow failed")
	}
	addFlash(w, r, fmt.Sprintf("You are now following \"%s\"", username))
	http.Redirect(w, r, "/"+username, http.StatusFound)
}

// GET /{username}/unfollow
func unfollowHandler(w http.ResponseWriter, r *http.Request) {
	user := getCurrentUser(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	username := vars["username"]
	whom, err := findUserByUsername(db, username)
	if err != nil || whom == nil {
		http.NotFound(w, r)
		return
	}

	if err := unfollow(db, user.UserID, whom.UserID); err != nil {
		logger.WithError(err).Error("unfollow failed")
	}
	addFlash(w, r, fmt.Sprintf("You are no longer following \"%s\"", username))
	http.Redirect(w, r, "/"+username, http.StatusFound)
}

// POST /add_twit
func addTwitHandler(w http.ResponseWriter, r *http.Request) {
	user := getCurrentUser(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	text := r.FormValue("text")
	if text != "" {
		if err := insertTwit(db, user.UserID, text, time.Now().Unix()); err != nil {
			logger.WithError(err).Error("recording twit failed")
			http.Error(w, "Something went wrong", http.StatusInternalServerError)
			return
		}
		addFlash(w, r, "Your message was recorded")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// GET + POST /login
func loginHandler(w http.ResponseWriter, r *http.Request) {
	user := getCurrentUser(r)
	if user != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	errorMsg := ""
	if r.Method == "POST" {
		username := r.FormValue("username")
		password := r.FormValue("password")

		u, err := findUserByUsername(db, username)
		if err != nil {
			logger.WithError(err).Error("login lookup failed")
			http.Error(w, "Something went wrong", http.StatusInternalServerError)
			return
		}

		if u == nil {
			errorMsg = "Invalid username"
		} else if !checkPassword(u.PwHash, password) {
			errorMsg = "Invalid password"
		} else {
			session, _ := store.Get(r, "session")
			session.Values["user_id"] = u.UserID
			session.Save(r, w)
			addFlash(w, r, "You were logged in")
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
	}

	renderTemplate(w, r, "login.html", map[string]interface{}{
		"Error": errorMsg,
	})
}

// GET + POST /register
func registerHandler(w http.ResponseWriter, r *http.Request) {
	user := getCurrentUser(r)
	if user != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	form := registerForm{}
	var errs fieldErrors
	if r.Method == "POST" {
		form = registerForm{
			Username:  r.FormValue("username"),
			Email:     r.FormValue("email"),
			Password:  r.FormValue("password"),
			Password2: r.FormValue("password2"),
		}

		outcome, err := registerUser(db, form)
		if err != nil {
			logger.WithError(err).Error("registration failed")
			http.Error(w, "Something went wrong", http.StatusInternalServerError)
			return
		}
		if outcome.Redirect != "" {
			addFlash(w, r, outcome.Flash)
			http.Redirect(w, r, outcome.Redirect, http.StatusFound)
			return
		}
		errs = outcome.Errors
	}

	renderTemplate(w, r, "register.html", map[string]interface{}{
		"Errors":   errs,
		"Username": form.Username,
		"Email":    form.Email,
	})
}

// GET /logout
func logoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := store.Get(r, "session")
	delete(session.Values, "user_id")
	session.Save(r, w)
	addFlash(w, r, "You were logged out")
	http.Redirect(w, r, "/public", http.StatusFound)
}
