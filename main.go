package main

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
)

var (
	db     *sql.DB
	store  *sessions.CookieStore
	logger = logrus.New()
)

func setupRouter() *mux.Router {
	r := mux.NewRouter()

	fs := http.FileServer(http.Dir("static"))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", fs))

	r.HandleFunc("/", timelineHandler).Methods("GET")
	r.HandleFunc("/public", publicTimelineHandler).Methods("GET")
	r.HandleFunc("/register", registerHandler).Methods("GET", "POST")
	r.HandleFunc("/login", loginHandler).Methods("GET", "POST")
	r.HandleFunc("/logout", logoutHandler).Methods("GET")
	r.HandleFunc("/add_twit", addTwitHandler).Methods("POST")
	r.HandleFunc("/{username}", userTimelineHandler).Methods("GET")
	r.HandleFunc("/{username}/follow", followHandler).Methods("GET")
	r.HandleFunc("/{username}/unfollow", unfollowHandler).Methods("GET")

	return r
}

func main() {
	cfg := newConfig()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	db, err = openDB(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("cannot open database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.WithError(err).Fatal("cannot reach database")
	}

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'user'").Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		if err := initSchema(db, "schema.sql"); err != nil {
			logger.WithError(err).Fatal("cannot initialize database")
		}
		logger.Info("database initialized")
	}

	store = newStore(cfg.SecretKey)

	logger.WithField("port", cfg.Port).Info("starting minitwit")
	if err := http.ListenAndServe(":"+cfg.Port, setupRouter()); err != nil {
		logger.WithError(err).Fatal("server failed")
	}
}
