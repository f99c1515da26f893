package main

// User represents a registered user.
type User struct {
	UserID   int
	Username string
	Email    string
	PwHash   string
}

// Twit is a single posted message.
type Twit struct {
	TwitID   int
	AuthorID int
	Text     string
	PubDate  int64
	Flagged  bool
}

// Follower is a directed follows relationship between two users.
type Follower struct {
	FollowerID int
	FolloweeID int
}

// TimelineTwit is a twit joined with its author, as shown on timelines.
type TimelineTwit struct {
	Username string
	Email    string
	Text     string
	PubDate  int64
}
