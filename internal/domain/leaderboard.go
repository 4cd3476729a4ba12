package domain

// LeaderboardEntry is a ranked standing on the XP leaderboard. Rank is 1-based.
type LeaderboardEntry struct {
	UserID string
	XP     int64
	Rank   int64
}

// Quote is a motivational quote shown on the dashboard.
type Quote struct {
	ID     string
	Text   string
	Author string
}
