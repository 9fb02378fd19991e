package models

// BetStats represents aggregated betting statistics
type BetStats struct {
	TotalBets    int
	TotalWins    int
	TotalLosses  int
	TotalWagered int64
	TotalWon     int64
	TotalLost    int64
	BiggestWin   int64
	BiggestLoss  int64
}

// ScoreboardEntry represents a user's entry in the chat scoreboard
type ScoreboardEntry struct {
	Rank           int
	TelegramID     int64
	Username       string
	TotalBalance   int64 // wallet plus bank
	CollectionSize int
	Experience     int64
}

// UserProfile represents the combined profile shown by /profile
type UserProfile struct {
	User           *User
	CollectionSize int
	ActivePass     *Pass
	BetStats       *BetStats
}
