package leaderboard

// Entry is one ranked row of a day's leaderboard.
type Entry struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Count    int    `json:"count"`
	Address  string `json:"address"`
}

// Trend is the admin dashboard chart payload: series over the trailing
// window plus all-time top users and a Mon-Sun aggregation.
type Trend struct {
	DailyLabels   []string `json:"dailyLabels"`
	DailyData     []int    `json:"dailyData"`
	RegLabels     []string `json:"regLabels"`
	RegData       []int    `json:"regData"`
	TopUserNames  []string `json:"topUserNames"`
	TopUserCounts []int    `json:"topUserCounts"`
	WeeklyLabels  []string `json:"weeklyLabels"`
	WeeklyData    []int    `json:"weeklyData"`
}

// Stats is the dashboard headline summary.
type Stats struct {
	TotalUsers       int     `json:"totalUsers"`
	ActiveUsersToday int     `json:"activeUsersToday"`
	TotalCounts      int     `json:"totalCounts"`
	AvgDailyCount    float64 `json:"avgDailyCount"`
}
