package wiseoldman

// --- Players ---
type playerDTO struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
}

// --- Gains ---
type gainedDTO struct {
	StartsAt string `json:"startsAt"`
	EndsAt   string `json:"endsAt"`
	Data     struct {
		Skills map[string]struct {
			Experience struct {
				Gained int64 `json:"gained"`
			} `json:"experience"`
		} `json:"skills"`
		Bosses map[string]struct {
			Kills struct {
				Gained int `json:"gained"`
			} `json:"kills"`
		} `json:"bosses"`
	} `json:"data"`
}
