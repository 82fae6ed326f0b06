package main

// ProfileRef is one account in the follow-back gap list.
type ProfileRef struct {
	Username string `json:"username"`
	URL      string `json:"url"`
}

// AnalysisResult is the result payload embedded in the server envelope.
type AnalysisResult struct {
	TotalFollowing       int          `json:"total_following"`
	TotalFollowers       int          `json:"total_followers"`
	NotFollowingBack     int          `json:"not_following_back"`
	NotFollowingBackList []ProfileRef `json:"not_following_back_list"`
}

// Envelope is the top-level response wrapper of the analysis endpoint.
// Success responses carry AnalysisID and Results; failures carry Error and
// optionally Details.
type Envelope struct {
	Success    bool            `json:"success"`
	AnalysisID string          `json:"analysisId"`
	Results    *AnalysisResult `json:"results"`
	Error      string          `json:"error"`
	Details    string          `json:"details"`
}
