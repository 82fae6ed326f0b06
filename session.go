// session.go
package main

import (
	"encoding/json"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// flowStateKey is the single session key carrying the serialized FlowState.
const flowStateKey = "flow_state"

// FlowState is the typed state object passed between flow stages. Each stage
// declares the fields it requires; a missing required field is a precondition
// failure that redirects to the upstream stage instead of rendering.
//
// Only the record id and the headline counts are staged. The gap list itself
// stays in the database and is reloaded by the stages that render it; cookie
// values are capped at 4 KiB and a real gap list does not fit.
type FlowState struct {
	UploadedFile     string `json:"uploaded_file,omitempty"`
	FileSize         int64  `json:"file_size,omitempty"`
	AnalysisID       string `json:"analysis_id,omitempty"`
	TotalFollowing   int    `json:"total_following,omitempty"`
	TotalFollowers   int    `json:"total_followers,omitempty"`
	NotFollowingBack int    `json:"not_following_back,omitempty"`
	PaymentCompleted bool   `json:"payment_completed,omitempty"`
	TestMode         bool   `json:"test_mode,omitempty"`
}

// loadFlowState reads the state staged in the cookie session. An absent or
// unreadable value yields an empty state.
func loadFlowState(c *gin.Context) *FlowState {
	session := sessions.Default(c)
	raw, ok := session.Get(flowStateKey).(string)
	if !ok {
		return &FlowState{}
	}
	var state FlowState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return &FlowState{}
	}
	return &state
}

// saveFlowState stages the state for the downstream stages.
func saveFlowState(c *gin.Context, state *FlowState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	session := sessions.Default(c)
	session.Set(flowStateKey, string(data))
	return session.Save()
}

// clearFlowState erases everything staged in the session. Clearing an
// already empty session yields the same empty state.
func clearFlowState(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}

// requireUpload gates stages that need a completed upload. Without one the
// user is sent back to the upload stage.
func requireUpload() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := loadFlowState(c)
		if state.UploadedFile == "" || state.AnalysisID == "" {
			c.Redirect(http.StatusSeeOther, "/upload")
			c.Abort()
			return
		}
		c.Set(flowStateKey, state)
		c.Next()
	}
}

// requirePayment gates the monetized results stage. Results without a
// completed payment redirect to the payment stage, never render.
func requirePayment() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := loadFlowState(c)
		if state.UploadedFile == "" || state.AnalysisID == "" {
			c.Redirect(http.StatusSeeOther, "/upload")
			c.Abort()
			return
		}
		if !state.PaymentCompleted {
			c.Redirect(http.StatusSeeOther, "/payment")
			c.Abort()
			return
		}
		c.Set(flowStateKey, state)
		c.Next()
	}
}

// flowStateFromContext returns the state resolved by a gate middleware.
func flowStateFromContext(c *gin.Context) *FlowState {
	if v, ok := c.Get(flowStateKey); ok {
		if state, ok := v.(*FlowState); ok {
			return state
		}
	}
	return loadFlowState(c)
}
