package models

import "time"

// Activity types recorded for account actions.
const (
	ActivityRegister       = "user.register"
	ActivityLogin          = "user.login"
	ActivityLogout         = "user.logout"
	ActivityUpdate         = "user.update"
	ActivityPasswordChange = "user.password"
)

// Activity represents an account action shown on the user's dashboard.
type Activity struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"` // e.g., "user.login", "user.update"
	Message   string    `json:"message"`
	IPAddress string    `json:"ipAddress,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
