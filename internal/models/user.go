package models

// ActingUser is the verified identity behind a request. A nil *ActingUser is the
// anonymous actor.
type ActingUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Email       string `json:"email,omitempty"`
}

// ActorID returns the user id, or "" for the anonymous actor.
func ActorID(actor *ActingUser) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
