package contextkeys

type contextKey string

const (
	SessionIDKey contextKey = "SessionID"
	UserIDKey    contextKey = "UserID"
	UsernameKey  contextKey = "Username"
)
