package helpers

// Redis key helpers. Everything the service keeps in Redis goes through these
// so key shapes stay in one place.

// KeySession is the hash holding the active session of a user.
func KeySession(uid string) string {
	return "user:session:" + uid
}

// KeyOAuthState stores a pending OAuth state value until the callback arrives.
func KeyOAuthState(state string) string {
	return "oauth:state:" + state
}
