package auth

import "crypto/subtle"

// Credentials is the single configured console account.
type Credentials struct {
	Username string
	Password string
}

// Check compares both fields in constant time.
func (c Credentials) Check(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(c.Username), []byte(username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(c.Password), []byte(password)) == 1
	return userOK && passOK
}
