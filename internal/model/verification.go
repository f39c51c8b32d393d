package model

// PendingVerification is a signup waiting for its email to be confirmed.
// TimeStamp is in unix milliseconds and Password is a bcrypt hash.
type PendingVerification struct {
	Token     string `json:"token"`
	TimeStamp int64  `json:"timeStamp"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// VerificationTable maps an email address to its pending verification.
type VerificationTable map[string]PendingVerification

// EmailIndex maps an email address to the account id that owns it.
type EmailIndex map[string]string
