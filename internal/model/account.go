package model

// Account is the per-user document. Password holds a bcrypt hash.
type Account struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	AccountID string `json:"account_id"`
}

// PublicAccount is what clients get to see of an account.
type PublicAccount struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	UUID     string `json:"uuid"`
}

func (a *Account) Public() PublicAccount {
	return PublicAccount{Email: a.Email, Username: a.Username, UUID: a.AccountID}
}
