package repo

import "strings"

const (
	AuthTokensDoc    = "AuthTokens.json"
	VerificationsDoc = "VerificationTokens.json"
	EmailIndexDoc    = "EmailIndex.json"

	accountDocSuffix = ".json"
)

func AccountDocName(accountID string) string {
	return accountID + accountDocSuffix
}

func validAccountID(id string) bool {
	if id == "" || strings.HasPrefix(id, ".") {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
