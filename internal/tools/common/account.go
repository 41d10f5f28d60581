package common

import "github.com/wayward-wolves/chronocall/internal/session"

// GetAccountFromArgs returns the "account" argument, or the default account
// when it is missing, empty or not a string.
func GetAccountFromArgs(args map[string]any) string {
	if account, ok := args["account"].(string); ok && account != "" {
		return account
	}
	return session.DefaultAccount
}

// GetStringArg returns the string argument name, or "" when absent.
func GetStringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}
