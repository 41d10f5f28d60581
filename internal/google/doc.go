// Package google handles the OAuth2 side of talking to Google Calendar:
// client configuration, the consent URL and code exchange, per-account
// token files, and authorized HTTP clients.
package google
