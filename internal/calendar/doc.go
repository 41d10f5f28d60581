// Package calendar talks to Google Calendar on behalf of one authorized
// session.
//
// Backend is the narrow set of operations chronocall needs: list one day,
// insert, full update and delete. Client implements it with
// google.golang.org/api/calendar/v3. Lookup resolves event identity by
// (date, title), the only identity the model ever gives us.
//
//	client, err := calendar.NewClient(ctx, httpClient, "primary")
//	lookup := calendar.NewLookup(client, calendar.DefaultZone())
//	events, err := lookup.FindByDateAndTitle(ctx, day, "Gym")
package calendar
