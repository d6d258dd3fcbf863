// Package filter selects Grist records client-side with expr-lang expressions.
//
// Server-side filters only match exact column values. Expressions here can
// compare, combine and transform values:
//
//	Age >= 30 and includes(City, "rome")
//	has("Email") and not (Status in ["archived", "deleted"])
//	daysSince(Joined) < 90
//
// Every column is available by its id, and also through the fields map for
// ids that are not valid identifiers (fields["Due date"]). The record id is
// available as id. Grist dates are seconds since the epoch.
package filter
