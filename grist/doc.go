// Package grist provides a client for the Grist spreadsheet REST API.
//
// A Client wraps one configuration resolver and one request dispatcher. Each
// method builds the URL and body of one endpoint, runs it through the
// safe-mode guard and unwraps list envelopes ({"records": [...]} becomes the
// list itself). Every method returns the apicall.Outcome of the call, so
// callers always see the HTTP status next to the decoded body.
//
// # Usage
//
//	client, err := grist.NewClient(map[string]string{
//		config.KeyAPIKey: "your-api-key",
//		config.KeyDocID:  "your-doc-id",
//	}, grist.WithLogger(logger))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	out, err := client.ListRecords(ctx, "People", grist.RecordQuery{
//		Filter: grist.Filter{"Country": {"Italy"}},
//		Limit:  10,
//	})
//
// Team, workspace and document default to the configured values. Pass
// WithTeam, WithWorkspace or WithDoc to target another one for a single call.
//
// # Errors
//
// With GRIST_RAISE_ERROR=Y an error status returns *apicall.HTTPError. With
// GRIST_SAFEMODE=Y every mutating method fails with *apicall.SafeModeError
// before anything is sent.
package grist
