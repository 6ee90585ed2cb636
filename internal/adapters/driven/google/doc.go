// Package google provides shared infrastructure for the Google API adapters.
//
// The sheets and gmail adapters use it for:
//   - Credentials from a service account or authorized-user JSON file
//   - Service factories for the Sheets, Drive and Gmail APIs
//   - Mapping googleapi errors (401, 403, 404, 429) onto the domain taxonomy
//   - Rate limiting to respect Google API quotas
//
// # Usage
//
//	opts, err := google.ClientOptions(ctx, credentialsFile, google.SheetsScopes...)
//	sheetsSvc, err := google.NewSheetsService(ctx, opts...)
//
// # OAuth2 Scopes
//
// The adapters request only:
//   - https://www.googleapis.com/auth/spreadsheets
//   - https://www.googleapis.com/auth/drive.file (files created by docrisk)
//   - https://www.googleapis.com/auth/gmail.send
package google
