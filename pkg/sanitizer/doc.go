// Package sanitizer normalises user supplied fields before validation and
// storage.
//
// Every function is idempotent and never fails: input that cannot be
// normalised is returned trimmed so that validation reports it.
//
//   - Names: trim and collapse inner whitespace
//   - Emails: trim and lower-case
//   - Phones: Egyptian numbers to their national 11 digit form (01XXXXXXXXX)
//   - Plate numbers: upper-case, single spaces
package sanitizer
