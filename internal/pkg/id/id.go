package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string for user ids. ULIDs sort by creation
// time and are safe as DynamoDB partition keys. Note they are not
// case-sensitive identifiers; authorization compares them case-insensitively.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
