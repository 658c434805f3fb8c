package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time; they serve as the jti claim so that two tokens issued
// for the same employee within one second never collide.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
