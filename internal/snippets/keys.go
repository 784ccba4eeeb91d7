package snippets

import (
	"fmt"
	"regexp"

	"github.com/PabloPavan/cobit_api/internal"
)

const (
	// ListPattern covers every list and search page key.
	ListPattern = "snippets:*"

	minIDLength = 8
	maxIDLength = 20
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9]{8,20}$`)

func ListKey(page, limit int, search string) string {
	return fmt.Sprintf("snippets:page=%d:limit=%d:search=%s", page, limit, search)
}

func ItemKey(id string) string {
	return "snippet:" + id
}

// NewID returns a random alphanumeric id whose length is drawn uniformly
// from [8, 20].
func NewID() string {
	return internal.RandomAlphanumeric(internal.RandomInt(minIDLength, maxIDLength))
}

func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
