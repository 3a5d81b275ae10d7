package cache

import (
	"slices"
	"strconv"
	"strings"
)

// KeyPrefix namespaces every key written by the store.
const KeyPrefix = "artic:artworks"

// PageKey identifies one page of the artworks listing as it was requested.
// Limit and Fields shape the body, so they are part of the identity.
type PageKey struct {
	Page   int
	Limit  int
	Fields []string
}

// String builds the Redis key. Field order does not matter.
// Format: artic:artworks:page=N[:limit=L][:fields=a,b,c]
//
// Example:
//
//	artic:artworks:page=3:limit=12:fields=id,title
func (k PageKey) String() string {
	var b strings.Builder
	b.WriteString(KeyPrefix)
	b.WriteString(":page=")
	b.WriteString(strconv.Itoa(k.Page))

	if k.Limit > 0 {
		b.WriteString(":limit=")
		b.WriteString(strconv.Itoa(k.Limit))
	}

	if len(k.Fields) > 0 {
		fields := slices.Clone(k.Fields)
		slices.Sort(fields)
		b.WriteString(":fields=")
		b.WriteString(strings.Join(slices.Compact(fields), ","))
	}

	return b.String()
}
