package cache

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Namespace is a category of cached records. Each namespace has its own
// storage partition, so identical identifiers never collide across them.
type Namespace string

// Recognized namespaces.
const (
	NamespaceVideo    Namespace = "video"
	NamespaceComments Namespace = "comments"
	NamespaceSearch   Namespace = "search"
)

// ErrUnknownNamespace is returned when a caller names a namespace outside the
// recognized set. It signals a misconfiguration, not a cache miss.
var ErrUnknownNamespace = errors.New("unknown cache namespace")

// partitions maps each namespace to its physical partition name.
//
//nolint:gochecknoglobals // Compile-time lookup table.
var partitions = map[Namespace]string{
	NamespaceVideo:    "videos",
	NamespaceComments: "comments",
	NamespaceSearch:   "searches",
}

// Namespaces returns every recognized namespace in a stable order.
func Namespaces() []Namespace {
	out := make([]Namespace, 0, len(partitions))
	for ns := range partitions {
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseNamespace validates s and returns the matching Namespace. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseNamespace(s string) (Namespace, error) {
	ns := Namespace(strings.ToLower(strings.TrimSpace(s)))
	if !ns.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownNamespace, s)
	}
	return ns, nil
}

// Valid reports whether n is a recognized namespace.
func (n Namespace) Valid() bool {
	_, ok := partitions[n]
	return ok
}

// Partition returns the storage partition name (directory or table suffix).
func (n Namespace) Partition() string {
	return partitions[n]
}

func (n Namespace) String() string {
	return string(n)
}
