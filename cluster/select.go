package cluster

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"visdedupe/types"
)

// Policy chooses which cluster member is kept
type Policy string

const (
	PreferLargest      Policy = "largest"
	PreferNewest       Policy = "newest"
	PreferOldest       Policy = "oldest"
	PreferShortestName Policy = "shortest_name"

	DefaultPolicy = PreferLargest
)

// Policies lists the accepted policy names
var Policies = []Policy{PreferLargest, PreferNewest, PreferOldest, PreferShortestName}

// ParsePolicy validates a policy name
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Policies {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown policy %q (want one of largest, newest, oldest, shortest_name)", s)
}

// better reports whether a is strictly preferred over b
func (p Policy) better(a, b *types.CatalogItem) bool {
	switch p {
	case PreferNewest:
		return a.ModTime.After(b.ModTime)
	case PreferOldest:
		return a.ModTime.Before(b.ModTime)
	case PreferShortestName:
		return nameLen(a) < nameLen(b)
	default:
		return a.Size > b.Size
	}
}

func nameLen(item *types.CatalogItem) int {
	name := item.Name
	if name == "" {
		name = filepath.Base(item.Path)
	}
	return utf8.RuneCountInString(name)
}

// SelectRepresentative returns the member index preferred by policy. Ties go
// to the lowest index. A cluster without members returns -1.
func SelectRepresentative(c types.Cluster, items []types.CatalogItem, policy Policy) int {
	if len(c.Members) == 0 {
		return -1
	}
	best := c.Members[0]
	for _, m := range c.Members[1:] {
		if policy.better(&items[m], &items[best]) {
			best = m
		}
	}
	return best
}

// AssignRepresentatives sets Representative on every cluster in place
func AssignRepresentatives(clusters []types.Cluster, items []types.CatalogItem, policy Policy) {
	for i := range clusters {
		clusters[i].Representative = SelectRepresentative(clusters[i], items, policy)
	}
}
