// Package cluster groups fingerprints into near-duplicate clusters and picks
// a representative for each.
package cluster

import "visdedupe/types"

// DefaultThreshold is the largest Hamming distance, in bits of 256, at which
// two fingerprints count as the same picture.
const DefaultThreshold = 6

// Cluster partitions fingerprint indices with a single greedy pass. Each
// unassigned index in input order seeds a new cluster and claims every later
// unassigned index within threshold of the seed. Members are compared with
// the seed only, so two members may be up to 2*threshold apart, and the
// result depends on input order.
//
// Every index lands in exactly one cluster. Member lists are ascending and
// clusters are ordered by seed. Representative is preset to the seed.
func Cluster(fps []types.Fingerprint, threshold int) []types.Cluster {
	assigned := make([]bool, len(fps))
	var clusters []types.Cluster

	for i := range fps {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		members := []int{i}

		for j := i + 1; j < len(fps); j++ {
			if assigned[j] {
				continue
			}
			if fps[i].Distance(fps[j]) <= threshold {
				assigned[j] = true
				members = append(members, j)
			}
		}
		clusters = append(clusters, types.Cluster{Members: members, Representative: i})
	}
	return clusters
}

// DuplicateCount returns the number of non-representative members across
// all clusters.
func DuplicateCount(clusters []types.Cluster) int {
	n := 0
	for _, c := range clusters {
		n += len(c.Members) - 1
	}
	return n
}
