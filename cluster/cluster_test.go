package cluster

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"visdedupe/types"
)

// flip returns fp with the given bit positions inverted
func flip(fp types.Fingerprint, positions ...int) types.Fingerprint {
	for _, p := range positions {
		fp[p/64] ^= 1 << uint(p%64)
	}
	return fp
}

func members(clusters []types.Cluster) [][]int {
	var out [][]int
	for _, c := range clusters {
		out = append(out, c.Members)
	}
	return out
}

func TestCluster(t *testing.T) {
	seed := types.Fingerprint{0x0123456789abcdef, 0xfedcba9876543210, 0, ^uint64(0)}
	far := flip(seed, 0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120, 130, 140, 150)

	tests := []struct {
		name      string
		fps       []types.Fingerprint
		threshold int
		want      [][]int
	}{
		{"empty", nil, 6, nil},
		{"single", []types.Fingerprint{seed}, 6, [][]int{{0}}},
		{"identical", []types.Fingerprint{seed, seed, seed}, 0, [][]int{{0, 1, 2}}},
		{"boundary included", []types.Fingerprint{seed, flip(seed, 1, 2, 3, 4, 5, 6)}, 6, [][]int{{0, 1}}},
		{"boundary excluded", []types.Fingerprint{seed, flip(seed, 1, 2, 3, 4, 5, 6, 7)}, 6, [][]int{{0}, {1}}},
		{"interleaved", []types.Fingerprint{seed, far, flip(seed, 9), flip(far, 9)}, 6, [][]int{{0, 2}, {1, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cluster(tt.fps, tt.threshold)
			if !reflect.DeepEqual(members(got), tt.want) {
				t.Errorf("Cluster() = %v, want %v", members(got), tt.want)
			}
		})
	}
}

// Members are compared with the seed only: A and B are 8 bits apart but
// both within 4 bits of the seed.
func TestCluster_SeedRadius(t *testing.T) {
	var seed types.Fingerprint
	a := flip(seed, 0, 1, 2, 3)
	b := flip(seed, 4, 5, 6, 7)
	if d := a.Distance(b); d != 8 {
		t.Fatalf("setup: distance(a, b) = %d", d)
	}

	got := Cluster([]types.Fingerprint{seed, a, b}, 6)
	if !reflect.DeepEqual(members(got), [][]int{{0, 1, 2}}) {
		t.Errorf("Cluster() = %v, want one cluster", members(got))
	}

	// Without the seed first, the pair splits
	got = Cluster([]types.Fingerprint{a, b}, 6)
	if len(got) != 2 {
		t.Errorf("Cluster(a, b) = %v, want two clusters", members(got))
	}
}

func TestCluster_Partition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := make([]types.Fingerprint, 5)
	for i := range base {
		for w := range base[i] {
			base[i][w] = rng.Uint64()
		}
	}
	var fps []types.Fingerprint
	for i := 0; i < 200; i++ {
		fp := base[rng.Intn(len(base))]
		fps = append(fps, flip(fp, rng.Intn(256), rng.Intn(256)))
	}

	clusters := Cluster(fps, DefaultThreshold)
	seen := make([]int, len(fps))
	for _, c := range clusters {
		if c.Representative != c.Members[0] {
			t.Errorf("representative %d is not the seed %d", c.Representative, c.Members[0])
		}
		for k, m := range c.Members {
			seen[m]++
			if k > 0 && m <= c.Members[k-1] {
				t.Errorf("members not ascending: %v", c.Members)
			}
			if d := fps[c.Members[0]].Distance(fps[m]); d > DefaultThreshold {
				t.Errorf("member %d is %d bits from its seed", m, d)
			}
		}
	}
	for i, n := range seen {
		if n != 1 {
			t.Errorf("index %d appears in %d clusters", i, n)
		}
	}
	if len(clusters) != 5 {
		t.Errorf("got %d clusters, want 5", len(clusters))
	}
	if got := DuplicateCount(clusters); got != len(fps)-len(clusters) {
		t.Errorf("DuplicateCount = %d", got)
	}
}

func TestSelectRepresentative(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []types.CatalogItem{
		{SourceFile: types.SourceFile{Name: "holiday.png", Size: 100, ModTime: t0.Add(time.Hour)}},
		{SourceFile: types.SourceFile{Name: "hol.png", Size: 300, ModTime: t0}},
		{SourceFile: types.SourceFile{Name: "h.png", Size: 300, ModTime: t0.Add(2 * time.Hour)}},
		{SourceFile: types.SourceFile{Name: "é.png", Size: 50, ModTime: t0}},
	}
	all := types.Cluster{Members: []int{0, 1, 2, 3}}

	tests := []struct {
		policy Policy
		c      types.Cluster
		want   int
	}{
		{PreferLargest, all, 1},
		{PreferNewest, all, 2},
		{PreferOldest, all, 1},
		{PreferShortestName, all, 2},
		{PreferShortestName, types.Cluster{Members: []int{0, 3}}, 3},
		{PreferLargest, types.Cluster{Members: []int{2}}, 2},
		{PreferLargest, types.Cluster{}, -1},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			if got := SelectRepresentative(tt.c, items, tt.policy); got != tt.want {
				t.Errorf("SelectRepresentative(%v) = %d, want %d", tt.c.Members, got, tt.want)
			}
		})
	}
}

func TestAssignRepresentatives(t *testing.T) {
	items := []types.CatalogItem{
		{SourceFile: types.SourceFile{Name: "a.png", Size: 1}},
		{SourceFile: types.SourceFile{Name: "b.png", Size: 9}},
		{SourceFile: types.SourceFile{Name: "c.png", Size: 5}},
	}
	clusters := []types.Cluster{{Members: []int{0, 1}}, {Members: []int{2}}}
	AssignRepresentatives(clusters, items, PreferLargest)
	if clusters[0].Representative != 1 || clusters[1].Representative != 2 {
		t.Errorf("representatives = %d, %d", clusters[0].Representative, clusters[1].Representative)
	}
}

func TestParsePolicy(t *testing.T) {
	for _, s := range []string{"largest", "NEWEST", " oldest ", "shortest_name"} {
		if _, err := ParsePolicy(s); err != nil {
			t.Errorf("ParsePolicy(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "biggest", "shortest-name"} {
		if _, err := ParsePolicy(s); err == nil {
			t.Errorf("ParsePolicy(%q) accepted", s)
		}
	}
}
