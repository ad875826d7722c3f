package cart

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(pid string, qty int, price int64) Item {
	return Item{ProductID: pid, Size: "M", Material: "wool", UnitPrice: price, Qty: qty}
}

func TestMergeCombinesQuantitiesForSameKey(t *testing.T) {
	remote := []Item{line("p1", 1, 500), line("p2", 3, 900)}
	local := []Item{line("p1", 2, 500)}

	got := Merge(remote, local)

	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ProductID)
	assert.Equal(t, 3, got[0].Qty)
	assert.Equal(t, "p2", got[1].ProductID)
	assert.Equal(t, 3, got[1].Qty)
}

func TestMergeEmptyLocalIsRemote(t *testing.T) {
	remote := []Item{line("p1", 2, 500)}
	got := Merge(remote, nil)
	assert.Equal(t, remote, got)
}

func TestMergeEmptyRemoteIsLocal(t *testing.T) {
	local := []Item{line("p1", 2, 500), line("p2", 1, 700)}
	got := Merge(nil, local)
	assert.Equal(t, local, got)
}

func TestMergeIdempotent(t *testing.T) {
	remote := []Item{line("p1", 1, 500), line("p3", 5, 100)}
	local := []Item{line("p1", 2, 500), line("p2", 1, 700)}

	once := Merge(remote, local)
	again := Merge(once, nil)

	assert.Equal(t, once, again)
}

func TestMergeConservesQuantity(t *testing.T) {
	remote := []Item{line("p1", 1, 500), line("p2", 4, 900)}
	local := []Item{line("p1", 6, 500), line("p3", 2, 300)}

	got := Merge(remote, local)

	sum := func(items []Item) int {
		n := 0
		for _, it := range items {
			n += it.Qty
		}
		return n
	}
	assert.GreaterOrEqual(t, sum(got), sum(remote))

	byKey := map[string]int{}
	for _, it := range got {
		byKey[it.Key()] = it.Qty
	}
	assert.Equal(t, 7, byKey[line("p1", 1, 500).Key()])
}

func TestMergeDistinguishesTailoringConfigurations(t *testing.T) {
	a := Item{ProductID: "p1", Size: "M", Material: "wool", Fingerprint: "sleeve:62", Qty: 1}
	b := Item{ProductID: "p1", Size: "M", Material: "wool", Fingerprint: "sleeve:64", Qty: 1}

	got := Merge([]Item{a}, []Item{b})
	require.Len(t, got, 2)
}

func TestMergeDropsInvalidLines(t *testing.T) {
	remote := []Item{line("p1", 1, 500), {ProductID: "", Qty: 3}}
	local := []Item{{ProductID: "p2", Qty: 0}}

	got := Merge(remote, local)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ProductID)
}

func TestDeriveKeyTruncated(t *testing.T) {
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	k := DeriveKey("p1", "M", "wool", string(long))
	assert.Equal(t, MaxKeyLen, utf8.RuneCountInString(k))
}

func TestDeriveKeyTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("採寸", 200)
	k := DeriveKey("p1", "M", "wool", long)

	assert.Equal(t, MaxKeyLen, utf8.RuneCountInString(k))
	assert.True(t, utf8.ValidString(k), "truncation must not split a rune")
}

func TestDerivedTotals(t *testing.T) {
	items := []Item{
		line("p1", 2, 500),
		{ProductID: "p1", Size: "L", Material: "wool", UnitPrice: 500, Qty: 1},
		line("p2", 1, 900),
	}
	// count is distinct product ids, not lines and not quantity sums
	assert.Equal(t, 2, DistinctCount(items))
	assert.Equal(t, int64(2400), Total(items))
}
