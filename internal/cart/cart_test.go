package cart

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	latte     = Item{ProductID: 1, Name: "Latte", Price: 65}
	americano = Item{ProductID: 2, Name: "Americano", Price: 50}
	cookie    = Item{ProductID: 3, Name: "Cookie", Price: 27.5}
)

func TestAddIncrementsExistingLine(t *testing.T) {
	c := New()
	c.Add(latte)
	c.Add(americano)
	c.Add(latte)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, uint(1), lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 1, lines[1].Quantity)
	assert.InDelta(t, 180.0, c.Total(), 1e-9)
}

func TestRemoveLastUnitDeletesLine(t *testing.T) {
	c := New()
	c.Add(latte)
	c.Add(latte)
	c.Add(cookie)

	c.Remove(latte.ProductID)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.Lines()[0].Quantity)

	c.Remove(latte.ProductID)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, cookie.ProductID, c.Lines()[0].ProductID)

	c.Remove(99)
	assert.Equal(t, 1, c.Len())

	c.Remove(cookie.ProductID)
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.Total())
}

func TestTotalMatchesLinesUnderRandomOps(t *testing.T) {
	items := []Item{latte, americano, cookie}
	rng := rand.New(rand.NewSource(42))
	c := New()

	for i := 0; i < 2000; i++ {
		it := items[rng.Intn(len(items))]
		if rng.Intn(3) == 0 {
			c.Remove(it.ProductID)
		} else {
			c.Add(it)
		}

		var want float64
		for _, l := range c.Lines() {
			require.GreaterOrEqual(t, l.Quantity, 1)
			want += l.Price * float64(l.Quantity)
		}
		require.True(t, math.Abs(want-c.Total()) < 1e-6)
	}
}

func TestSummaryAndClear(t *testing.T) {
	c := New()
	c.Add(latte)
	c.Add(latte)
	c.Add(cookie)

	s := c.Summary()
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 157.5, s.Total, 1e-9)

	c.Clear()
	assert.True(t, c.IsEmpty())
	c.Add(americano)
	assert.Equal(t, 1, c.Len())
}

func TestSubtractKeepsUnitsAddedLater(t *testing.T) {
	c := New()
	c.Add(latte)
	c.Add(cookie)
	sold := c.Lines()

	// Added while the sale was being written.
	c.Add(latte)
	c.Add(americano)

	c.Subtract(sold)
	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, Line{Item: latte, Quantity: 1}, lines[0])
	assert.Equal(t, Line{Item: americano, Quantity: 1}, lines[1])

	c.Subtract([]Line{{Item: latte, Quantity: 1}, {Item: cookie, Quantity: 4}})
	assert.Equal(t, []Line{{Item: americano, Quantity: 1}}, c.Lines())
}

func TestStoreIsolatesUsers(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.With(1, func(c *Cart) { c.Add(latte) })
		}()
	}
	wg.Wait()
	s.With(2, func(c *Cart) { c.Add(cookie) })

	one := s.Snapshot(1)
	require.Len(t, one, 1)
	assert.Equal(t, 50, one[0].Quantity)
	assert.Len(t, s.Snapshot(2), 1)

	s.Drop(1)
	assert.Empty(t, s.Snapshot(1))
}
