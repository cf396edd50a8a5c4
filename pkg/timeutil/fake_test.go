package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	c := Fake(epoch)
	ch := c.After(10 * time.Second)

	c.Advance(9 * time.Second)
	select {
	case <-ch:
		t.Fatal("fired early")
	default:
	}

	c.Advance(time.Second)
	select {
	case got := <-ch:
		assert.Equal(t, epoch.Add(10*time.Second), got)
	default:
		t.Fatal("did not fire at deadline")
	}
	assert.Equal(t, 0, c.Waiters())
}

func TestFakeTickerRepeats(t *testing.T) {
	c := Fake(epoch)
	tk := c.NewTicker(time.Minute)
	defer tk.Stop()

	for i := 1; i <= 3; i++ {
		c.Advance(time.Minute)
		select {
		case got := <-tk.C:
			assert.Equal(t, epoch.Add(time.Duration(i)*time.Minute), got)
		default:
			t.Fatalf("tick %d missing", i)
		}
	}

	tk.Stop()
	c.Advance(time.Minute)
	select {
	case <-tk.C:
		t.Fatal("tick after stop")
	default:
	}
	assert.Equal(t, 0, c.Waiters())
}

func TestFakeBlockUntil(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		<-c.After(time.Second)
		close(done)
	}()
	c.BlockUntil(1)
	c.Advance(time.Second)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("waiter never released")
	}
}

func TestDefaultNow(t *testing.T) {
	c := Fake(epoch)
	SetDefault(c)
	defer SetDefault(nil)

	require.Equal(t, epoch, Now())
	c.Advance(time.Hour)
	require.Equal(t, epoch.Add(time.Hour), Now())
}
