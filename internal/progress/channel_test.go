package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResetDefaults(t *testing.T) {
	c := New()
	snap := c.Get()
	assert.Equal(t, 0.0, snap.Percentage)
	assert.Equal(t, "Ready", snap.Stage)
	assert.Nil(t, snap.ETASeconds)
}

func TestSetOverwrites(t *testing.T) {
	c := New()
	eta := 12.5
	c.Set(40, "trimming", &eta)

	snap := c.Get()
	assert.Equal(t, 40.0, snap.Percentage)
	assert.Equal(t, "trimming", snap.Stage)
	assert.NotNil(t, snap.ETASeconds)
	assert.Equal(t, 12.5, *snap.ETASeconds)
}

func TestConcurrentReadWrite(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(p float64) {
			defer wg.Done()
			c.Set(p, "encoding", nil)
		}(float64(i))
		go func() {
			defer wg.Done()
			_ = c.Get()
		}()
	}
	wg.Wait()
}
