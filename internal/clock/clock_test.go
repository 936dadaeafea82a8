package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToday(t *testing.T) {
	c := Fixed(time.Date(2025, 3, 9, 17, 45, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), Today(c))
}

func TestSystem(t *testing.T) {
	before := time.Now()
	got := System{}.Now()
	assert.False(t, got.Before(before))
}
