package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitBots(t *testing.T) {
	assert.Nil(t, splitBots(""))
	assert.Equal(t, []string{"uj", "nsfas"}, splitBots(" uj, ,nsfas ,"))
}
