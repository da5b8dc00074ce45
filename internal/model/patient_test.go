package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgeAt(t *testing.T) {
	birth := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 30, AgeAt(birth, time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 29, AgeAt(birth, time.Date(2020, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 30, AgeAt(birth, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestComputeAge(t *testing.T) {
	birth := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	p := Patient{DateOfBirth: &birth}
	p.ComputeAge(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, p.Age)
	assert.Equal(t, 24, *p.Age)

	unknown := Patient{}
	unknown.ComputeAge(time.Now())
	assert.Nil(t, unknown.Age)
}
