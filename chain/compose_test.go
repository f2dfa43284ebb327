// SPDX-License-Identifier: GPL-3.0-or-later

package chain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func double(input int) (int, error) {
	return input * 2, nil
}

func failing(int) (int, error) {
	return 0, errors.New("boom")
}

func TestCompose2(t *testing.T) {
	pipeline := Compose2(FuncAdapter[int, int](double), FuncAdapter[int, int](double))
	res, err := pipeline.Call(3)
	require.NoError(t, err)
	assert.Equal(t, 12, res)
}

func TestCompose2ShortCircuits(t *testing.T) {
	pipeline := Compose2(FuncAdapter[int, int](failing), FuncAdapter[int, int](double))
	_, err := pipeline.Call(3)
	assert.Error(t, err)
}

func TestComposeChain(t *testing.T) {
	d := FuncAdapter[int, int](double)
	pipeline := Compose4(d, d, d, d)
	res, err := pipeline.Call(1)
	require.NoError(t, err)
	assert.Equal(t, 16, res)
}

func TestApply(t *testing.T) {
	d := FuncAdapter[int, int](double)
	bound := Apply(d, 21)
	res, err := bound.Call(Unit{})
	require.NoError(t, err)
	assert.Equal(t, 42, res)
}

func TestConstFunc(t *testing.T) {
	c := ConstFunc("hello")
	res, err := c.Call(Unit{})
	require.NoError(t, err)
	assert.Equal(t, "hello", res)
}

func TestOptional(t *testing.T) {
	declines := FuncAdapter[int, *int](func(int) (*int, error) { return nil, nil })
	accepts := FuncAdapter[int, *int](func(input int) (*int, error) {
		v := input * 2
		return &v, nil
	})
	chain := Optional(declines, func(v *int) bool { return v == nil }, accepts)
	res, err := chain.Call(5)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 10, *res)
}
