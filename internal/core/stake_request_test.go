package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStakeRequestVerifies(t *testing.T) {
	owner := mustKeypair(t)

	req := NewStakeRequest(owner, 30, StakeActionStake)
	assert.NoError(t, req.Verify())
}

func TestStakeRequestVerifyRejectsWrongAddress(t *testing.T) {
	owner := mustKeypair(t)
	other := mustKeypair(t)

	req := NewStakeRequest(owner, 30, StakeActionStake)
	req.Address = other.Address()

	assert.Error(t, req.Verify())
}

func TestStakeRequestVerifyRejectsTamperedAmount(t *testing.T) {
	owner := mustKeypair(t)

	req := NewStakeRequest(owner, 30, StakeActionStake)
	req.Amount = 9000

	assert.Error(t, req.Verify())
}

func TestStakeRequestVerifyRejectsUnknownAction(t *testing.T) {
	owner := mustKeypair(t)

	req := NewStakeRequest(owner, 30, StakeActionStake)
	req.Action = "burn"

	assert.Error(t, req.Verify())
}

func TestUnstakeRequestVerifies(t *testing.T) {
	owner := mustKeypair(t)

	req := NewStakeRequest(owner, 10, StakeActionUnstake)
	assert.NoError(t, req.Verify())
}
