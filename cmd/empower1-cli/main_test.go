package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestSendTxCmdRequiresWalletToAndAmount(t *testing.T) {
	cmd := sendTxCmd()
	for _, name := range []string{"wallet", "to", "amount"} {
		flag := cmd.Flags().Lookup(name)
		if assert.NotNil(t, flag) {
			assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag], name)
		}
	}
}

func TestWalletCmdExposesNewAndAddress(t *testing.T) {
	cmd := walletCmd()
	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "new")
	assert.Contains(t, names, "address")
}
