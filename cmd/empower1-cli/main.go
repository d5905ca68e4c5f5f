package main

import (
	"fmt"
	"os"

	"empower1/internal/core/types"
	"empower1/internal/rpc"
	"empower1/internal/wallet"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "empower1-cli",
		Short: "client for an EmPower1 node",
	}
	root.AddCommand(statusCmd())
	root.AddCommand(sendTxCmd())
	root.AddCommand(stakeCmd())
	root.AddCommand(unstakeCmd())
	root.AddCommand(peersCmd())
	root.AddCommand(walletCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func statusCmd() *cobra.Command {
	var node string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "print a node's chain head and height",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := rpc.NewClient(node).GetStatus()
			if err != nil {
				return err
			}
			fmt.Println("Node status:")
			fmt.Printf("  Head hash: %s\n", status.HeadHash)
			fmt.Printf("  Height: %d\n", status.Height)
			return nil
		},
	}
	cmd.Flags().StringVar(&node, "node", "127.0.0.1:8001", "node address to query")
	return cmd
}

func peersCmd() *cobra.Command {
	var node string
	cmd := &cobra.Command{
		Use:   "peers",
		Short: "list a node's known peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			peers, err := rpc.NewClient(node).GetPeers()
			if err != nil {
				return err
			}
			for _, addr := range peers {
				fmt.Println(addr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&node, "node", "127.0.0.1:8001", "node address to query")
	return cmd
}

func sendTxCmd() *cobra.Command {
	var (
		node       string
		walletPath string
		to         string
		amount     uint64
		nonce      uint64
	)
	cmd := &cobra.Command{
		Use:   "send-tx",
		Short: "sign and submit a transfer",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := wallet.Load(walletPath)
			if err != nil {
				return fmt.Errorf("loading wallet: %w", err)
			}
			receiver, err := types.AddressFromHex(to)
			if err != nil {
				return fmt.Errorf("parsing receiver address: %w", err)
			}

			client := rpc.NewClient(node)
			if nonce == 0 {
				status, err := client.GetStatus()
				if err != nil {
					return fmt.Errorf("fetching status to pick a nonce: %w", err)
				}
				nonce = status.Height + 1
			}

			tx := w.BuildTransaction(receiver, amount, nonce)
			hash, err := client.SendTransaction(tx)
			if err != nil {
				return err
			}
			fmt.Println("Transaction sent successfully!")
			fmt.Printf("Transaction hash: %s\n", hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&node, "node", "127.0.0.1:8001", "node address to submit through")
	cmd.Flags().StringVar(&walletPath, "wallet", "", "wallet key file")
	cmd.Flags().StringVar(&to, "to", "", "receiver address (hex)")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount to transfer")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "sender nonce (0 picks the next one automatically)")
	_ = cmd.MarkFlagRequired("wallet")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func stakeCmd() *cobra.Command {
	var (
		node       string
		walletPath string
		amount     uint64
	)
	cmd := &cobra.Command{
		Use:   "stake",
		Short: "move balance into stake, making this wallet eligible for validator selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := wallet.Load(walletPath)
			if err != nil {
				return fmt.Errorf("loading wallet: %w", err)
			}
			req := w.BuildStakeRequest(amount)
			hash, err := rpc.NewClient(node).Stake(req)
			if err != nil {
				return err
			}
			fmt.Println("Stake request accepted!")
			fmt.Printf("Reference hash: %s\n", hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&node, "node", "127.0.0.1:8001", "node address to submit through")
	cmd.Flags().StringVar(&walletPath, "wallet", "", "wallet key file")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount to move from balance into stake")
	_ = cmd.MarkFlagRequired("wallet")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func unstakeCmd() *cobra.Command {
	var (
		node       string
		walletPath string
		amount     uint64
	)
	cmd := &cobra.Command{
		Use:   "unstake",
		Short: "move stake back into balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := wallet.Load(walletPath)
			if err != nil {
				return fmt.Errorf("loading wallet: %w", err)
			}
			req := w.BuildUnstakeRequest(amount)
			hash, err := rpc.NewClient(node).Stake(req)
			if err != nil {
				return err
			}
			fmt.Println("Unstake request accepted!")
			fmt.Printf("Reference hash: %s\n", hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&node, "node", "127.0.0.1:8001", "node address to submit through")
	cmd.Flags().StringVar(&walletPath, "wallet", "", "wallet key file")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount to move from stake back into balance")
	_ = cmd.MarkFlagRequired("wallet")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "wallet", Short: "manage local wallet key files"}
	cmd.AddCommand(walletNewCmd())
	cmd.AddCommand(walletAddressCmd())
	return cmd
}

func walletNewCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "generate a new wallet key file",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := wallet.New()
			if err != nil {
				return err
			}
			if err := w.Save(path); err != nil {
				return err
			}
			fmt.Printf("Wallet created at %s\n", path)
			fmt.Printf("Address: %s\n", w.Address().String())
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "out", "wallet.json", "where to write the new key file")
	return cmd
}

func walletAddressCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "address",
		Short: "print a wallet key file's address",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := wallet.Load(path)
			if err != nil {
				return err
			}
			fmt.Println(w.Address().String())
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "wallet", "wallet.json", "wallet key file")
	return cmd
}
