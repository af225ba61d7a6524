package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version can be overridden at build time with:
//
//	go build -ldflags "-X main.Version=v1.2.3"
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the luz toolchain version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("luz %s\n", Version)
			return nil
		},
	}
}
