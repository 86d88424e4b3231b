// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "classdump",
		Short: "A JVM class file parser and validator",
		Long:  "classdump parses and validates JVM .class files, built for tooling and static analysis.",
	}

	var logFilePath string
	rootCmd.PersistentFlags().StringVar(&logFilePath, "log-file", "", "also write log output to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newParseCmd(&logFilePath))
	rootCmd.AddCommand(newValidateCmd(&logFilePath))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("classdump version 0.1.0")
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var verbose bool
