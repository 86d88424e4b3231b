// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/spf13/cobra"
	"github.com/stephens2424/writerset"

	classfile "github.com/gojvm/classfile"
	"github.com/gojvm/classfile/log"
)

// openWriterSet fans log output out to stdout and, if logFilePath is
// non-empty, to that file as well (mirroring the teacher's single-sink
// logger with a set that can grow subscribers at runtime).
func openWriterSet(logFilePath string) (io.Writer, func(), error) {
	ws := &writerset.WriterSet{}
	ws.Add(os.Stdout)
	closeFn := func() {}
	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		ws.Add(f)
		closeFn = func() { f.Close() }
	}
	return ws, closeFn, nil
}

func buildLogger(logFilePath string, verbose bool) (log.Logger, func(), error) {
	w, closeFn, err := openWriterSet(logFilePath)
	if err != nil {
		return nil, nil, err
	}
	base := log.NewStdLogger(w)
	level := log.LevelWarn
	if verbose {
		level = log.LevelDebug
	}
	return log.NewFilter(base, log.FilterLevel(level)), closeFn, nil
}

func prettyPrint(buf []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, buf, "", "\t"); err != nil {
		return string(buf)
	}
	return out.String()
}

func parseOneFile(filename string, opts *classfile.Options) (*classfile.ClassFile, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", filename, err)
	}
	if info.Size() == 0 {
		return classfile.NewParser(opts).Parse(f)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		// Some filesystems (pipes, some container overlays) don't support
		// mmap; fall back to a regular read rather than failing the whole
		// command.
		return classfile.NewParser(opts).Parse(f)
	}
	defer data.Unmap()

	return classfile.NewParser(opts).Parse(bytes.NewReader(data))
}

func walkTargets(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() && filepath.Ext(p) == ".class" {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

func newParseCmd(logFilePath *string) *cobra.Command {
	var maxDepth int
	var strictPadding bool

	cmd := &cobra.Command{
		Use:   "parse <file-or-dir>",
		Short: "Parse one or more class files and print the decoded structure as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeFn, err := buildLogger(*logFilePath, verbose)
			if err != nil {
				return err
			}
			defer closeFn()

			opts := classfile.NewOptions()
			opts.Logger = logger
			if maxDepth > 0 {
				opts.MaxAnnotationDepth = maxDepth
			}
			opts.RejectNonZeroSwitchPadding = strictPadding

			targets, err := walkTargets(args[0])
			if err != nil {
				return err
			}

			exitCode := 0
			for _, path := range targets {
				cf, err := parseOneFile(path, opts)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
					exitCode = 1
					continue
				}
				out, _ := json.Marshal(cf)
				fmt.Println(prettyPrint(out))
			}
			if exitCode != 0 {
				os.Exit(exitCode)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-annotation-depth", 0, "override the default annotation nesting limit")
	cmd.Flags().BoolVar(&strictPadding, "strict-switch-padding", false, "reject non-zero tableswitch/lookupswitch padding")
	return cmd
}

func newValidateCmd(logFilePath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file-or-dir>",
		Short: "Validate class files, printing only pass/fail per file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeFn, err := buildLogger(*logFilePath, verbose)
			if err != nil {
				return err
			}
			defer closeFn()

			opts := classfile.NewOptions()
			opts.Logger = logger

			targets, err := walkTargets(args[0])
			if err != nil {
				return err
			}

			failures := 0
			for _, path := range targets {
				if _, err := parseOneFile(path, opts); err != nil {
					fmt.Printf("FAIL %s: %v\n", path, err)
					failures++
					continue
				}
				fmt.Printf("OK   %s\n", path)
			}
			if failures > 0 {
				os.Exit(1)
			}
			return nil
		},
	}
	return cmd
}
