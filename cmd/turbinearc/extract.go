package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"turbinearc/engine/archive"
)

func newExtractCmd() *cobra.Command {
	var dialectFlag string
	var outFlag string

	cmd := &cobra.Command{
		Use:   "extract <archive> <hex-key>",
		Short: "Write a single raw record to a standalone file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			// Keys are always parsed unsigned: the original's extraction
			// drivers parse the hex key as signed, which sign-extends
			// values >= 0x80000000 into garbage. Spec design note 9 calls
			// this out explicitly.
			key64, err := strconv.ParseUint(args[1], 16, 32)
			if err != nil {
				return fmt.Errorf("invalid hex key %q: %w", args[1], err)
			}
			key := uint32(key64)

			dialect, err := resolveDialect(dialectFlag, path)
			if err != nil {
				return err
			}

			arc, err := archive.Open(path, dialect)
			if err != nil {
				return err
			}
			defer arc.Close()

			data, err := arc.Fetch(key)
			if err != nil {
				if errors.Is(err, archive.ErrNotFound) {
					fatal("key %08X not found in %s", key, path)
				}
				return err
			}

			out := outFlag
			if out == "" {
				out = fmt.Sprintf("%08X", key)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}

			fmt.Printf("extracted %08X: %d bytes -> %s\n", key, len(data), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&dialectFlag, "dialect", "", "archive dialect: portal or cell (default: sniff)")
	cmd.Flags().StringVar(&outFlag, "out", "", "output path (default: the hex key)")
	return cmd
}
