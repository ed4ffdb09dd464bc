package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/structivejs/structive/internal/errors"
)

func errorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "errors [code]",
		Short: "Print the error code catalog",
		Long: `List every registered error code, or print the full formatted
entry for one code.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				code := args[0]
				if !errors.Registered(code) {
					return fmt.Errorf("unknown error code %q", code)
				}
				fmt.Println(errors.New(code).Format())
				return nil
			}

			codes := errors.Codes()
			sort.Strings(codes)
			for _, code := range codes {
				e := errors.New(code)
				fmt.Printf("%-32s [%s/%s] %s\n", code, e.Category, e.Severity, e.Message)
			}
			return nil
		},
	}
	return cmd
}
