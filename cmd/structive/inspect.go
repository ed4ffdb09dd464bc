package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/structivejs/structive/pkg/statepath"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <pattern>...",
		Short: "Explain how a path pattern parses",
		Long: `Parse one or more structured path patterns and print their
segments, wildcard levels, and prefix chain.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caches := statepath.NewCaches()
			for i, pattern := range args {
				if i > 0 {
					fmt.Println()
				}
				printInfo(caches.Info(pattern))
			}
			return nil
		},
	}
	return cmd
}

func printInfo(pi *statepath.Info) {
	fmt.Printf("%s\n", pi.Pattern)
	info("segments:  %s", strings.Join(pi.Segments, " | "))
	info("wildcards: %d", pi.WildcardCount)
	if pi.Parent != nil {
		info("parent:    %s", pi.Parent.Pattern)
	}

	prefixes := make([]string, 0, len(pi.CumulativeInfos))
	for _, p := range pi.CumulativeInfos {
		prefixes = append(prefixes, p.Pattern)
	}
	info("prefixes:  %s", strings.Join(prefixes, ", "))

	if len(pi.WildcardInfos) > 0 {
		levels := make([]string, 0, len(pi.WildcardInfos))
		for _, w := range pi.WildcardInfos {
			levels = append(levels, w.Pattern)
		}
		info("levels:    %s", strings.Join(levels, ", "))
	}
	if list := pi.OwningList(); list != nil {
		info("list:      %s", list.Pattern)
	}
}
