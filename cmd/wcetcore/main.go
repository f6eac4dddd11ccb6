// Package main provides the entry point for wcetcore, a WCET
// (worst-case execution time) static analyzer core built around
// abstract interpretation, cache/branch-prediction categorization, and
// an IPET/ILP solve.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/otawa-go/wcetcore/fixture"
	"github.com/otawa-go/wcetcore/platform"
	"github.com/otawa-go/wcetcore/workspace"
)

var (
	scenario   = flag.String("scenario", "s2", "built-in fixture scenario to analyze (s1, s2, s3, s4, s5, s6)")
	configPath = flag.String("platform", "", "path to a platform-description JSON file (overrides the scenario's own)")
	verbose    = flag.Bool("v", false, "verbose output: per-block worst-case execution counts")
)

func main() {
	flag.Parse()

	s, err := loadScenario(*scenario)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scenario %q: %v\n", *scenario, err)
		os.Exit(1)
	}

	if *configPath != "" {
		plat, err := platform.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading platform config: %v\n", err)
			os.Exit(1)
		}
		s.Platform = plat
	}

	ws := workspace.New(s.Col, s.Root, nil, s.Flow, s.Platform, s.Timing, s.Address, nil)
	if err := workspace.Run(ws, workspace.DefaultPipeline()); err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing %s: %v\n", *scenario, err)
		os.Exit(1)
	}

	fmt.Printf("Scenario: %s\n", *scenario)
	fmt.Printf("WCET: %d cycles\n", ws.Result.WCET)

	if *verbose {
		fmt.Println("\nWorst-case execution counts:")
		for fb, n := range ws.Result.BlockCount {
			fmt.Printf("  cfg=%d block=%d: %d\n", fb.CFG, fb.Block, n)
		}
		for fb, warnings := range ws.Warnings {
			for _, w := range warnings {
				fmt.Printf("  warning (cfg=%d block=%d): %s\n", fb.CFG, fb.Block, w)
			}
		}
	}
}

func loadScenario(name string) (*fixture.Scenario, error) {
	switch name {
	case "s1":
		return fixture.S1()
	case "s2":
		return fixture.S2()
	case "s3":
		return fixture.S3()
	case "s4":
		return fixture.S4()
	case "s5":
		return fixture.S5()
	case "s6":
		return fixture.S6()
	default:
		return nil, fmt.Errorf("unknown scenario %q (want one of s1, s2, s3, s4, s5, s6)", name)
	}
}
