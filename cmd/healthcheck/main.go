package main

import (
	"aiedu_backend/internal/healthcheck"
	"fmt"
	"io"
	"os"
)

func run(dir string, stdout, stderr io.Writer) int {
	env, err := healthcheck.LoadEnv(dir)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	report := healthcheck.Check(dir, env)
	healthcheck.Print(stdout, report)
	return report.ExitCode()
}

func main() {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(run(dir, os.Stdout, os.Stderr))
}
