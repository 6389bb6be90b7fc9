// Questlint validates quest definition files without starting a server.
//
// Usage:
//
//	go run ./cmd/questlint -dir config/quests
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/udisondev/questd/internal/game/quest"
)

func main() {
	dir := flag.String("dir", "config/quests", "quest root containing quests/ and daily/")
	flag.Parse()

	os.Exit(lint(os.Stdout, quest.DirSource{Root: *dir}))
}

// lint prints every problem found in src and returns the process exit code.
func lint(out io.Writer, src quest.Source) int {
	records, err := src.Records()
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return 2
	}
	problems, err := quest.Lint(src)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return 2
	}
	for _, p := range problems {
		fmt.Fprintln(out, p)
	}
	fmt.Fprintf(out, "%d records, %d problems\n", len(records), len(problems))
	if len(problems) > 0 {
		return 1
	}
	return 0
}
