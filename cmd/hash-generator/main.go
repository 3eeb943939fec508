// Command hash-generator prints bcrypt hashes in the format stored in
// users.hashed_password, for seeding accounts by hand.
//
// Passwords are taken from the arguments, or one per line from stdin when
// no arguments are given.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/taskflow/internal/service/auth"
)

func main() {
	cost := flag.Int("cost", 10, "bcrypt cost (4-31)")
	flag.Parse()

	if err := run(auth.NewBcryptHasher(*cost), flag.Args(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "hash-generator: %v\n", err)
		os.Exit(1)
	}
}

func run(hasher auth.PasswordHasher, args []string, in io.Reader, out io.Writer) error {
	passwords := args
	if len(passwords) == 0 {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				passwords = append(passwords, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read passwords: %w", err)
		}
	}

	for _, password := range passwords {
		hash, err := hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		fmt.Fprintln(out, hash)
	}
	return nil
}
