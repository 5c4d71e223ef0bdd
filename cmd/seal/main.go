// Package main encrypts or decrypts a transaction export in place with a passphrase.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"ridership/internal/services/storage"
)

func main() {
	unseal := flag.Bool("unseal", false, "Decrypt the file instead of encrypting it")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-unseal] <data file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *unseal); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, unseal bool) error {
	store := storage.New()

	encrypted, err := store.IsEncrypted(path)
	if err != nil {
		return err
	}
	if encrypted != unseal {
		if unseal {
			return fmt.Errorf("%s is not encrypted", path)
		}
		return fmt.Errorf("%s is already encrypted", path)
	}

	passphrase, err := readPassphrase(!unseal)
	if err != nil {
		return err
	}

	if unseal {
		if err := store.Unlock(passphrase); err != nil {
			return err
		}
		if err := store.Unseal(path); err != nil {
			return err
		}
		fmt.Printf("Decrypted %s\n", path)
		return nil
	}

	if err := store.Seal(path, passphrase); err != nil {
		return err
	}
	fmt.Printf("Encrypted %s\n", path)
	return nil
}

// readPassphrase prompts on the terminal, asking twice when confirm is set.
// RIDERSHIP_PASSPHRASE is used instead when stdin is not a terminal.
func readPassphrase(confirm bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		if p := os.Getenv("RIDERSHIP_PASSPHRASE"); p != "" {
			return p, nil
		}
		return "", errors.New("no terminal: set RIDERSHIP_PASSPHRASE")
	}

	first, err := prompt(fd, "Passphrase: ")
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", errors.New("passphrase must not be empty")
	}
	if !confirm {
		return first, nil
	}

	second, err := prompt(fd, "Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passphrases do not match")
	}
	return first, nil
}

func prompt(fd int, label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(raw), nil
}
