// Command hashpw prints a password hash for AUTH_PASSWORD.
//
// The password is prompted for without echo when stdin is a terminal and
// read from the first line of stdin otherwise.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"journal/crypto"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func main() {
	scheme := flag.String("scheme", "bcrypt", "hash scheme: bcrypt or argon2id")
	flag.Parse()

	fd := int(os.Stdin.Fd())
	if err := run(*scheme, os.Stdin, os.Stdout, os.Stderr, term.IsTerminal(fd)); err != nil {
		fmt.Fprintln(os.Stderr, "hashpw:", err)
		os.Exit(1)
	}
}

func run(scheme string, stdin io.Reader, stdout, stderr io.Writer, interactive bool) error {
	hash, err := hasher(scheme)
	if err != nil {
		return err
	}

	var password string
	if interactive {
		fmt.Fprint(stderr, "Password: ")
		b, err := readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(stderr)
		if err != nil {
			return err
		}
		password = string(b)
	} else {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return errors.New("empty password")
	}

	encoded, err := hash(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, encoded)
	return nil
}

func hasher(scheme string) (func(string) (string, error), error) {
	switch scheme {
	case "bcrypt":
		return crypto.HashPassword, nil
	case "argon2id":
		return crypto.HashArgon2id, nil
	default:
		return nil, fmt.Errorf("%w: %s", crypto.ErrUnsupportedScheme, scheme)
	}
}
