package debugger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// RunCLI drives the line-based debug shell: print a prompt, read a
// command, run it, print whatever it wrote to the output buffer,
// repeat until "q" or EOF. When in is a terminal it puts the terminal
// into raw mode for the whole session (restored when RunCLI returns)
// and reads lines through a term.Terminal, falling back to a plain
// bufio.Scanner for piped input (fixtures, redirected files).
func RunCLI(dbg *Debugger, in io.Reader, out io.Writer) error {
	readLine, cleanup, err := lineReader(in, out)
	if err != nil {
		return err
	}
	defer cleanup()

	for {
		fmt.Fprint(out, "(luz) ")
		line, err := readLine()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}

		cmdErr := dbg.ExecuteCommand(line)
		if text := dbg.GetOutput(); text != "" {
			fmt.Fprint(out, text)
		}
		if errors.Is(cmdErr, ErrQuit) {
			return nil
		}
		if cmdErr != nil {
			fmt.Fprintf(out, "error: %v\n", cmdErr)
		}
	}
}

// RunTUI runs the full-screen debugger front end.
func RunTUI(dbg *Debugger) error {
	return NewTUI(dbg).Run()
}

// lineReader returns a function that reads one line at a time, using
// a raw-mode terminal reader when in is a terminal file and a plain
// scanner otherwise.
func lineReader(in io.Reader, out io.Writer) (func() (string, error), func(), error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		scanner := bufio.NewScanner(in)
		return func() (string, error) {
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return "", err
				}
				return "", io.EOF
			}
			return scanner.Text(), nil
		}, func() {}, nil
	}

	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, nil, fmt.Errorf("enter raw mode: %w", err)
	}
	t := term.NewTerminal(f, "")
	cleanup := func() { _ = term.Restore(fd, state) }
	return func() (string, error) {
		return t.ReadLine()
	}, cleanup, nil
}
