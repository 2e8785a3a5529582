// Package term содержит интерактивный ввод из терминала: скрытый ввод ключа API
// и вставку переписки.
package term

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"golang.org/x/xerrors"
)

// EndMarker завершает вставку переписки, если поток нельзя закрыть через Ctrl-D.
const EndMarker = "/end"

// ErrEmptyInput возвращается, если пользователь ничего не ввел.
var ErrEmptyInput = xerrors.New("empty input")

// Terminal обеспечивает интерактивный ввод через терминал.
type Terminal struct {
	in      *bufio.Reader
	out     io.Writer
	stdinfd int

	readPassword func(fd int) ([]byte, error)
	isTerminal   func(fd int) bool
}

// NewTerminal создает новый экземпляр Terminal поверх os.Stdin и os.Stdout.
func NewTerminal() *Terminal {
	return newTerminal(os.Stdin, os.Stdout, int(os.Stdin.Fd()))
}

func newTerminal(in io.Reader, out io.Writer, fd int) *Terminal {
	return &Terminal{
		in:           bufio.NewReader(in),
		out:          out,
		stdinfd:      fd,
		readPassword: term.ReadPassword,
		isTerminal:   term.IsTerminal,
	}
}

// IsInteractive сообщает, подключен ли stdin к терминалу.
func (t *Terminal) IsInteractive() bool {
	return t.isTerminal(t.stdinfd)
}

// APIKey запрашивает ключ API. В терминале ввод не отображается.
func (t *Terminal) APIKey(_ context.Context) (string, error) {
	fmt.Fprint(t.out, "Enter Gemini API key: ")

	var key string
	if t.IsInteractive() {
		raw, err := t.readPassword(t.stdinfd)
		if err != nil {
			return "", xerrors.Errorf("failed to read api key: %w", err)
		}
		fmt.Fprintln(t.out) // Новая строка после ввода
		key = string(raw)
	} else {
		line, err := t.in.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", xerrors.Errorf("failed to read api key: %w", err)
		}
		key = line
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmptyInput
	}
	return key, nil
}

// ReadTranscript читает вставленную переписку до конца потока или строки EndMarker.
func (t *Terminal) ReadTranscript(ctx context.Context) (string, error) {
	if t.IsInteractive() {
		fmt.Fprintf(t.out, "Paste your chat, then press Ctrl-D or type %s on its own line:\n", EndMarker)
	}

	var sb strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		line, err := t.in.ReadString('\n')
		if strings.TrimSpace(line) == EndMarker {
			break
		}
		sb.WriteString(line)

		if err == io.EOF {
			break
		}
		if err != nil {
			return "", xerrors.Errorf("failed to read transcript: %w", err)
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}
	return text, nil
}
