package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// DefaultShell — интерпретатор командных строк по умолчанию.
const DefaultShell = "/bin/bash"

// CommandExecutor запускает одну командную строку в директории dir.
//
// Возвращает ErrCommandFailed при ненулевом коде выхода
// и ErrCommandNotStarted, если процесс не запустился.
type CommandExecutor interface {
	Execute(ctx context.Context, dir, command string) error
}

// ShellExecutor запускает команды через "<Shell> -c <line>".
type ShellExecutor struct {
	// Shell — путь к интерпретатору. Пустая строка — DefaultShell.
	Shell string

	// Stdout и Stderr — куда направлять вывод команд.
	// nil означает /dev/null.
	Stdout io.Writer
	Stderr io.Writer
}

// NewShellExecutor создаёт executor, который наследует stdout/stderr процесса.
func NewShellExecutor(shell string) *ShellExecutor {
	return &ShellExecutor{
		Shell:  shell,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Execute реализует CommandExecutor.
func (e *ShellExecutor) Execute(ctx context.Context, dir, command string) error {
	shell := e.Shell
	if shell == "" {
		shell = DefaultShell
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = dir
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w with exit status: %d", ErrCommandFailed, exitErr.ExitCode())
	}
	return fmt.Errorf("%w: %w", ErrCommandNotStarted, err)
}
