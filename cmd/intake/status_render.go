package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

type checkState int

const (
	checkInfo checkState = iota
	checkOK
	checkWarn
	checkFail
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func renderCheckLine(label string, state checkState, detail string, colorize bool) string {
	tag := "INFO"
	color := ""
	switch state {
	case checkOK:
		tag, color = "OK", ansiGreen
	case checkWarn:
		tag, color = "WARN", ansiYellow
	case checkFail:
		tag, color = "ERROR", ansiRed
	}
	text := fmt.Sprintf("[%s]", tag)
	if detail != "" {
		text = fmt.Sprintf("[%s] %s", tag, detail)
	}
	line := fmt.Sprintf("  %-18s %s", label+":", text)
	if colorize && color != "" {
		return color + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
