//go:build linux

package proctitle

import (
	"errors"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// the kernel keeps 15 bytes plus the terminating NUL
const commMax = 15

// Set renames the process so it shows up under title in ps and top.
func Set(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("proctitle: empty title")
	}
	if len(os.Args) > 0 {
		os.Args[0] = title
	}
	name := make([]byte, commMax+1)
	copy(name, title)
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&name[0])), 0, 0, 0)
}
