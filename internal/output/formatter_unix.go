//go:build !windows

package output

import "os"

// enableANSI needs no setup on Unix terminals
func enableANSI(_ *os.File) bool {
	return true
}
