//go:build !linux && !darwin

package sysinfo

import "errors"

func diskUsage(path string) (*DiskUsage, error) {
	return nil, errors.New("disk usage not supported on this platform")
}
