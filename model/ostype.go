package model

import (
	"fmt"
	"strings"
)

// OsType is the target operating system family for a collection run.
type OsType string

const (
	OsLinux   OsType = "linux"
	OsWindows OsType = "windows"
)

// ParseOsType parses a case-insensitive OS name.
func ParseOsType(s string) (OsType, error) {
	switch strings.ToLower(s) {
	case "linux":
		return OsLinux, nil
	case "windows":
		return OsWindows, nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", s)
	}
}

func (o OsType) IsLinux() bool   { return o == OsLinux }
func (o OsType) IsWindows() bool { return o == OsWindows }
func (o OsType) String() string  { return string(o) }
