package main

import (
	"os"

	"github.com/mitchellh/go-homedir"
)

// expandPath expands a leading ~ and environment variables.
func expandPath(path string) string {
	p, err := homedir.Expand(path)
	if err != nil {
		return os.ExpandEnv(path)
	}
	return os.ExpandEnv(p)
}
