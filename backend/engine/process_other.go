//go:build !unix

package engine

import "os/exec"

func killGroupOnCancel(cmd *exec.Cmd) {}
