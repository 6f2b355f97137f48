package infra

import (
	"fmt"
	"os"
	"os/exec"

	shellwords "github.com/mattn/go-shellwords"
)

// runBuild runs the build command in dir with inherited stdio, so build output
// lands on the console of the synth process. A non-zero exit is fatal to the
// caller; there is no point declaring resources for a bundle that failed to
// build.
func runBuild(dir, command string) error {
	args, err := shellwords.Parse(command)
	if err != nil {
		return fmt.Errorf("parse build command %q: %w", command, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("empty build command")
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build command %q failed: %w", command, err)
	}
	return nil
}
