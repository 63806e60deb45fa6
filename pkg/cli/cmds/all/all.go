// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/dualdrive/pkg/cli/cmds/drive"
)
