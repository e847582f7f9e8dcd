// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/monodeploy/monodeploy/cmd/monodeploy"

func main() {
	cmd.Execute()
}
