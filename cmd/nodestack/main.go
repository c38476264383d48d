/*
Copyright 2018 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/nodestack/nodestack/cmd/nodestack/cli"
	"github.com/nodestack/nodestack/tool/common"
)

func main() {
	if err := run(); err != nil {
		common.PrintError(err)
		os.Exit(exitCodeFor(err))
	}
}

func run() error {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	app := cli.NewApp()
	return app.Run(os.Args[1:])
}

func exitCodeFor(err error) int {
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		return coder.ExitCode()
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}
