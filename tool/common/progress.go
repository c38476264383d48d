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

package common

import (
	"fmt"
	"os"

	"github.com/nodestack/nodestack/lib/utils"
)

// PrintHostProgress prints an incremental progress line for a host pipeline,
// e.g. while streaming task completion counts during a run
func PrintHostProgress(host string, current, target int) {
	fmt.Fprintf(os.Stdout, "\r%v %v %v/%v tasks", host, utils.ProgressBar(int64(current), int64(target)), current, target)
	if current == target {
		fmt.Fprintf(os.Stdout, "\n")
	}
}
