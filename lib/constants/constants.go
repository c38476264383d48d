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

// package constants contains global constants
// shared between packages
package constants

const (
	// FieldCommand is a command executed on server
	FieldCommand = "cmd"
	// FieldCommandError is boolean indicator of whether command resulted in error
	FieldCommandError = "cmderr"
	// FieldCommandErrorReport is error message if command resulted in error
	FieldCommandErrorReport = "errmsg"

	// FieldCommandStderr records executed command's stderr in log
	FieldCommandStderr = "stderr"

	// FieldCommandStdout records executed command's stdout in log.
	//
	// For some commands outputting error details to stdout, log
	// entry for a failed command will contain both stderr and stdout
	FieldCommandStdout = "stdout"

	// FieldHost is the log field with the target host name or address
	FieldHost = "host"
	// FieldTask is the log field with the task identifier
	FieldTask = "task"
	// FieldPhase is the log field with phase name
	FieldPhase = "phase"
	// FieldDir is the log field that contains a directory path which meaning
	// is specific to the component doing the logging
	FieldDir = "dir"
	// FieldSuccess contains boolean value whether something succeeded or not
	FieldSuccess = "success"
	// FieldError contains error message
	FieldError = "error"

	// EnvHome is home environment variable
	EnvHome = "HOME"

	// EnvSudoUser is environment variable containing name of the user who invoked "sudo"
	EnvSudoUser = "SUDO_USER"

	// Completed defines the value of progress when an operation is
	// considered done (successful or failed)
	Completed = 100

	// GravityBin is retained as the name of this tool's own binary;
	// nothing in this tree re-invokes the binary by this name
	GravityBin = "nodestack"

	// HumanDateFormat is a human readable date formatting
	HumanDateFormat = "Mon Jan _2 15:04 UTC"

	// HumanDateFormatSeconds is a human readable date formatting with seconds
	HumanDateFormatSeconds = "Mon Jan _2 15:04:05 UTC"

	// HumanDateFormatMilli is a human readable date formatting with milliseconds
	HumanDateFormatMilli = "Mon Jan _2 15:04:05.000 UTC"

	// ShortDateFormat is the short version of human readable timestamp format
	ShortDateFormat = "2006-01-02 15:04"

	// TimeFormat is the time format that only displays time
	TimeFormat = "15:04"

	// Required means that this value is required
	Required = "required"

	// SuccessMark is used in CLI to visually indicate success
	SuccessMark = "✓"
	// FailureMark is used in CLI to visually indicate failure
	FailureMark = "×"
	// InProgressMark is used in CLI to visually indicate progress
	InProgressMark = "→"
	// WarnMark is used in CLI to visually indicate a warning
	WarnMark = "!"
	// SkippedMark is used in CLI to visually indicate a skipped task
	SkippedMark = "⤻"

	// Localhost is local host
	Localhost = "127.0.0.1"
)

// Format is the type for supported output formats
type Format string

// Set sets the format value
func (f *Format) Set(v string) error {
	*f = Format(v)
	return nil
}

// String returns the format string representation
func (f *Format) String() string {
	return string(*f)
}

var (
	// EncodingJSON is for the JSON encoding format
	EncodingJSON Format = "json"
	// EncodingText is for the plain-text encoding format
	EncodingText Format = "text"
	// EncodingYAML is for the YAML encoding format
	EncodingYAML Format = "yaml"
	// OutputFormats is a list of recognized output formats for the CLI
	OutputFormats = []Format{
		EncodingText,
		EncodingJSON,
		EncodingYAML,
	}
)
