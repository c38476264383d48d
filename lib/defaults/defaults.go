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

package defaults

import (
	"time"
)

const (
	// ConnectivityRetryTimeout bounds how long the connectivity checker retries
	// a freshly booted host with exponential backoff before reporting it unreachable
	ConnectivityRetryTimeout = 2 * time.Minute

	// PathEnvVal is a default value for PATH environment variable set for remote commands
	PathEnvVal = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

	// PathEnv is a name for standard linux path environment variable
	PathEnv = "PATH"

	// SharedDirMask is a mask for shared directories
	SharedDirMask = 0755

	// SharedExecutableMask is a mask for shared executable file
	SharedExecutableMask = 0755

	// SharedReadMask is a mask for a shared file with read access for everyone
	SharedReadMask = 0644

	// SharedReadWriteMask is a mask for a shared file with read/write access for everyone
	SharedReadWriteMask = 0666

	// PrivateDirMask is a mask for private directories
	PrivateDirMask = 0700

	// PrivateFileMask is a mask for private files
	PrivateFileMask = 0600

	// ContainerEnvironmentFile specifies the location of the file for container environment;
	// no checker in this tree reads it
	ContainerEnvironmentFile = "/etc/container-environment"

	// EnvironmentPath is the path to the system-wide environment file
	EnvironmentPath = "/etc/environment"

	// SSHPort is the default TCP port for outbound SSH connections to managed hosts
	SSHPort = 22

	// SSHDialTimeout is a default TCP dial timeout for SSH connection attempts
	SSHDialTimeout = 30 * time.Second

	// SSHConnectTimeout is a time limit for a single remote SSH command; no
	// caller applies it, so remote commands are bounded only by their context
	SSHConnectTimeout = 1 * time.Minute

	// SSHHandshakeTimeout bounds the SSH client's key exchange/handshake phase
	SSHHandshakeTimeout = 15 * time.Second

	// KnownHostsFile is the conventional location of the SSH known_hosts file;
	// executor.Dial does not read it and accepts any host key
	KnownHostsFile = ".ssh/known_hosts"

	// PlaybookTimeout bounds how long a single playbook invocation against one
	// host is allowed to run
	PlaybookTimeout = 30 * time.Minute

	// PlaybookBin is the default name of the remote-automation CLI invoked to run playbooks
	PlaybookBin = "ansible-playbook"

	// MaxConcurrentNodes is the default maximum number of hosts that can be
	// provisioned in parallel when the configuration does not specify a limit
	MaxConcurrentNodes = 10

	// TaskPollInterval is a polling interval for pause/cancel signals; the
	// scheduler does not poll, its checkpoint between tasks blocks on the run
	// context's pause barrier instead
	TaskPollInterval = 250 * time.Millisecond

	// EventQueueSize is the default bound on a single event subscriber's queue
	EventQueueSize = 1024

	// LogMaxSizeMB is the default rotation threshold for the file sinks, in megabytes
	LogMaxSizeMB = 10

	// LogMaxBackups is the default number of rotated log files retained
	LogMaxBackups = 5

	// LogMaxAgeDays is the default maximum age of a rotated log file, in days
	LogMaxAgeDays = 28

	// MinDiskSpaceMB is the default minimum amount of free disk space required
	// by the disk space checker, in megabytes
	MinDiskSpaceMB = 1024

	// MinMemoryMB is the default minimum amount of available memory required by the
	// memory checker, in megabytes
	MinMemoryMB = 512

	// ConfigFile is a default filename for the declarative run configuration
	ConfigFile = "nodestack.yaml"

	// DataDir is a conventional directory for run artifacts (per-run logs,
	// generated inventories); configuration loading does not fall back to it
	// when general.data_dir is unset
	DataDir = "/var/lib/nodestack"

	// RunLogFile is a name for a run log file; the main event sink does not
	// use it and writes data_dir/log/deploy.log
	RunLogFile = "nodestack.log"
)
