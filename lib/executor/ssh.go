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

// Package executor is the host executor: it owns the SSH transport used to
// run preflight checks and to invoke installer playbooks on a remote host.
package executor

import (
	"bufio"
	"context"
	"io/ioutil"
	"net"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/nodestack/nodestack/lib/config"
	"github.com/nodestack/nodestack/lib/defaults"
	"github.com/nodestack/nodestack/lib/utils"
)

const exitStatusUndefined = -1

// Client is a connected SSH session factory bound to a single host. It
// implements checks.Runner so preflight checkers can drive it directly.
type Client struct {
	host   config.HostSpec
	client *ssh.Client
	logger logrus.FieldLogger
}

// Dial opens an SSH connection to host authenticating as creds
func Dial(ctx context.Context, host config.HostSpec, creds config.Credentials) (*Client, error) {
	auth, err := authMethod(creds)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	clientConfig := &ssh.ClientConfig{
		User:            creds.User,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         defaults.SSHHandshakeTimeout,
	}
	dialer := net.Dialer{Timeout: defaults.SSHDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", host.Addr())
	if err != nil {
		return nil, trace.Wrap(err, "failed to reach %v", host.Addr())
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, host.Addr(), clientConfig)
	if err != nil {
		conn.Close()
		return nil, trace.Wrap(err, "SSH handshake with %v failed", host.Addr())
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	return &Client{
		host:   host,
		client: client,
		logger: logrus.WithField("host", host.Name),
	}, nil
}

func authMethod(creds config.Credentials) (ssh.AuthMethod, error) {
	if creds.KeyPath != "" {
		data, err := ioutil.ReadFile(creds.KeyPath)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			return nil, trace.Wrap(err, "failed to parse private key %v", creds.KeyPath)
		}
		return ssh.PublicKeys(signer), nil
	}
	return ssh.Password(creds.Password), nil
}

// Close closes the underlying SSH connection
func (c *Client) Close() error {
	return c.client.Close()
}

// Run executes cmd on the remote host and returns its stdout and exit
// status; stderr is logged, not returned. It implements checks.Runner.
func (c *Client) Run(ctx context.Context, cmd string) (string, int, error) {
	var out string
	exit, err := utils.SSHRunAndParse(ctx, c.client, c.logger, cmd, nil, captureString(&out))
	if err != nil {
		if exit != exitStatusUndefined {
			return out, exit, nil
		}
		return out, exit, trace.Wrap(err)
	}
	return out, exit, nil
}

// RunEnv executes cmd with the given environment variables set, discarding output
func (c *Client) RunEnv(ctx context.Context, cmd string, env map[string]string) (int, error) {
	return utils.SSHRunAndParse(ctx, c.client, c.logger, cmd, env, utils.ParseDiscard)
}

func captureString(out *string) utils.OutputParseFn {
	return func(r *bufio.Reader) error {
		b, err := ioutil.ReadAll(r)
		if err != nil {
			return trace.Wrap(err)
		}
		*out = string(b)
		return nil
	}
}
