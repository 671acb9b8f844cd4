package executor

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// SshExecutor runs commands on a remote Linux host over SSH, one new
// session per command (sessions cannot be reused for multiple execs).
type SshExecutor struct {
	client *ssh.Client
}

// ConnectSSH dials target:port and authenticates using, in order: an
// explicit private key file, a password, then any identities offered by
// a running ssh-agent. This mirrors the auth priority of the reference
// implementation's SSH transport.
func ConnectSSH(ctx context.Context, host string, port int, user string, keyPath, password string) (*SshExecutor, error) {
	if user == "" {
		user = "root"
	}

	var methods []ssh.AuthMethod

	if keyPath != "" {
		key, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("ssh: reading key %s: %w", keyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("ssh: parsing key %s: %w", keyPath, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if password != "" {
		methods = append(methods, ssh.Password(password))
	}

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			ag := agent.NewClient(conn)
			methods = append(methods, ssh.PublicKeysCallback(ag.Signers))
		}
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("ssh: no authentication method available (no key, password, or agent)")
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            methods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint: no host key pinning in a one-shot audit tool
		Timeout:         15 * time.Second,
	}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	dialer := net.Dialer{Timeout: config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ssh: dial %s: %w", addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh: handshake with %s: %w", addr, err)
	}

	return &SshExecutor{client: ssh.NewClient(sshConn, chans, reqs)}, nil
}

func (e *SshExecutor) Execute(ctx context.Context, command string) (Result, error) {
	session, err := e.client.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("ssh: new session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		// Let the in-flight command finish; we stop waiting, not the remote process.
		<-done
		return Result{Stdout: stdout.String(), Stderr: stderr.String()}, ctx.Err()
	case runErr := <-done:
		var exitCode *int32
		if runErr == nil {
			code := int32(0)
			exitCode = &code
		} else if exitErr, ok := runErr.(*ssh.ExitError); ok {
			code := int32(exitErr.ExitStatus())
			exitCode = &code
			runErr = nil
		}
		return Result{ExitCode: exitCode, Stdout: stdout.String(), Stderr: stderr.String()}, runErr
	}
}

func (e *SshExecutor) Close() error { return e.client.Close() }
