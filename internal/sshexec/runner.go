package sshexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

const defaultConnectTimeout = 20 * time.Second

// Config holds the connection settings of the managed host. Either
// Password or KeyFile must be set; when both are set the key is tried
// first.
type Config struct {
	// Addr is the SSH address of the host in "host:port" form.
	Addr string

	// User is the remote login user.
	User string

	// Password is the remote login password. Optional if KeyFile is set.
	Password string

	// KeyFile is the path to a PEM-encoded private key. Optional if
	// Password is set.
	KeyFile string

	// ConnectTimeout bounds the TCP dial and SSH handshake. The remote
	// command itself runs without a deadline. Defaults to 20 seconds.
	ConnectTimeout time.Duration
}

// Runner executes shell commands on a fixed remote host over SSH.
//
// Every call opens a fresh connection and session: there is no pooling,
// multiplexing or keep-alive. Host keys are not verified.
type Runner struct {
	addr      string
	clientCfg *ssh.ClientConfig
}

// NewRunner creates a new [Runner] for the given host. It fails if the
// configuration names no usable authentication method or the private key
// cannot be parsed.
func NewRunner(cfg Config) (*Runner, error) {
	var auth []ssh.AuthMethod

	if cfg.KeyFile != "" {
		pem, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}
	if len(auth) == 0 {
		return nil, errors.New("ssh: no authentication method configured")
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = defaultConnectTimeout
	}

	return &Runner{
		addr: cfg.Addr,
		clientCfg: &ssh.ClientConfig{
			User:            cfg.User,
			Auth:            auth,
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
			Timeout:         timeout,
		},
	}, nil
}

// Run executes one command on the remote host and returns its text output.
//
// On a zero exit status the standard output is returned; on a nonzero exit
// status the standard error text is returned instead, with no error — the
// caller cannot tell a failed docker invocation from a successful one.
// Only transport-level failures (dial, handshake, session setup) are
// reported as errors.
func (r *Runner) Run(ctx context.Context, command string) (string, error) {
	d := net.Dialer{Timeout: r.clientCfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", r.addr)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", r.addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, r.addr, r.clientCfg)
	if err != nil {
		conn.Close()
		return "", fmt.Errorf("ssh handshake with %s: %w", r.addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("open ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Run(command); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			// The command ran but exited nonzero: its stderr is the output.
			if out := strings.TrimSpace(stderr.String()); out != "" {
				return out, nil
			}
			return strings.TrimSpace(stdout.String()), nil
		}
		return "", fmt.Errorf("run remote command: %w", err)
	}

	if out := strings.TrimSpace(stdout.String()); out != "" {
		return out, nil
	}
	// Some commands write their only output to stderr even on success.
	return strings.TrimSpace(stderr.String()), nil
}
