package ssh

import (
	"context"
	"encoding/binary"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/imamik/stratus/internal/util/keygen"
)

// startServer runs an SSH server on loopback that accepts clientKey and
// answers every exec request with reply and exit status.
func startServer(t *testing.T, clientKey []byte, reply string, status uint32) (string, int) {
	t.Helper()

	hostKey, err := keygen.GenerateEd25519KeyPair("host")
	require.NoError(t, err)
	hostSigner, err := ssh.ParsePrivateKey(hostKey.PrivateKey)
	require.NoError(t, err)
	clientSigner, err := ssh.ParsePrivateKey(clientKey)
	require.NoError(t, err)
	authorized := string(clientSigner.PublicKey().Marshal())

	cfg := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if string(key.Marshal()) == authorized {
				return nil, nil
			}
			return nil, assert.AnError
		},
	}
	cfg.AddHostKey(hostSigner)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConn(conn, cfg, reply, status)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func serveConn(conn net.Conn, cfg *ssh.ServerConfig, reply string, status uint32) {
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)
	for nc := range chans {
		ch, requests, err := nc.Accept()
		if err != nil {
			continue
		}
		go func() {
			for req := range requests {
				if req.Type != "exec" {
					_ = req.Reply(false, nil)
					continue
				}
				_ = req.Reply(true, nil)
				_, _ = ch.Write([]byte(reply))
				payload := make([]byte, 4)
				binary.BigEndian.PutUint32(payload, status)
				_, _ = ch.SendRequest("exit-status", false, payload)
				_ = ch.Close()
			}
		}()
	}
}

func testKey(t *testing.T) []byte {
	t.Helper()
	kp, err := keygen.GenerateEd25519KeyPair("stratus-test")
	require.NoError(t, err)
	return kp.PrivateKey
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Host: "203.0.113.10", PrivateKey: testKey(t)})
	require.NoError(t, err)

	assert.Equal(t, DefaultUser, c.config.User)
	assert.Equal(t, defaultPort, c.config.Port)
	assert.Equal(t, defaultDialTimeout, c.config.DialTimeout)
	assert.Equal(t, defaultMaxRetries, c.config.MaxRetries)
	assert.Equal(t, "203.0.113.10:22", c.Addr())
}

func TestNewClient_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"empty host", Config{PrivateKey: []byte("x")}, "host cannot be empty"},
		{"empty key", Config{Host: "h"}, "private key cannot be empty"},
		{"invalid key", Config{Host: "h", PrivateKey: []byte("not a key")}, "failed to parse private key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewClient(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	key := testKey(t)
	host, port := startServer(t, key, "active\n", 0)

	c, err := NewClient(Config{Host: host, Port: port, PrivateKey: key, MaxRetries: 1, RetryDelay: time.Millisecond})
	require.NoError(t, err)

	res, err := c.Run(context.Background(), "systemctl is-active nginx")
	require.NoError(t, err)
	assert.Equal(t, "active\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestRun_NonZeroExit(t *testing.T) {
	t.Parallel()

	key := testKey(t)
	host, port := startServer(t, key, "inactive\n", 3)

	c, err := NewClient(Config{Host: host, Port: port, PrivateKey: key, MaxRetries: 1, RetryDelay: time.Millisecond})
	require.NoError(t, err)

	res, err := c.Run(context.Background(), "systemctl is-active nginx")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "inactive\n", res.Stdout)
}

func TestRun_WrongKeyRejected(t *testing.T) {
	t.Parallel()

	host, port := startServer(t, testKey(t), "", 0)

	c, err := NewClient(Config{Host: host, Port: port, PrivateKey: testKey(t), MaxRetries: 1, RetryDelay: time.Millisecond})
	require.NoError(t, err)

	_, err = c.Run(context.Background(), "true")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to establish SSH connection")
}

func TestRun_ContextCancelled(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	c, err := NewClient(Config{Host: "127.0.0.1", Port: port, PrivateKey: testKey(t), MaxRetries: 100, RetryDelay: time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = c.Run(ctx, "true")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "port "+strconv.Itoa(port))
}
