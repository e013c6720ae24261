package cache

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// ValkeyConfig holds connection parameters for a Valkey/Redis-compatible
// server.
type ValkeyConfig struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
	TLS          bool
}

// ValkeyProvider implements Provider over a Valkey server, dialing a fresh
// connection per operation. Throughput demands here are modest (one ingest
// page per call), so connection pooling is not worth its complexity.
type ValkeyProvider struct {
	cfg ValkeyConfig
}

// NewValkeyProvider validates the configuration and pings the target so bad
// credentials or connectivity fail at startup, not mid-run.
func NewValkeyProvider(cfg ValkeyConfig) (*ValkeyProvider, error) {
	if cfg.Addr == "" {
		return nil, errors.New("valkey addr is required")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 500 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 500 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}

	p := &ValkeyProvider{cfg: cfg}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	_, err := p.command(ctx, "PING")
	if err != nil {
		return nil, fmt.Errorf("valkey ping: %w", err)
	}
	return p, nil
}

// Get fetches bytes by key, returning ErrCacheMiss when the key is absent.
func (p *ValkeyProvider) Get(ctx context.Context, key string) ([]byte, error) {
	reply, err := p.command(ctx, "GET", key)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, ErrCacheMiss
	}
	return reply, nil
}

// Set stores bytes with the provided TTL.
func (p *ValkeyProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := []string{"SET", key, string(value)}
	if ttl > 0 {
		args = append(args, "PX", strconv.FormatInt(ttl.Milliseconds(), 10))
	}
	reply, err := p.command(ctx, args...)
	if err != nil {
		return err
	}
	if !strings.EqualFold(string(reply), "OK") {
		return fmt.Errorf("unexpected SET response: %s", reply)
	}
	return nil
}

// Del removes a key.
func (p *ValkeyProvider) Del(ctx context.Context, key string) error {
	_, err := p.command(ctx, "DEL", key)
	return err
}

// Close is a no-op: connections are per-operation.
func (p *ValkeyProvider) Close() error { return nil }

// command dials, authenticates, runs one command, and reads a single reply.
// Retries on timeouts up to MaxRetries attempts.
func (p *ValkeyProvider) command(ctx context.Context, args ...string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < p.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		reply, err := p.commandOnce(ctx, args)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		var netErr net.Error
		if !errors.As(err, &netErr) || !netErr.Timeout() {
			return nil, err
		}
		time.Sleep(time.Duration(1<<attempt) * 25 * time.Millisecond)
	}
	return nil, lastErr
}

func (p *ValkeyProvider) commandOnce(ctx context.Context, args []string) ([]byte, error) {
	conn, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	if p.cfg.Password != "" {
		auth := []string{"AUTH", p.cfg.Password}
		if p.cfg.Username != "" {
			auth = []string{"AUTH", p.cfg.Username, p.cfg.Password}
		}
		if _, err := p.roundTrip(conn, reader, writer, auth); err != nil {
			return nil, fmt.Errorf("valkey auth: %w", err)
		}
	}
	if p.cfg.DB > 0 {
		if _, err := p.roundTrip(conn, reader, writer, []string{"SELECT", strconv.Itoa(p.cfg.DB)}); err != nil {
			return nil, fmt.Errorf("valkey select: %w", err)
		}
	}
	return p.roundTrip(conn, reader, writer, args)
}

func (p *ValkeyProvider) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: p.cfg.DialTimeout}
	if p.cfg.TLS {
		host := p.cfg.Addr
		if h, _, err := net.SplitHostPort(p.cfg.Addr); err == nil {
			host = h
		}
		return tls.DialWithDialer(&dialer, "tcp", p.cfg.Addr, &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: host,
		})
	}
	return dialer.DialContext(ctx, "tcp", p.cfg.Addr)
}

// roundTrip writes one RESP command array and decodes one reply. A nil
// result with nil error is a RESP null (absent key).
func (p *ValkeyProvider) roundTrip(conn net.Conn, reader *bufio.Reader, writer *bufio.Writer, args []string) ([]byte, error) {
	if err := conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout)); err != nil {
		return nil, err
	}
	fmt.Fprintf(writer, "*%d\r\n", len(args))
	for _, arg := range args {
		fmt.Fprintf(writer, "$%d\r\n%s\r\n", len(arg), arg)
	}
	if err := writer.Flush(); err != nil {
		return nil, err
	}

	if err := conn.SetReadDeadline(time.Now().Add(p.cfg.ReadTimeout)); err != nil {
		return nil, err
	}
	return readReply(reader)
}

func readReply(reader *bufio.Reader) ([]byte, error) {
	prefix, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	line, err := readLine(reader)
	if err != nil {
		return nil, err
	}
	switch prefix {
	case '+', ':':
		return line, nil
	case '-':
		return nil, errors.New(string(line))
	case '$':
		size, err := strconv.Atoi(string(line))
		if err != nil {
			return nil, err
		}
		if size == -1 {
			return nil, nil
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(reader, buf); err != nil {
			return nil, err
		}
		return buf[:size], nil
	default:
		return nil, fmt.Errorf("unexpected RESP prefix %q", prefix)
	}
}

func readLine(reader *bufio.Reader) ([]byte, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}
