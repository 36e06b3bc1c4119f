package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const protocolVersion = "2024-11-05"

// rpcError is a JSON-RPC error object returned by the server.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message) }

type rpcResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// client manages JSON-RPC communication with a single MCP server (stdio or HTTP).
type client struct {
	name       string
	cfg        ServerConfig
	httpClient *http.Client
	sessionID  string

	// Stdio fields (non-nil when command-based or piped)
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	mu     sync.Mutex
	nextID int64
	// broken is set once a stdio read was abandoned; the stream is then out
	// of step and no further calls are attempted.
	broken error
}

func newClient(name string, cfg ServerConfig) *client {
	return &client{
		name: name,
		cfg:  cfg,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// newPipeClient talks to a server already wired to r and w.
func newPipeClient(name string, r io.Reader, w io.WriteCloser) *client {
	c := newClient(name, ServerConfig{})
	c.stdin = w
	c.stdout = bufio.NewReader(r)
	return c
}

// connect starts the MCP server subprocess (or prepares HTTP) and initializes.
func (c *client) connect(ctx context.Context) error {
	switch {
	case c.stdin != nil:
	case c.cfg.Command != "":
		if err := c.startProcess(); err != nil {
			return err
		}
	case c.cfg.URL != "":
	default:
		return fmt.Errorf("MCP server %q: no command or url configured", c.name)
	}

	if err := c.initialize(ctx); err != nil {
		c.close()
		return fmt.Errorf("initialize: %w", err)
	}
	return nil
}

func (c *client) startProcess() error {
	// The subprocess outlives the connect context; close() stops it.
	c.cmd = exec.Command(c.cfg.Command, c.cfg.Args...)
	c.cmd.Env = os.Environ()
	for k, v := range c.cfg.Env {
		c.cmd.Env = append(c.cmd.Env, k+"="+v)
	}
	c.cmd.Stderr = os.Stderr

	stdinPipe, err := c.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdoutPipe, err := c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	c.stdin = stdinPipe
	c.stdout = bufio.NewReader(stdoutPipe)

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("start MCP server: %w", err)
	}
	return nil
}

func (c *client) close() error {
	var err error
	if c.stdin != nil {
		err = c.stdin.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		c.cmd.Process.Kill() //nolint:errcheck
		c.cmd.Wait()         //nolint:errcheck
	}
	return err
}

// listTools returns the raw tool entries exposed by this MCP server.
func (c *client) listTools(ctx context.Context) ([]rawTool, error) {
	resp, err := c.call(ctx, "tools/list", map[string]any{})
	if err != nil {
		return nil, err
	}
	var result struct {
		Tools []rawTool `json:"tools"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("decode tools/list: %w", err)
	}
	return result.Tools, nil
}

// callTool invokes a named tool and returns the raw tools/call result.
func (c *client) callTool(ctx context.Context, toolName string, args map[string]any) (json.RawMessage, error) {
	if args == nil {
		args = map[string]any{}
	}
	return c.call(ctx, "tools/call", map[string]any{
		"name":      toolName,
		"arguments": args,
	})
}

// ---------------------------------------------------------------------------
// JSON-RPC plumbing
// ---------------------------------------------------------------------------

func (c *client) initialize(ctx context.Context) error {
	params := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "gitcourier", "version": "1.0"},
	}
	if _, err := c.call(ctx, "initialize", params); err != nil {
		return err
	}
	return c.notify(ctx, "notifications/initialized")
}

func (c *client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := atomic.AddInt64(&c.nextID, 1)
	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var resp *rpcResponse
	if c.stdin != nil {
		resp, err = c.roundTripStdio(ctx, id, data)
	} else {
		resp, err = c.roundTripHTTP(ctx, id, data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%s: %w", method, resp.Error)
	}
	return resp.Result, nil
}

func (c *client) notify(ctx context.Context, method string) error {
	data, _ := json.Marshal(map[string]any{"jsonrpc": "2.0", "method": method})
	if c.stdin != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, err := fmt.Fprintf(c.stdin, "%s\n", data)
		return err
	}

	resp, err := c.postHTTP(ctx, data)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// roundTripStdio writes one request and reads lines until the response with
// the same id arrives. Calls are serialized.
func (c *client) roundTripStdio(ctx context.Context, id int64, data []byte) (*rpcResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		return nil, c.broken
	}
	if _, err := fmt.Fprintf(c.stdin, "%s\n", data); err != nil {
		return nil, fmt.Errorf("write to MCP stdin: %w", err)
	}

	type lineResult struct {
		resp *rpcResponse
		err  error
	}
	done := make(chan lineResult, 1)
	go func() {
		for {
			line, err := c.stdout.ReadString('\n')
			if err != nil {
				done <- lineResult{err: fmt.Errorf("read MCP stdout: %w", err)}
				return
			}
			if resp, ok := matchResponse([]byte(line), id); ok {
				done <- lineResult{resp: resp}
				return
			}
		}
	}()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		// The reader goroutine ends when the server answers or the pipe closes.
		c.broken = fmt.Errorf("MCP server %q: stream abandoned: %w", c.name, ctx.Err())
		return nil, ctx.Err()
	}
}

// matchResponse decodes line and reports whether it is the response to id.
// Log output, notifications and other ids are skipped.
func matchResponse(line []byte, id int64) (*rpcResponse, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false
	}
	var resp rpcResponse
	if err := json.Unmarshal(line, &resp); err != nil || len(resp.ID) == 0 {
		return nil, false
	}
	var got int64
	if err := json.Unmarshal(resp.ID, &got); err != nil || got != id {
		return nil, false
	}
	return &resp, true
}

func (c *client) postHTTP(ctx context.Context, data []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	if c.sessionID != "" {
		httpReq.Header.Set("Mcp-Session-Id", c.sessionID)
	}
	for k, v := range c.cfg.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if sid := resp.Header.Get("Mcp-Session-Id"); sid != "" {
		c.sessionID = sid
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func (c *client) roundTripHTTP(ctx context.Context, id int64, data []byte) (*rpcResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.postHTTP(ctx, data)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		return readEventStream(resp.Body, id)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &rpcResp, nil
}

// readEventStream scans an SSE body for the data event answering id.
func readEventStream(r io.Reader, id int64) (*rpcResponse, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		data, ok := strings.CutPrefix(sc.Text(), "data:")
		if !ok {
			continue
		}
		if resp, ok := matchResponse([]byte(data), id); ok {
			return resp, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, errors.New("event stream ended without a response")
}
