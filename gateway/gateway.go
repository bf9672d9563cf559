// Package gateway provides an SSE relay for AI code-generation backends that
// reassembles streamed artifacts while staying transparent to the client.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"go.uber.org/zap"

	"github.com/reweaveco/reweave/gateway/header"
	"github.com/reweaveco/reweave/gateway/worker"
	"github.com/reweaveco/reweave/pkg/artifact"
	"github.com/reweaveco/reweave/pkg/eventstream"
	"github.com/reweaveco/reweave/pkg/reassembly"
	"github.com/reweaveco/reweave/pkg/sse"
	"github.com/reweaveco/reweave/pkg/storage"
)

// errorResponse is the JSON error body returned for gateway-side failures.
type errorResponse struct {
	Error string `json:"error"`
}

// Gateway relays generation requests to an upstream code-generation backend.
// It is transparent: the client receives the upstream byte stream verbatim
// while the gateway reassembles the fragments into artifacts and enqueues
// them for async persistence via its worker pool.
type Gateway struct {
	config        Config
	driver        storage.Driver
	workerPool    *worker.Pool
	logger        *zap.Logger
	httpClient    *http.Client
	server        *fiber.App
	headerHandler *header.Handler
	rules         reassembly.Rules

	// relays tracks in-flight streaming relay goroutines so Close can wait
	// for them before draining the worker pool.
	relays sync.WaitGroup
}

// New creates a new Gateway.
// The driver is injected to handle async persistence of completed artifacts.
func New(config Config, driver storage.Driver, logger *zap.Logger) (*Gateway, error) {
	if config.UpstreamURL == "" {
		return nil, errors.New("upstream URL is required")
	}

	rules := config.Rules
	if rules.Fence == (reassembly.Fence{}) {
		rules = reassembly.DefaultRules
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Enable streaming
		StreamRequestBody: true,
	})

	// Add compression middleware to handle responses
	app.Use(compress.New())

	wp, err := worker.NewPool(&worker.Config{
		Driver:    driver,
		Publisher: config.Publisher,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	g := &Gateway{
		config:        config,
		driver:        driver,
		workerPool:    wp,
		logger:        logger,
		server:        app,
		headerHandler: header.NewHandler(),
		rules:         rules,
		httpClient: &http.Client{
			// Generation streams can run long, especially for large projects
			Timeout: 5 * time.Minute,
		},
	}

	// Register transparent relay route - forwards any path to upstream
	app.All("/*", g.handleRelay)

	return g, nil
}

// Run starts the gateway server on the configured listening address
func (g *Gateway) Run() error {
	g.logger.Info("starting gateway server",
		zap.String("listen", g.config.ListenAddr),
		zap.String("upstream", g.config.UpstreamURL),
	)

	return g.server.Listen(g.config.ListenAddr)
}

// RunWithListener starts the gateway server using the provided listener.
func (g *Gateway) RunWithListener(listener net.Listener) error {
	g.logger.Info("starting gateway server",
		zap.String("listen", listener.Addr().String()),
		zap.String("upstream", g.config.UpstreamURL),
	)

	return g.server.Listener(listener)
}

// Close gracefully shuts down the gateway, waits for in-flight streaming
// relays to finish, then drains the worker pool.
func (g *Gateway) Close() error {
	err := g.server.Shutdown()
	g.relays.Wait()
	g.workerPool.Close()
	return err
}

// handleRelay is a transparent relay handler that forwards requests to the
// upstream backend. SSE responses are streamed through the reassembly engine;
// everything else is passed back as-is.
func (g *Gateway) handleRelay(c *fiber.Ctx) error {
	startTime := time.Now()
	path := c.Path()
	method := c.Method()

	project := strings.TrimSpace(c.Get(header.ProjectHeader))
	if project == "" {
		project = g.config.Project
	}

	var reqBody io.Reader
	if body := c.Body(); len(body) > 0 {
		reqBody = strings.NewReader(string(body))
	}

	// Use context.Background() instead of c.Context() because fasthttp
	// recycles its RequestCtx after the handler returns, but a streaming
	// response is consumed asynchronously in a separate goroutine and needs
	// the upstream connection to remain open.
	httpReq, err := http.NewRequestWithContext(context.Background(), method, g.config.UpstreamURL+path, reqBody)
	if err != nil {
		g.logger.Error("failed to create upstream request", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "internal error"})
	}

	g.headerHandler.SetUpstreamRequestHeaders(c, httpReq)

	g.logger.Debug("forwarding request to upstream",
		zap.String("method", method),
		zap.String("url", httpReq.URL.String()),
	)

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		g.logger.Error("upstream request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Error: "upstream request failed"})
	}

	// The split between streaming and buffered relay is decided by the
	// upstream's Content-Type rather than by inspecting the request, so
	// non-generation endpoints pass through untouched.
	if strings.HasPrefix(httpResp.Header.Get("Content-Type"), "text/event-stream") {
		return g.handleStreamingRelay(c, httpResp, project, startTime)
	}

	return g.handleBufferedRelay(c, httpResp)
}

// handleBufferedRelay reads the whole upstream response and sends it back.
func (g *Gateway) handleBufferedRelay(c *fiber.Ctx, httpResp *http.Response) error {
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		g.logger.Error("failed to read upstream response", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Error: "failed to read upstream response"})
	}

	g.headerHandler.SetClientResponseHeaders(c, httpResp)

	return c.Status(httpResp.StatusCode).Send(respBody)
}

// handleStreamingRelay streams the upstream SSE response to the client while
// reassembling it in the background.
func (g *Gateway) handleStreamingRelay(c *fiber.Ctx, httpResp *http.Response, project string, startTime time.Time) error {
	g.headerHandler.SetClientResponseHeaders(c, httpResp)

	// Use io.Pipe + SetBodyStream instead of SetBodyStreamWriter.
	// SetBodyStreamWriter uses an internal PipeConns with a buffered channel
	// and two bufio.Writers, which means Flush() in the callback only pushes
	// data into the pipe, not to the TCP socket, buffering all chunks in
	// memory before they reach the client.
	//
	// With io.Pipe, pw.Write blocks until the reader consumes the data, and
	// the reader is fasthttp's writeBodyChunked which flushes to TCP after
	// every chunk. This gives direct backpressure and true per-chunk
	// streaming of generation fragments.
	pr, pw := io.Pipe()
	g.relays.Add(1)
	go g.relayToPipe(httpResp, pw, project, startTime)

	// Set the pipe reader as the body stream with unknown size (-1),
	// which triggers chunked transfer encoding in fasthttp.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// relayToPipe consumes the upstream SSE body, teeing raw bytes to the pipe
// (and the capture file when enabled) while folding decoded messages through
// the reassembly state machine. On a finalize decision the completed artifact
// is enqueued for async persistence.
func (g *Gateway) relayToPipe(httpResp *http.Response, pw *io.PipeWriter, project string, startTime time.Time) {
	defer g.relays.Done()
	// Close the upstream response body once streaming is complete.
	defer httpResp.Body.Close()
	defer pw.Close()

	dest := io.Writer(pw)
	capture, capturePath, err := newCaptureFile(g.config.CaptureDir)
	if err != nil {
		g.logger.Warn("capture disabled for this stream", zap.Error(err))
	} else if capture != nil {
		defer func() {
			if cerr := capture.Close(); cerr != nil {
				g.logger.Warn("failed to close capture file",
					zap.String("path", capturePath),
					zap.Error(cerr),
				)
			}
		}()
		dest = io.MultiWriter(pw, capture)
		g.logger.Debug("recording stream transcript", zap.String("path", capturePath))
	}

	state := reassembly.Initial()
	finalized := false
	messages := 0

	tr := sse.NewTeeReader(httpResp.Body, dest)
	for {
		p, err := tr.Next()
		if err != nil {
			g.logger.Error("error reading SSE stream", zap.Error(err))
			return
		}
		if p == nil {
			break
		}

		msg, ok := reassembly.MessageFromPayload(*p)
		if !ok {
			continue
		}
		messages++

		prev := state
		state = g.rules.Apply(state, msg)
		if !finalized && g.rules.IsFinal(prev, state, msg) {
			finalized = true
		}
	}

	completedAt := time.Now()

	if !finalized {
		g.logger.Debug("stream ended without a completed artifact",
			zap.Int("messages", messages),
			zap.Int("accumulated_bytes", len(state.BestText())),
		)
		return
	}

	a := artifact.New(state.BestText())
	g.logger.Debug("stream reassembled",
		zap.String("artifact_id", a.ID),
		zap.Int("messages", messages),
		zap.Int("file_count", len(a.Files)),
		zap.Duration("duration", completedAt.Sub(startTime)),
	)

	g.workerPool.Enqueue(worker.Job{
		Artifact: a,
		Source: eventstream.EventSource{
			Upstream: g.config.UpstreamURL,
			Project:  project,
		},
		Stream: eventstream.StreamMeta{
			StartedAt:   startTime,
			CompletedAt: completedAt,
			DurationMs:  completedAt.Sub(startTime).Milliseconds(),
			Messages:    messages,
			Frozen:      state.Frozen(),
		},
	})
}
