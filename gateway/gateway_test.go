package gateway

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reweaveco/reweave/gateway/header"
	"github.com/reweaveco/reweave/pkg/logger"
	"github.com/reweaveco/reweave/pkg/storage/inmemory"
)

// newTestGateway creates a Gateway pointed at the given upstream URL,
// using an in-memory storage driver.
func newTestGateway(upstreamURL string, captureDir string) (*Gateway, *inmemory.Driver) {
	driver := inmemory.NewDriver()

	g, err := New(
		Config{
			ListenAddr:  ":0",
			UpstreamURL: upstreamURL,
			Project:     "default-project",
			CaptureDir:  captureDir,
		},
		driver,
		logger.Nop(),
	)
	Expect(err).NotTo(HaveOccurred())
	return g, driver
}

// sseUpstream builds an httptest server that flushes the given events in order.
func sseUpstream(events []string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		flusher, ok := w.(http.Flusher)
		Expect(ok).To(BeTrue())

		for _, event := range events {
			fmt.Fprint(w, event)
			flusher.Flush()
		}
	}))
}

// generationEvents is a complete code-generation stream: incremental text
// fragments followed by an authoritative completion payload.
var generationEvents = []string{
	"data: {\"type\":\"stream\",\"text\":\"<file path=\\\"src/App.jsx\\\">\"}\n\n",
	"data: {\"type\":\"stream\",\"text\":\"export default function App() {}\"}\n\n",
	"data: {\"type\":\"stream\",\"text\":\"</file>\"}\n\n",
	"data: {\"type\":\"complete\",\"generatedCode\":\"<file path=\\\"src/App.jsx\\\">export default function App() {}</file>\"}\n\n",
}

var _ = Describe("Streaming relay", func() {
	var (
		g        *Gateway
		driver   *inmemory.Driver
		upstream *httptest.Server
	)

	AfterEach(func() {
		if g != nil {
			g.Close()
			g = nil
		}
		if upstream != nil {
			upstream.Close()
			upstream = nil
		}
	})

	Context("when upstream returns a generation SSE stream", func() {
		BeforeEach(func() {
			upstream = sseUpstream(generationEvents)
			g, driver = newTestGateway(upstream.URL, "")
		})

		It("forwards the raw byte stream verbatim with \\n\\n boundaries", func() {
			resp, err := g.server.Test(httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":"make an app"}`)), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			Expect(string(body)).To(Equal(strings.Join(generationEvents, "")))
		})

		It("reassembles the stream and stores the artifact", func() {
			resp, err := g.server.Test(httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":"make an app"}`)), -1)
			Expect(err).NotTo(HaveOccurred())
			_, err = io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			// Persistence is async: the relay goroutine enqueues after the
			// client has drained the stream.
			Eventually(func() int {
				artifacts, err := driver.List(GinkgoT().Context())
				Expect(err).NotTo(HaveOccurred())
				return len(artifacts)
			}).Should(Equal(1))

			artifacts, err := driver.List(GinkgoT().Context())
			Expect(err).NotTo(HaveOccurred())
			a := artifacts[0]
			Expect(a.Code).To(Equal(`<file path="src/App.jsx">export default function App() {}</file>`))
			Expect(a.Files).To(HaveLen(1))
			Expect(a.Files[0].Path).To(Equal("src/App.jsx"))
			Expect(a.Files[0].Content).To(Equal("export default function App() {}"))
		})

		It("persists in-flight streams before Close returns", func() {
			resp, err := g.server.Test(httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":"make an app"}`)), -1)
			Expect(err).NotTo(HaveOccurred())
			_, err = io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			// Close waits for the relay goroutine and drains the pool, so
			// the artifact must be stored with no polling needed.
			Expect(g.Close()).To(Succeed())

			artifacts, err := driver.List(GinkgoT().Context())
			Expect(err).NotTo(HaveOccurred())
			Expect(artifacts).To(HaveLen(1))
		})
	})

	Context("when the stream carries conversation chatter", func() {
		BeforeEach(func() {
			events := []string{
				"data: {\"type\":\"conversation\",\"text\":\"Let me think about that...\"}\n\n",
				"data: {\"type\":\"stream\",\"text\":\"<file path=\\\"a.js\\\">let x = 1\\n</file>\"}\n\n",
				"data: {\"type\":\"conversation\",\"text\":\"All done, enjoy!\"}\n\n",
				"data: {\"type\":\"complete\",\"generatedCode\":\"<file path=\\\"a.js\\\">let x = 1\\n</file>\"}\n\n",
			}
			upstream = sseUpstream(events)
			g, driver = newTestGateway(upstream.URL, "")
		})

		It("keeps explanation chatter out of the stored artifact", func() {
			resp, err := g.server.Test(httptest.NewRequest(http.MethodPost, "/api/generate", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			_, err = io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			Eventually(func() int {
				artifacts, err := driver.List(GinkgoT().Context())
				Expect(err).NotTo(HaveOccurred())
				return len(artifacts)
			}).Should(Equal(1))

			artifacts, err := driver.List(GinkgoT().Context())
			Expect(err).NotTo(HaveOccurred())
			Expect(artifacts[0].Code).NotTo(ContainSubstring("Let me think"))
			Expect(artifacts[0].Code).NotTo(ContainSubstring("enjoy"))
		})
	})

	Context("when the stream never completes", func() {
		BeforeEach(func() {
			events := []string{
				"data: {\"type\":\"conversation\",\"text\":\"I could not generate anything, sorry.\"}\n\n",
			}
			upstream = sseUpstream(events)
			g, driver = newTestGateway(upstream.URL, "")
		})

		It("stores nothing", func() {
			resp, err := g.server.Test(httptest.NewRequest(http.MethodPost, "/api/generate", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			_, err = io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			Consistently(func() int {
				artifacts, err := driver.List(GinkgoT().Context())
				Expect(err).NotTo(HaveOccurred())
				return len(artifacts)
			}).Should(BeZero())
		})
	})

	Context("when upstream SSE includes comment keep-alives", func() {
		BeforeEach(func() {
			events := []string{
				": keep-alive\n\n",
				"data: {\"type\":\"stream\",\"text\":\"<file path=\\\"a.js\\\">x</file>\"}\n\n",
			}
			upstream = sseUpstream(events)
			g, driver = newTestGateway(upstream.URL, "")
		})

		It("forwards comment lines verbatim to the client", func() {
			resp, err := g.server.Test(httptest.NewRequest(http.MethodPost, "/api/generate", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			Expect(string(body)).To(ContainSubstring(": keep-alive\n"))
			Expect(string(body)).To(ContainSubstring("data: {\"type\":\"stream\""))
		})
	})

	Context("capture recording", func() {
		var captureDir string

		BeforeEach(func() {
			var err error
			captureDir, err = os.MkdirTemp("", "capture-test-*")
			Expect(err).NotTo(HaveOccurred())

			upstream = sseUpstream(generationEvents)
			g, driver = newTestGateway(upstream.URL, captureDir)
		})

		AfterEach(func() {
			os.RemoveAll(captureDir)
		})

		It("records the verbatim transcript to a capture file", func() {
			resp, err := g.server.Test(httptest.NewRequest(http.MethodPost, "/api/generate", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			var captures []string
			Eventually(func() []string {
				captures, _ = filepath.Glob(filepath.Join(captureDir, "*.sse"))
				return captures
			}).Should(HaveLen(1))

			recorded, err := os.ReadFile(captures[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(string(recorded)).To(Equal(string(body)))
		})
	})
})

var _ = Describe("Buffered relay", func() {
	var (
		g        *Gateway
		driver   *inmemory.Driver
		upstream *httptest.Server
	)

	AfterEach(func() {
		if g != nil {
			g.Close()
			g = nil
		}
		if upstream != nil {
			upstream.Close()
			upstream = nil
		}
	})

	It("passes non-SSE responses through with status and body", func() {
		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTeapot)
			fmt.Fprint(w, `{"status":"short and stout"}`)
		}))
		g, driver = newTestGateway(upstream.URL, "")

		resp, err := g.server.Test(httptest.NewRequest(http.MethodGet, "/api/status", nil), -1)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusTeapot))

		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(Equal(`{"status":"short and stout"}`))

		artifacts, err := driver.List(GinkgoT().Context())
		Expect(err).NotTo(HaveOccurred())
		Expect(artifacts).To(BeEmpty())
	})

	It("forwards request bodies and filtered headers upstream", func() {
		var gotBody string
		var gotAuth, gotProject string

		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			gotAuth = r.Header.Get("Authorization")
			gotProject = r.Header.Get(header.ProjectHeader)
			w.WriteHeader(http.StatusOK)
		}))
		g, _ = newTestGateway(upstream.URL, "")

		req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":"hi"}`))
		req.Header.Set("Authorization", "Bearer token123")
		req.Header.Set(header.ProjectHeader, "my-app")

		resp, err := g.server.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()

		Expect(gotBody).To(Equal(`{"prompt":"hi"}`))
		Expect(gotAuth).To(Equal("Bearer token123"))
		// Internal tagging header is consumed by the gateway, not forwarded.
		Expect(gotProject).To(BeEmpty())
	})
})

var _ = Describe("New", func() {
	It("requires an upstream URL", func() {
		_, err := New(Config{ListenAddr: ":0"}, inmemory.NewDriver(), logger.Nop())
		Expect(err).To(HaveOccurred())
	})
})
