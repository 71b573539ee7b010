package servecmder

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewServeCmd", func() {
	It("registers the server and pipeline flags", func() {
		cmd := NewServeCmd()
		for _, name := range []string{"listen", "endpoint", "region", "llm-provider", "max-history", "top-k", "no-mcp", "json-logs", "log-file"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("defaults to port 8501", func() {
		cmd := NewServeCmd()
		Expect(cmd.Flags().Lookup("listen").DefValue).To(Equal(":8501"))
	})
})

var _ = Describe("newLogger", func() {
	It("appends JSON records to the log file", func() {
		dir, err := os.MkdirTemp("", "helpbot-serve-test-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "helpbot.log")
		c := &ServeCommander{logFile: path, jsonLogs: true}

		l, err := c.newLogger()
		Expect(err).NotTo(HaveOccurred())
		l.Info("index loaded", "documents", 3)

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())

		line := strings.TrimSpace(string(data))
		var record map[string]any
		Expect(json.Unmarshal([]byte(line), &record)).To(Succeed())
		Expect(record["msg"]).To(Equal("index loaded"))
		Expect(record["documents"]).To(BeNumerically("==", 3))
	})

	It("fails on an unwritable log file", func() {
		c := &ServeCommander{logFile: filepath.Join(os.TempDir(), "missing-dir-helpbot", "x", "helpbot.log")}
		_, err := c.newLogger()
		Expect(err).To(MatchError(ContainSubstring("opening log file")))
	})
})
