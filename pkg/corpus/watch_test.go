package corpus_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/helpbot/pkg/corpus"
	"github.com/papercomputeco/helpbot/pkg/logger"
)

var _ = Describe("Watcher", func() {
	var (
		root   string
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		Expect(os.MkdirAll(filepath.Join(root, "lambda"), 0o755)).To(Succeed())
		Expect(os.MkdirAll(filepath.Join(root, "sagemaker"), 0o755)).To(Succeed())
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
	})

	It("coalesces changes into one signal per collection", func() {
		w, err := corpus.NewWatcher(root, []string{"lambda", "sagemaker"}, 100*time.Millisecond, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		changes := w.Run(ctx)

		writeFile(filepath.Join(root, "sagemaker", "a.html"), "<p>a</p>")
		writeFile(filepath.Join(root, "sagemaker", "b.html"), "<p>b</p>")

		Eventually(changes, 2*time.Second).Should(Receive(Equal("sagemaker")))
		Consistently(changes, 300*time.Millisecond).ShouldNot(Receive())
	})

	It("ignores non-html files", func() {
		w, err := corpus.NewWatcher(root, []string{"lambda"}, 50*time.Millisecond, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		changes := w.Run(ctx)

		writeFile(filepath.Join(root, "lambda", "notes.txt"), "x")
		Consistently(changes, 300*time.Millisecond).ShouldNot(Receive())
	})

	It("closes the channel when the context ends", func() {
		w, err := corpus.NewWatcher(root, []string{"lambda"}, 50*time.Millisecond, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		changes := w.Run(ctx)
		cancel()
		Eventually(changes).Should(BeClosed())
	})

	It("fails for a missing collection directory", func() {
		_, err := corpus.NewWatcher(root, []string{"ec2"}, 0, logger.Nop())
		Expect(err).To(HaveOccurred())
	})
})
