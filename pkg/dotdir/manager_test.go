package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/helpbot/pkg/dotdir"
)

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	// chdirIsolated moves into an empty dir with HOME pointing at it, so the
	// developer's real ~/.helpbot is never picked up.
	chdirIsolated := func() string {
		emptyDir := filepath.Join(tmpDir, "empty")
		Expect(os.MkdirAll(emptyDir, 0o755)).To(Succeed())

		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(emptyDir)).To(Succeed())
		DeferCleanup(func() { os.Chdir(origDir) })

		origHome := os.Getenv("HOME")
		Expect(os.Setenv("HOME", emptyDir)).To(Succeed())
		DeferCleanup(func() { os.Setenv("HOME", origHome) })
		return emptyDir
	}

	Describe("Target", func() {
		It("creates the override directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("prefers the override over a local .helpbot dir", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".helpbot"), 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			overrideDir := filepath.Join(tmpDir, "override")
			result, err := m.Target(overrideDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(overrideDir))
		})

		It("returns the local .helpbot dir when no override is provided", func() {
			dir := chdirIsolated()
			local := filepath.Join(dir, ".helpbot")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("returns an empty string when nothing is found", func() {
			chdirIsolated()

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(BeEmpty())
		})
	})

	Describe("Ensure", func() {
		It("creates a local .helpbot dir when nothing is found", func() {
			dir := chdirIsolated()

			result, err := m.Ensure("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(dir, ".helpbot")))
			Expect(filepath.Join(dir, ".helpbot")).To(BeADirectory())
		})
	})

	Describe("IndexDir", func() {
		It("uses the configured directory", func() {
			configured := filepath.Join(tmpDir, "indexes")
			result, err := m.IndexDir(configured, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(configured))
			Expect(configured).To(BeADirectory())
		})

		It("defaults to the index subdirectory of .helpbot", func() {
			override := filepath.Join(tmpDir, "cfg")
			result, err := m.IndexDir("", override)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(override, dotdir.IndexDirName)))
		})
	})
})
