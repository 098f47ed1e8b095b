package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/loader"
	"github.com/sarchlab/cachesim/record"
	"github.com/sarchlab/cachesim/timing/cache"
)

var _ = Describe("cachesim", func() {
	var (
		tempDir string
		out     *bytes.Buffer
		errOut  *bytes.Buffer
	)

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
		errOut = &bytes.Buffer{}
	})

	writeTrace := func(contents string) string {
		path := filepath.Join(tempDir, "trace.txt")
		Expect(os.WriteFile(path, []byte(contents), 0644)).To(Succeed())
		return path
	}

	Describe("interactive run", func() {
		It("should prompt in order and print the miss count", func() {
			path := writeTrace("0\n1\n2\n3\n4\n0\n")
			in := strings.NewReader("32\n4\n1\n" + path + "\n")

			Expect(runSimulation(newRunOptions(), in, out, errOut)).To(Succeed())

			Expect(out.String()).To(Equal(
				"Enter number of cache sets (1/32/64/128/256/512): " +
					"Enter set associativity (1/2/4): " +
					"Enter block size: " +
					"Initializing cache...\n" +
					"Enter the filename to check: " +
					"Total misses = 2\n" +
					"Hit rate = 99.9998%\n"))
		})

		It("should accept several answers on one line", func() {
			path := writeTrace("0\n")
			in := strings.NewReader("1 1 1 " + path)

			Expect(runSimulation(newRunOptions(), in, out, errOut)).To(Succeed())
			Expect(out.String()).To(HaveSuffix("Total misses = 1\nHit rate = 99.9999%\n"))
		})

		It("should reject a non-integer answer", func() {
			in := strings.NewReader("thirty-two\n")

			err := runSimulation(newRunOptions(), in, out, errOut)

			var inputErr *InputFormatError
			Expect(errors.As(err, &inputErr)).To(BeTrue())
			Expect(inputErr.Input).To(Equal("thirty-two"))
			Expect(out.String()).NotTo(ContainSubstring("Total misses"))

			reportError(errOut, err)
			Expect(errOut.String()).To(ContainSubstring("Invalid input"))
		})

		It("should only prompt for values not given as flags", func() {
			path := writeTrace("0\n")
			opts := newRunOptions()
			opts.sets = 32
			opts.blockSize = 1
			in := strings.NewReader("2 " + path)

			Expect(runSimulation(opts, in, out, errOut)).To(Succeed())
			Expect(out.String()).To(HavePrefix(promptAssoc + msgInitializing))
		})
	})

	Describe("flag-driven run", func() {
		var opts runOptions

		BeforeEach(func() {
			opts = newRunOptions()
			opts.sets = 32
			opts.assoc = 4
			opts.blockSize = 1
		})

		It("should print only the result lines", func() {
			opts.tracePath = writeTrace("0\n1\n2\n3\n4\n0\n")

			Expect(runSimulation(opts, strings.NewReader(""), out, errOut)).To(Succeed())
			Expect(out.String()).To(Equal("Total misses = 2\nHit rate = 99.9998%\n"))
		})

		It("should report 100.0 for an empty trace", func() {
			opts.tracePath = writeTrace("")

			Expect(runSimulation(opts, strings.NewReader(""), out, errOut)).To(Succeed())
			Expect(out.String()).To(Equal("Total misses = 0\nHit rate = 100.0%\n"))
		})

		It("should report a missing trace without a miss count", func() {
			opts.tracePath = filepath.Join(tempDir, "missing.txt")

			err := runSimulation(opts, strings.NewReader(""), out, errOut)

			var ioErr *loader.IOError
			Expect(errors.As(err, &ioErr)).To(BeTrue())
			Expect(out.String()).To(BeEmpty())

			reportError(errOut, err)
			Expect(errOut.String()).To(ContainSubstring("Error reading file."))
		})

		It("should stop at a malformed trace line without a miss count", func() {
			opts.tracePath = writeTrace("0\n4\nfoo\n8\n")

			err := runSimulation(opts, strings.NewReader(""), out, errOut)

			var parseErr *loader.ParseError
			Expect(errors.As(err, &parseErr)).To(BeTrue())
			Expect(parseErr.Line).To(Equal(3))
			Expect(out.String()).To(BeEmpty())
		})

		It("should refuse an unsupported associativity", func() {
			opts.assoc = 3
			opts.tracePath = writeTrace("0\n")

			err := runSimulation(opts, strings.NewReader(""), out, errOut)
			Expect(err).To(MatchError(cache.ErrUnsupportedAssociativity))
		})

		It("should accept any associativity on the akita engine", func() {
			opts.sets = 24
			opts.assoc = 3
			opts.engine = string(cache.EngineAkita)
			opts.tracePath = writeTrace("0\n4\n8\n0\n")

			Expect(runSimulation(opts, strings.NewReader(""), out, errOut)).To(Succeed())
			Expect(out.String()).To(HavePrefix("Total misses = 3\n"))
		})

		It("should print details in verbose mode", func() {
			opts.verbose = true
			opts.tracePath = writeTrace("0\n0\n")

			Expect(runSimulation(opts, strings.NewReader(""), out, errOut)).To(Succeed())
			Expect(out.String()).To(ContainSubstring("Measured hit rate: 50.0000%"))
			Expect(errOut.String()).To(ContainSubstring("cachesim: 32 lines, 4-way, 8 sets"))
		})

		It("should print a JSON report", func() {
			opts.json = true
			opts.tracePath = writeTrace("0\n0\n16\n")

			Expect(runSimulation(opts, strings.NewReader(""), out, errOut)).To(Succeed())

			var report runReport
			Expect(json.Unmarshal(out.Bytes(), &report)).To(Succeed())
			Expect(report.Statistics.Misses).To(Equal(uint64(2)))
			Expect(report.Statistics.Hits).To(Equal(uint64(1)))
			Expect(report.LegacyHitRate).To(BeNumerically("~", 99.9998))
			Expect(report.Config.NumCacheSets).To(Equal(32))
		})

		It("should take the geometry from a config file", func() {
			configPath := filepath.Join(tempDir, "cache.json")
			Expect(cache.Config{NumCacheSets: 1, Associativity: 1, BlockSize: 1}.
				SaveConfig(configPath)).To(Succeed())

			opts = newRunOptions()
			opts.configPath = configPath
			opts.tracePath = writeTrace("0\n4\n0\n")

			Expect(runSimulation(opts, strings.NewReader(""), out, errOut)).To(Succeed())
			Expect(out.String()).To(HavePrefix("Total misses = 3\n"))
		})

		It("should take the geometry from the environment", func() {
			Expect(os.Setenv(cache.EnvNumCacheSets, "1")).To(Succeed())
			Expect(os.Setenv(cache.EnvAssociativity, "1")).To(Succeed())
			Expect(os.Setenv(cache.EnvBlockSize, "1")).To(Succeed())
			DeferCleanup(os.Unsetenv, cache.EnvNumCacheSets)
			DeferCleanup(os.Unsetenv, cache.EnvAssociativity)
			DeferCleanup(os.Unsetenv, cache.EnvBlockSize)

			opts = newRunOptions()
			opts.tracePath = writeTrace("0\n4\n0\n")

			Expect(runSimulation(opts, strings.NewReader(""), out, errOut)).To(Succeed())
			Expect(out.String()).To(HavePrefix("Total misses = 3\n"))
		})

		It("should record every access", func() {
			opts.recordPath = filepath.Join(tempDir, "run.sqlite3")
			opts.json = true
			opts.tracePath = writeTrace("0\n4\n0\n")

			Expect(runSimulation(opts, strings.NewReader(""), out, errOut)).To(Succeed())

			var report runReport
			Expect(json.Unmarshal(out.Bytes(), &report)).To(Succeed())
			Expect(report.RunID).NotTo(BeEmpty())

			reader := record.NewSQLiteReader(opts.recordPath)
			Expect(reader.Init()).To(Succeed())
			DeferCleanup(reader.Close)

			accesses, err := reader.ListAccesses(report.RunID)
			Expect(err).NotTo(HaveOccurred())
			Expect(accesses).To(HaveLen(3))
			Expect(accesses[2].Hit).To(BeTrue())

			runs, err := reader.ListRuns()
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(1))
			Expect(runs[0].Completed).To(BeTrue())
			Expect(runs[0].Stats.Misses).To(Equal(uint64(2)))
		})

		It("should leave an aborted run marked incomplete", func() {
			opts.recordPath = filepath.Join(tempDir, "run.sqlite3")
			opts.tracePath = writeTrace("0\n4\nbad\n8\n")

			Expect(runSimulation(opts, strings.NewReader(""), out, errOut)).NotTo(Succeed())
			Expect(out.String()).NotTo(ContainSubstring("Total misses"))

			reader := record.NewSQLiteReader(opts.recordPath)
			Expect(reader.Init()).To(Succeed())
			DeferCleanup(reader.Close)

			runs, err := reader.ListRuns()
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(1))
			Expect(runs[0].Completed).To(BeFalse())
			Expect(runs[0].Stats.Accesses).To(BeZero())

			accesses, err := reader.ListAccesses(runs[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(accesses).To(HaveLen(2))
		})
	})

	Describe("subcommands", func() {
		execute := func(args ...string) error {
			cmd := newRootCmd()
			cmd.SetArgs(args)
			cmd.SetIn(strings.NewReader(""))
			cmd.SetOut(out)
			cmd.SetErr(errOut)
			return cmd.Execute()
		}

		It("should run with flags", func() {
			path := writeTrace("0\n1\n2\n3\n4\n0\n")

			Expect(execute("run", "--sets", "32", "--assoc", "4", "--block-size", "1", path)).
				To(Succeed())
			Expect(out.String()).To(Equal("Total misses = 2\nHit rate = 99.9998%\n"))
		})

		It("should generate a trace", func() {
			Expect(execute("gen", "--pattern", "strided", "--count", "3", "--stride", "8")).
				To(Succeed())
			Expect(out.String()).To(Equal("0\n8\n16\n"))
		})

		It("should write a generated trace that run can read", func() {
			path := filepath.Join(tempDir, "gen.txt")
			Expect(execute("gen", "--count", "100", "-o", path)).To(Succeed())

			trace, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(trace.Addresses).To(HaveLen(100))
		})

		It("should sweep a trace as CSV", func() {
			path := writeTrace("0\n16\n0\n16\n")

			Expect(execute("sweep", "--sets", "4", "--assoc", "1,2", "--csv", path)).To(Succeed())

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			Expect(lines).To(HaveLen(3))
			Expect(lines[1]).To(HavePrefix(path + ",4,1,1,native,4,0,4,"))
			Expect(lines[2]).To(HavePrefix(path + ",4,2,1,native,4,2,2,"))
		})

		It("should sweep the synthetic workloads by default", func() {
			Expect(execute("sweep", "--sets", "32", "--assoc", "4")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("Workload: sequential"))
			Expect(out.String()).To(ContainSubstring("Workload: random_16k"))
		})

		It("should write CPU and memory profiles", func() {
			cpu := filepath.Join(tempDir, "cpu.prof")
			mem := filepath.Join(tempDir, "mem.prof")

			Expect(execute("gen", "--count", "10", "--cpuprofile", cpu, "--memprofile", mem)).
				To(Succeed())
			Expect(cpu).To(BeAnExistingFile())
			Expect(mem).To(BeAnExistingFile())
		})

		It("should reject unknown patterns", func() {
			Expect(execute("gen", "--pattern", "zigzag")).To(HaveOccurred())
		})
	})

	Describe("loadEnvFile", func() {
		It("should ignore a missing file", func() {
			Expect(loadEnvFile(filepath.Join(tempDir, ".env"))).To(Succeed())
		})

		It("should load variables that are not already set", func() {
			path := filepath.Join(tempDir, ".env")
			Expect(os.WriteFile(path, []byte("CACHESIM_ENGINE=akita\n"), 0644)).To(Succeed())
			DeferCleanup(os.Unsetenv, cache.EnvEngine)

			Expect(loadEnvFile(path)).To(Succeed())
			Expect(os.Getenv(cache.EnvEngine)).To(Equal("akita"))
		})
	})

	DescribeTable("formatRate",
		func(v float64, want string) {
			Expect(formatRate(v)).To(Equal(want))
		},
		Entry("whole number", 100.0, "100.0"),
		Entry("fraction", 99.9998, "99.9998"),
		Entry("zero", 0.0, "0.0"),
		Entry("negative", -100.0, "-100.0"),
		Entry("tiny", 0.0001, "1.0E-4"),
		Entry("huge", 12345678.0, "1.2345678E7"),
	)
})
