package cache_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/timing/cache"
)

var _ = Describe("Config", func() {
	Describe("Validate", func() {
		It("should accept the default configuration", func() {
			Expect(cache.DefaultConfig().Validate()).To(Succeed())
		})

		It("should accept set counts outside the usual menu", func() {
			config := cache.Config{NumCacheSets: 33, Associativity: 4, BlockSize: 3}
			Expect(config.Validate()).To(Succeed())
			Expect(config.NumSets()).To(Equal(8))
		})

		DescribeTable("should reject unusable geometry",
			func(config cache.Config, expected error) {
				Expect(config.Validate()).To(MatchError(expected))
			},
			Entry("zero sets", cache.Config{NumCacheSets: 0, Associativity: 1, BlockSize: 1},
				cache.ErrInvalidConfig),
			Entry("negative associativity", cache.Config{NumCacheSets: 32, Associativity: -1, BlockSize: 1},
				cache.ErrInvalidConfig),
			Entry("zero block size", cache.Config{NumCacheSets: 32, Associativity: 1, BlockSize: 0},
				cache.ErrInvalidConfig),
			Entry("more ways than lines", cache.Config{NumCacheSets: 2, Associativity: 4, BlockSize: 1},
				cache.ErrInvalidConfig),
			Entry("3-way native", cache.Config{NumCacheSets: 32, Associativity: 3, BlockSize: 1},
				cache.ErrUnsupportedAssociativity),
			Entry("unknown engine", cache.Config{NumCacheSets: 32, Associativity: 1, BlockSize: 1, Engine: "spice"},
				cache.ErrInvalidConfig),
		)

		It("should let the akita engine use any associativity", func() {
			config := cache.Config{
				NumCacheSets:  48,
				Associativity: 3,
				BlockSize:     1,
				Engine:        cache.EngineAkita,
			}
			Expect(config.Validate()).To(Succeed())
		})
	})

	Describe("LoadConfig and SaveConfig", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "cache-config-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"associativity": 2}`), 0644)).To(Succeed())

			config, err := cache.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(config.Associativity).To(Equal(2))
			Expect(config.NumCacheSets).To(Equal(32))
			Expect(config.BlockSize).To(Equal(1))
		})

		It("should read back what it saved", func() {
			path := filepath.Join(tempDir, "cache.json")
			original := cache.Config{
				NumCacheSets:  256,
				Associativity: 2,
				BlockSize:     8,
				Engine:        cache.EngineAkita,
			}
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := cache.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(original))
		})

		It("should fail on a missing file", func() {
			_, err := cache.LoadConfig(filepath.Join(tempDir, "missing.json"))
			Expect(err).To(HaveOccurred())
			Expect(err).To(MatchError(os.ErrNotExist))
		})

		It("should fail on malformed JSON", func() {
			path := filepath.Join(tempDir, "bad.json")
			Expect(os.WriteFile(path, []byte(`{"associativity":`), 0644)).To(Succeed())

			_, err := cache.LoadConfig(path)
			Expect(err).To(MatchError(ContainSubstring("failed to parse cache config")))
		})
	})

	Describe("ApplyEnv", func() {
		setenv := func(name, value string) {
			Expect(os.Setenv(name, value)).To(Succeed())
			DeferCleanup(os.Unsetenv, name)
		}

		It("should override fields from the environment", func() {
			setenv(cache.EnvNumCacheSets, "128")
			setenv(cache.EnvAssociativity, "2")
			setenv(cache.EnvEngine, "akita")

			config := cache.DefaultConfig()
			Expect(cache.ApplyEnv(&config)).To(Succeed())
			Expect(config.NumCacheSets).To(Equal(128))
			Expect(config.Associativity).To(Equal(2))
			Expect(config.BlockSize).To(Equal(1))
			Expect(config.Engine).To(Equal(cache.EngineAkita))
		})

		It("should reject non-integer values", func() {
			setenv(cache.EnvBlockSize, "four")

			config := cache.DefaultConfig()
			Expect(cache.ApplyEnv(&config)).To(MatchError(cache.ErrInvalidConfig))
		})
	})
})
