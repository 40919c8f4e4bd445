package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hailam/chessmemo/internal/config"
	"github.com/hailam/chessmemo/internal/engine"
	"github.com/hailam/chessmemo/internal/storage"
)

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: chessmemo [flags] <command> [args]

commands:
  stats            show the learn table and the learning journal
  bench [games]    exercise hashing and the transposition table
  archive <file>   write a compressed copy of the learn file
  restore <file>   replace the learn file from an archive
  reset            empty the learn file and the journal

flags:
`)
	flag.PrintDefaults()
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Usage = usage
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(cfg.Level()).
		With().Timestamp().Logger()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	if err := run(cfg, flag.Args(), log); err != nil {
		log.Error().Err(err).Msg("failed")
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func run(cfg config.Config, args []string, log zerolog.Logger) error {
	if len(args) == 0 {
		flag.Usage()
		return errors.New("no command given")
	}

	dataDir, err := storage.ResolveDataDir(cfg.DataDir)
	if err != nil {
		return errors.Wrap(err, "data directory")
	}
	cfg.DataDir = dataDir

	journalDir, err := storage.JournalDir(dataDir)
	if err != nil {
		return errors.Wrap(err, "journal directory")
	}
	journal, err := storage.Open(journalDir)
	if err != nil {
		return err
	}
	defer journal.Close()

	mem, err := engine.NewMemory(cfg, journal, log)
	if err != nil {
		// Search still works without the failed table.
		log.Warn().Err(err).Msg("running with reduced memory")
	}
	if mem == nil {
		return err
	}
	defer func() {
		if err := mem.Close(); err != nil {
			log.Error().Err(err).Msg("saving learn file")
		}
	}()

	switch cmd := args[0]; cmd {
	case "stats":
		return stats(mem, journal, log)
	case "bench":
		games := 100
		if len(args) > 1 {
			if _, err := fmt.Sscan(args[1], &games); err != nil {
				return errors.Wrapf(err, "bad game count %q", args[1])
			}
		}
		return bench(mem, games, log)
	case "archive":
		if len(args) < 2 {
			return errors.New("archive needs a file name")
		}
		return archive(mem, args[1], log)
	case "restore":
		if len(args) < 2 {
			return errors.New("restore needs a file name")
		}
		return restore(mem, args[1], log)
	case "reset":
		return reset(mem, journal, log)
	default:
		return errors.Errorf("unknown command %q", cmd)
	}
}

func stats(mem *engine.Memory, journal *storage.Storage, log zerolog.Logger) error {
	if err := mem.LoadLearning(); err != nil {
		return err
	}
	s := mem.Learn().Summary()

	js, err := journal.LoadStats()
	if err != nil {
		return errors.Wrap(err, "journal stats")
	}

	log.Info().
		Str("file", mem.LearnPath()).
		Str("size", humanize.IBytes(mem.Learn().Bytes())).
		Int("positions", s.Positions).
		Int("highest", s.Highest).
		Msg("learn table")
	log.Info().
		Int("sessions", js.Sessions).
		Int("wins", js.Wins).
		Int("losses", js.Losses).
		Int("draws", js.Draws).
		Str("last", humanize.Time(js.LastPlayed)).
		Msg(js.String())

	sessions, err := journal.Sessions()
	if err != nil {
		return errors.Wrap(err, "journal sessions")
	}
	for _, sess := range sessions {
		log.Debug().
			Str("id", sess.ID).
			Str("rules", sess.Rules).
			Str("side", sess.EngineSide).
			Int("points", sess.Points).
			Int("horizon", sess.Horizon).
			Str("finished", humanize.Time(sess.Finished)).
			Msg("session")
	}
	return nil
}

func archive(mem *engine.Memory, dst string, log zerolog.Logger) error {
	// Make sure there is a file to archive.
	if err := mem.LoadLearning(); err != nil {
		return err
	}
	n, err := storage.ArchiveLearnFile(mem.LearnPath(), dst)
	if err != nil {
		return err
	}
	log.Info().Str("archive", dst).Str("learned", humanize.IBytes(uint64(n))).Msg("archived learn file")
	return nil
}

func restore(mem *engine.Memory, src string, log zerolog.Logger) error {
	n, err := storage.RestoreLearnFile(src, mem.LearnPath())
	if err != nil {
		return err
	}
	if want := mem.Learn().Bytes(); uint64(n) != want {
		log.Warn().Int64("bytes", n).Uint64("expected", want).Msg("archive was written by a different table size")
	}
	// Read it back so a broken archive shows up now.
	return mem.LoadLearning()
}

func reset(mem *engine.Memory, journal *storage.Storage, log zerolog.Logger) error {
	mem.Learn().Clear()
	if err := mem.SaveLearning(); err != nil {
		return err
	}
	if err := journal.Reset(); err != nil {
		return errors.Wrap(err, "reset journal")
	}
	log.Info().Str("file", mem.LearnPath()).Msg("learning reset")
	return nil
}
