package main

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bodgit/isomap"
	"github.com/bodgit/isomap/cache"
	"github.com/bodgit/isomap/thumbnail"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const defaultDB = "isomap.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

type session struct {
	archive  *isomap.Archive
	renderer *isomap.Renderer
	logger   *logrus.Logger
	closer   io.Closer
	size     int
}

func (s *session) Close() error {
	if s.renderer != nil {
		s.renderer.Close()
	}
	s.archive.Close()
	return s.closer.Close()
}

func open(c *cli.Context, load bool) (*session, error) {
	v, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	logger, closer := newLogger(v, c.Bool("verbose"))

	archive, err := isomap.NewArchive(v.GetString("db"))
	if err != nil {
		closer.Close()
		return nil, err
	}

	s := &session{
		archive: archive,
		logger:  logger,
		closer:  closer,
		size:    v.GetInt("thumbnail.size"),
	}

	if !load {
		return s, nil
	}

	s.renderer, err = isomap.New(archive, isomap.Options{
		Workers:  v.GetInt("workers"),
		Parallel: v.GetBool("parallel"),
		Cache: cache.Config{
			Entries: v.GetInt64("cache.entries"),
		},
		Logger: logger,
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	if err := s.renderer.Load(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func writePNG(file string, res isomap.Result) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, res.Buffer); err != nil {
		return err
	}
	return f.Close()
}

func main() {
	_ = godotenv.Load(".env")

	app := cli.NewApp()

	app.Name = "isomap"
	app.Usage = "Isometric tile map rendering utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"ISOMAP_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to map archive",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to configuration file",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "also write logs to `FILE`, rotating it as it grows",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "number of blocks rendered at once",
		},
		&cli.BoolFlag{
			Name:  "parallel",
			Usage: "draw objects sharing a layer concurrently",
		},
		&cli.Int64Flag{
			Name:  "cache-entries",
			Usage: "maximum number of decoded tiles to keep",
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app.Commands = []*cli.Command{
		{
			Name:        "import",
			Usage:       "Import an XML map manifest",
			Description: "",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				s, err := open(c, false)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer s.Close()

				if err := s.archive.ImportXML(c.Args().First()); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "render",
			Usage:       "Render every block to a PNG image",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				s, err := open(c, true)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer s.Close()

				dir := c.Args().First()
				if err := os.MkdirAll(dir, 0755); err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := s.renderer.RenderAll(ctx, func(res isomap.Result) error {
					return writePNG(filepath.Join(dir, fmt.Sprintf("block_%d_%d.png", res.Coord.X, res.Coord.Y)), res)
				}); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "thumbs",
			Usage:       "Render a thumbnail of every block into a pack",
			Description: "",
			ArgsUsage:   "[FILE]",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "size",
					Usage: "maximum thumbnail width or height",
				},
			},
			Action: func(c *cli.Context) error {
				file := thumbnail.Filename
				if c.NArg() > 0 {
					file = c.Args().First()
				}

				s, err := open(c, true)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer s.Close()

				pack, err := s.renderer.Thumbnails(ctx, s.size)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				b, err := pack.MarshalBinary()
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := ioutil.WriteFile(file, b, 0644); err != nil {
					return cli.NewExitError(err, 1)
				}

				s.logger.WithField("thumbnails", pack.Length()).Info("pack written")

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
