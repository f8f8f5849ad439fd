package main

import (
	"io"
	"io/ioutil"
	"os"
	"runtime"
	"strings"

	"github.com/bodgit/isomap/cache"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultThumbnailSize = 256
	defaultLogSize       = 10 // megabytes
)

// Defaults come from the optional config file and ISOMAP_* environment
// variables; any flag given on the command line wins.
func loadConfig(c *cli.Context) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("db", c.String("db"))
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("parallel", false)
	v.SetDefault("cache.entries", cache.DefaultConfig.Entries)
	v.SetDefault("thumbnail.size", defaultThumbnailSize)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", defaultLogSize)

	v.SetEnvPrefix("ISOMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := c.String("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if c.IsSet("db") {
		v.Set("db", c.String("db"))
	}
	if c.IsSet("workers") {
		v.Set("workers", c.Int("workers"))
	}
	if c.IsSet("parallel") {
		v.Set("parallel", c.Bool("parallel"))
	}
	if c.IsSet("cache-entries") {
		v.Set("cache.entries", c.Int64("cache-entries"))
	}
	if c.IsSet("log-file") {
		v.Set("log.file", c.String("log-file"))
	}
	if c.IsSet("size") {
		v.Set("thumbnail.size", c.Int("size"))
	}

	return v, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Logging is discarded unless verbose is set or a log file is configured
func newLogger(v *viper.Viper, verbose bool) (*logrus.Logger, io.Closer) {
	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)

	var out []io.Writer
	if verbose {
		out = append(out, os.Stderr)
		logger.SetLevel(logrus.DebugLevel)
	}

	var closer io.Closer = nopCloser{}
	if file := v.GetString("log.file"); file != "" {
		lj := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    v.GetInt("log.max_size"),
			MaxBackups: 3,
			Compress:   true,
		}
		out = append(out, lj)
		closer = lj
	}

	if len(out) > 0 {
		logger.SetOutput(io.MultiWriter(out...))
	}

	return logger, closer
}
