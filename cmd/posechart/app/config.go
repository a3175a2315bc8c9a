package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

const (
	ChannelX     = "x"
	ChannelY     = "y"
	ChannelTheta = "theta"
	ChannelAll   = "all"
)

type Config struct {
	DBPath     string
	RunID      int64 // 0 selects the latest archived run
	Channel    string
	OutputFile string
	Format     ImageFormat
	FontPath   string
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

var validChannels = map[string]struct{}{
	ChannelX:     {},
	ChannelY:     {},
	ChannelTheta: {},
	ChannelAll:   {},
}

func NewConfig() *Config {
	return &Config{
		Format:  ImagePNG,
		Channel: ChannelAll,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat string
	flag.StringVar(&c.DBPath, "db", "", "Path to the run archive database")
	flag.Int64Var(&c.RunID, "run", 0, "Run ID (default: latest archived run)")
	flag.StringVar(&c.Channel, "channel", ChannelAll, "Pose channel to plot. [x, y, theta, all]")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.StringVar(&c.FontPath, "font", "", "Path to a TTF font for labels (default: builtin bitmap font)")
	flag.Parse()

	imageFormat = strings.ToLower(imageFormat)
	c.Channel = strings.ToLower(c.Channel)

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.RunID < 0 {
		err = fmt.Errorf("invalid run ID: %d", c.RunID)
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	} else if _, ok := validChannels[c.Channel]; !ok {
		err = fmt.Errorf("invalid channel: %s", c.Channel)
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
