// Package pcapfile implements a capturer reading pcap and pcapng files.
package pcapfile

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"
	"github.com/klauspost/compress/gzip"

	"firestige.xyz/ngtrace/internal/core"
	"firestige.xyz/ngtrace/internal/log"
	"firestige.xyz/ngtrace/internal/utils"
	"firestige.xyz/ngtrace/pkg/plugin"
)

const pluginName = "pcapfile"

var (
	gzipMagic   = []byte{0x1f, 0x8b}
	pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}
)

// Config represents pcapfile capturer configuration.
type Config struct {
	Path  string   `mapstructure:"path"`
	Ports []uint16 `mapstructure:"ports"`
}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
}

// PcapFileCapturer yields frames from a capture file in file order.
type PcapFileCapturer struct {
	config  Config
	filter  *utils.PortFilter
	closers []io.Closer
	reader  packetReader

	framesRead     atomic.Uint64
	framesFiltered atomic.Uint64
}

// NewPcapFileCapturer creates a new pcap file capturer.
func NewPcapFileCapturer() plugin.Capturer {
	return &PcapFileCapturer{}
}

// Name returns the plugin name.
func (c *PcapFileCapturer) Name() string {
	return pluginName
}

// Init decodes the capturer options: path (required) and ports.
func (c *PcapFileCapturer) Init(cfg map[string]any) error {
	var conf Config
	if err := plugin.DecodeOptions(pluginName, cfg, &conf); err != nil {
		return err
	}
	if conf.Path == "" {
		return fmt.Errorf("%w: %s: path is required", core.ErrConfigInvalid, pluginName)
	}

	if len(conf.Ports) > 0 {
		f, err := utils.NewPortFilter(conf.Ports)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", core.ErrConfigInvalid, pluginName, err)
		}
		c.filter = f
	}
	c.config = conf
	return nil
}

// Start opens the capture file and detects its format.
func (c *PcapFileCapturer) Start(ctx context.Context) error {
	f, err := os.Open(c.config.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrSourceOpen, err)
	}
	c.closers = append(c.closers, f)

	r, err := c.open(f)
	if err != nil {
		c.close()
		return fmt.Errorf("%w: %s: %v", core.ErrSourceOpen, c.config.Path, err)
	}
	c.reader = r

	log.GetLogger().WithFields(map[string]interface{}{
		"path":  c.config.Path,
		"ports": c.config.Ports,
	}).Info("capture file opened")
	return nil
}

func (c *PcapFileCapturer) open(f io.Reader) (packetReader, error) {
	br := bufio.NewReader(f)
	if magic, _ := br.Peek(len(gzipMagic)); bytes.Equal(magic, gzipMagic) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, gz)
		br = bufio.NewReader(gz)
	}

	magic, err := br.Peek(len(pcapngMagic))
	if err != nil {
		return nil, fmt.Errorf("read file header: %w", err)
	}
	if bytes.Equal(magic, pcapngMagic) {
		return pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	}
	return pcapgo.NewReader(br)
}

// Next returns the next frame passing the port filter.
func (c *PcapFileCapturer) Next(ctx context.Context) (core.RawFrame, error) {
	if c.reader == nil {
		return core.RawFrame{}, fmt.Errorf("%w: %s not started", core.ErrSourceRead, pluginName)
	}
	for {
		if err := ctx.Err(); err != nil {
			return core.RawFrame{}, err
		}

		data, ci, err := c.reader.ReadPacketData()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return core.RawFrame{}, io.EOF
			}
			return core.RawFrame{}, fmt.Errorf("%w: %v", core.ErrSourceRead, err)
		}
		c.framesRead.Add(1)

		if c.filter != nil && !c.filter.Match(data) {
			c.framesFiltered.Add(1)
			continue
		}

		return core.RawFrame{Data: data, CaptureTime: captureTime(ci.Timestamp)}, nil
	}
}

func captureTime(ts time.Time) *float64 {
	if ts.IsZero() {
		return nil
	}
	return core.Float64(float64(ts.UnixNano()) / float64(time.Second))
}

// Stop closes the capture file.
func (c *PcapFileCapturer) Stop(ctx context.Context) error {
	log.GetLogger().WithFields(map[string]interface{}{
		"frames_read":     c.framesRead.Load(),
		"frames_filtered": c.framesFiltered.Load(),
	}).Info("capture file closed")
	return c.close()
}

func (c *PcapFileCapturer) close() error {
	var err error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if cerr := c.closers[i].Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	c.closers = nil
	c.reader = nil
	return err
}

// Stats returns capture statistics.
func (c *PcapFileCapturer) Stats() plugin.CaptureStats {
	return plugin.CaptureStats{
		FramesRead:     c.framesRead.Load(),
		FramesFiltered: c.framesFiltered.Load(),
	}
}
