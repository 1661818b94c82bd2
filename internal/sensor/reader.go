package sensor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"

	"github.com/NissesSenap/agri-dashboard/internal/config"
	"github.com/NissesSenap/agri-dashboard/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// mockSeed keeps generated readings reproducible across runs
const mockSeed = 42

// maxLineSize bounds a sensor line. Longer runs of bytes are noise and are
// dropped up to the next newline.
const maxLineSize = 4096

// Sink stores readings; storage.Store satisfies it
type Sink interface {
	InsertReading(ctx context.Context, reading *storage.Reading) error
}

// Publisher forwards stored readings to other systems
type Publisher interface {
	Publish(ctx context.Context, reading *storage.Reading) error
}

// Reader feeds readings from the serial port, or from the mock generator
// when the port is disabled or cannot be opened, into a Sink.
type Reader struct {
	cfg         config.Serial
	sink        Sink
	publisher   Publisher
	log         *zap.Logger
	open        OpenFunc
	openRetries uint64
	rng         *rand.Rand
	limiter     *rate.Limiter
}

type Option func(*Reader)

func WithPublisher(p Publisher) Option {
	return func(r *Reader) { r.publisher = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Reader) { r.log = l }
}

// WithOpener replaces the serial port opener
func WithOpener(fn OpenFunc) Option {
	return func(r *Reader) { r.open = fn }
}

// WithOpenRetries sets how often opening the port is retried before falling back to the mock
func WithOpenRetries(n uint64) Option {
	return func(r *Reader) { r.openRetries = n }
}

// NewReader creates a Reader for the given serial settings
func NewReader(cfg config.Serial, sink Sink, opts ...Option) *Reader {
	limit := rate.Inf
	if cfg.MockInterval > 0 {
		limit = rate.Every(cfg.MockInterval)
	}

	r := &Reader{
		cfg:         cfg,
		sink:        sink,
		log:         zap.NewNop(),
		open:        OpenSerial,
		openRetries: 3,
		rng:         rand.New(rand.NewSource(mockSeed)),
		limiter:     rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads until ctx is cancelled. It returns nil on cancellation and an
// error only when an opened port fails or closes.
func (r *Reader) Run(ctx context.Context) error {
	if r.cfg.Enabled {
		port, err := r.openPort(ctx)
		if err == nil {
			r.log.Info("reading from serial port",
				zap.String("port", r.cfg.Port),
				zap.Int("baud_rate", r.cfg.BaudRate))
			return r.readLoop(ctx, port)
		}
		if ctx.Err() != nil {
			return nil
		}
		r.log.Warn("serial port unavailable, generating mock readings",
			zap.String("port", r.cfg.Port), zap.Error(err))
	} else {
		r.log.Info("serial disabled, generating mock readings")
	}
	return r.mockLoop(ctx)
}

func (r *Reader) readLoop(ctx context.Context, port io.ReadCloser) error {
	var closeOnce sync.Once
	closePort := func() { closeOnce.Do(func() { _ = port.Close() }) }
	defer closePort()

	// Unblock the scanner when ctx ends
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closePort()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(port)
	scanner.Buffer(make([]byte, 0, maxLineSize), 2*maxLineSize)
	scanner.Split(dropLongLines(r.log))
	for scanner.Scan() {
		reading, err := ParseLine(scanner.Text())
		if errors.Is(err, ErrEmptyLine) {
			continue
		}
		if err != nil {
			r.log.Debug("skipping sensor line", zap.String("line", scanner.Text()), zap.Error(err))
			continue
		}
		r.store(ctx, reading)
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read serial port %s: %w", r.cfg.Port, err)
	}
	return fmt.Errorf("serial port %s closed", r.cfg.Port)
}

func (r *Reader) mockLoop(ctx context.Context) error {
	for {
		if err := r.limiter.Wait(ctx); err != nil {
			// Cancelled, or the deadline falls before the next tick
			return nil
		}
		r.store(ctx, r.mockReading())
	}
}

func (r *Reader) mockReading() *storage.Reading {
	temp := 20.0 + r.rng.Float64()*10.0
	hum := 40.0 + r.rng.Float64()*30.0
	soil := 300.0 + r.rng.Float64()*400.0
	return &storage.Reading{
		TemperatureC: &temp,
		Humidity:     &hum,
		SoilMoisture: &soil,
	}
}

// store saves the reading and publishes it; failures are logged, not fatal
func (r *Reader) store(ctx context.Context, reading *storage.Reading) {
	if err := r.sink.InsertReading(ctx, reading); err != nil {
		r.log.Error("failed to store reading", zap.Error(err))
		return
	}
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, reading); err != nil {
		r.log.Warn("failed to publish reading", zap.Int64("id", reading.ID), zap.Error(err))
	}
}

// dropLongLines splits like bufio.ScanLines but discards lines of maxLineSize
// bytes or more instead of failing the scan
func dropLongLines(log *zap.Logger) bufio.SplitFunc {
	discarding := false
	return func(data []byte, atEOF bool) (int, []byte, error) {
		tooLong := len(data) >= maxLineSize && bytes.IndexByte(data[:maxLineSize], '\n') < 0
		if !discarding && !tooLong {
			return bufio.ScanLines(data, atEOF)
		}
		if !discarding {
			log.Warn("dropping oversized sensor line", zap.Int("max_bytes", maxLineSize))
		}

		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			discarding = false
			return i + 1, nil, nil
		}
		discarding = true
		return len(data), nil, nil
	}
}
