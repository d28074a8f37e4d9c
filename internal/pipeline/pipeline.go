package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lumenjack/brsync/internal/audio"
	"github.com/lumenjack/brsync/internal/colormap"
	"github.com/lumenjack/brsync/internal/config"
	"github.com/lumenjack/brsync/internal/lightsync"
	"github.com/lumenjack/brsync/internal/logging"
	"github.com/lumenjack/brsync/internal/protocol"
	"github.com/lumenjack/brsync/internal/transport"
)

// IntensitySource produces intensity frames. The analyzer implements it
// on the master; the sync receiver implements it on followers.
type IntensitySource interface {
	Frames() <-chan audio.Frame
	Run(ctx context.Context) error
}

// FrameSink observes every frame that flows through the pipeline.
// Publish must not block - sinks are on the frame cadence path.
type FrameSink interface {
	Publish(audio.Frame)
}

// Pipeline is one configured music-sync node.
type Pipeline struct {
	role   string
	source IntensitySource
	pump   audio.Source           // master only: feeds the analyzer
	anl    *audio.Analyzer        // master only
	bcast  *lightsync.Broadcaster // master only
	mapper *colormap.Mapper
	sender *transport.Sender
	addr   protocol.Address
	mode   byte
	sinks  []FrameSink
}

// New assembles a pipeline for the configured role.
// For the master role, pump supplies PCM samples; followers pass nil.
func New(cfg *config.Config, tr transport.Transport, pump audio.Source) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	addr, err := cfg.Address()
	if err != nil {
		return nil, err
	}
	mode, err := cfg.Mesh.ModeByte()
	if err != nil {
		return nil, err
	}
	mapper, err := colormap.New(colormap.Config{
		RedGain:    cfg.Color.RedGain,
		GreenGain:  cfg.Color.GreenGain,
		BlueGain:   cfg.Color.BlueGain,
		Gamma:      cfg.Color.Gamma,
		Brightness: cfg.Color.Brightness,
	})
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		role:   cfg.Role,
		mapper: mapper,
		sender: transport.NewSender(tr),
		addr:   addr,
		mode:   mode,
	}

	switch cfg.Role {
	case config.RoleMaster:
		if pump == nil {
			return nil, fmt.Errorf("master role needs an audio source")
		}
		anl, err := audio.New(audio.Config{
			SampleRate:      cfg.Audio.SampleRate,
			WindowSize:      cfg.Audio.WindowSize,
			FPS:             cfg.Audio.FPS,
			BassMaxHz:       cfg.Audio.BassMaxHz,
			MidMaxHz:        cfg.Audio.MidMaxHz,
			TrebleMaxHz:     cfg.Audio.TrebleMaxHz,
			Attack:          cfg.Audio.Attack,
			Decay:           cfg.Audio.Decay,
			SilenceTimeout:  cfg.Audio.SilenceTimeout,
			SilenceHalfLife: cfg.Audio.SilenceHalfLife,
		})
		if err != nil {
			return nil, err
		}
		bcast, err := lightsync.NewBroadcaster(cfg.Sync.GroupAddr, cfg.NodeID)
		if err != nil {
			return nil, err
		}
		p.pump = pump
		p.anl = anl
		p.bcast = bcast
		p.source = anl

	case config.RoleFollower:
		recv, err := lightsync.NewReceiver(lightsync.ReceiverConfig{
			GroupAddr:       cfg.Sync.GroupAddr,
			FPS:             cfg.Audio.FPS,
			SilenceTimeout:  cfg.Sync.SilenceTimeout,
			SilenceHalfLife: cfg.Sync.SilenceHalfLife,
		})
		if err != nil {
			return nil, err
		}
		p.source = recv
	}

	return p, nil
}

// AddSink registers a frame observer (monitor feed, levels TUI).
// Must be called before Run.
func (p *Pipeline) AddSink(s FrameSink) {
	p.sinks = append(p.sinks, s)
}

// Run starts all periodic activities and blocks until ctx is cancelled.
// Stopping is just that - each command is self-contained and idempotent,
// so there is nothing in flight that needs rollback.
func (p *Pipeline) Run(ctx context.Context) error {
	logging.Info("Pipeline starting",
		zap.String("role", p.role),
		zap.String("target", p.addr.String()),
		zap.Uint8("mode", p.mode),
	)

	errc := make(chan error, 4)
	launch := func(name string, fn func(context.Context) error) {
		go func() {
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				errc <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	launch("sender", p.sender.Run)
	launch("source", p.source.Run)
	if p.pump != nil {
		launch("audio pump", func(ctx context.Context) error {
			return p.pump.Run(ctx, p.anl)
		})
	}

	frames := p.source.Frames()
	for {
		select {
		case <-ctx.Done():
			if p.bcast != nil {
				p.bcast.Close()
			}
			logging.Info("Pipeline stopped")
			return nil
		case err := <-errc:
			return err
		case frame := <-frames:
			p.apply(frame)
		}
	}
}

// apply runs one frame through mapping and encoding, stages the command,
// and fans the frame out to the broadcaster and sinks.
func (p *Pipeline) apply(frame audio.Frame) {
	r, g, b := p.mapper.Map(frame.Bass, frame.Mid, frame.Treble)
	pkt, err := protocol.EncodeColor(p.addr, p.mode, int(r), int(g), int(b))
	if err != nil {
		// Cannot happen with mapper output; if it does, skip the frame
		// rather than kill the cadence
		logging.Error("Colour encode failed", zap.Error(err))
		return
	}
	p.sender.Offer(pkt)

	if p.bcast != nil {
		p.bcast.Broadcast(frame)
	}
	for _, s := range p.sinks {
		s.Publish(frame)
	}
}
