package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumenjack/brsync/internal/audio"
	"github.com/lumenjack/brsync/internal/config"
	"github.com/lumenjack/brsync/internal/discovery"
	"github.com/lumenjack/brsync/internal/lightsync"
	"github.com/lumenjack/brsync/internal/monitor"
	"github.com/lumenjack/brsync/internal/pipeline"
	"github.com/lumenjack/brsync/internal/protocol"
	"github.com/lumenjack/brsync/internal/transport"
	"github.com/lumenjack/brsync/internal/ui"
)

// Command flags
var (
	configPath string
	roleFlag   string
	groupAddr  string
	addrHi     int
	addrLo     int
	modeFlag   string

	sourceFlag string
	sineFreq   float64

	brightnessFlag int
	speedFlag      string

	deviceIDFlag string
	lightIDFlag  string
	meshKeyFlag  string

	scanTimeout int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.config/brsync/config.yaml)")
	rootCmd.PersistentFlags().IntVar(&addrHi, "addr-hi", -1, "Target address high byte (overrides config)")
	rootCmd.PersistentFlags().IntVar(&addrLo, "addr-lo", -1, "Target address low byte (overrides config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(colorCmd)
	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(effectCmd)
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(levelsCmd)
}

// loadConfig reads the config file and applies the shared flag overrides
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if roleFlag != "" {
		cfg.Role = roleFlag
	}
	if groupAddr != "" {
		cfg.Sync.GroupAddr = groupAddr
	}
	if addrHi >= 0 {
		cfg.Mesh.AddrHi = addrHi
	}
	if addrLo >= 0 {
		cfg.Mesh.AddrLo = addrLo
	}
	if modeFlag != "" {
		cfg.Mesh.Mode = modeFlag
	}
	return cfg, nil
}

// signalContext returns a context cancelled by SIGINT/SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// audioPump builds the master's PCM source from the --source flag
func audioPump(cfg *config.Config) (audio.Source, error) {
	switch sourceFlag {
	case "stdin":
		return &audio.PCMStreamSource{R: os.Stdin, SampleRate: cfg.Audio.SampleRate}, nil
	case "sine":
		return &audio.Oscillator{
			SampleRate: cfg.Audio.SampleRate,
			FreqHz:     sineFreq,
			Amplitude:  0.8,
		}, nil
	default:
		return nil, fmt.Errorf("unknown audio source %q (want stdin or sine)", sourceFlag)
	}
}

// runCmd starts the music-sync pipeline
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the music-sync pipeline",
	Long: `Run the music-sync pipeline in the configured role.

A master reads PCM audio (s16le mono) from its source, analyzes it into
bass/mid/treble intensities, drives the local lights and broadcasts the
intensities over UDP. A follower joins the sync group and drives its
lights from the received intensities.`,
	Example: `  # Master fed by a capture tool
  arecord -f S16_LE -r 22050 -c 1 -t raw | brsync run --role master

  # Master with the built-in test tone
  brsync run --role master --source sine

  # Follower with mDNS master discovery
  brsync run --role follower --discover`,
	RunE: runRun,
}

var discoverFlag bool

func init() {
	runCmd.Flags().StringVar(&roleFlag, "role", "", "Node role: master or follower (overrides config)")
	runCmd.Flags().StringVar(&groupAddr, "group", "", "UDP sync group address (overrides config)")
	runCmd.Flags().StringVar(&sourceFlag, "source", "stdin", "Audio source: stdin or sine")
	runCmd.Flags().Float64Var(&sineFreq, "sine-freq", 120, "Test tone frequency in Hz")
	runCmd.Flags().StringVar(&modeFlag, "mode", "", "Colour mode: direct, rainbow or complementary")
	runCmd.Flags().BoolVar(&discoverFlag, "discover", false, "Locate the master via mDNS (follower only)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if discoverFlag {
		cfg.Sync.Discover = true
	}

	ctx, stop := signalContext()
	defer stop()

	if cfg.Role == config.RoleFollower && cfg.Sync.Discover {
		fmt.Println("Looking for a master node...")
		node, err := discovery.FindMaster()
		if err != nil {
			return fmt.Errorf("master discovery failed: %w", err)
		}
		fmt.Printf("Found %s, sync group %s\n", node, node.GroupAddr())
		cfg.Sync.GroupAddr = node.GroupAddr()
	}

	var pump audio.Source
	if cfg.Role == config.RoleMaster {
		if pump, err = audioPump(cfg); err != nil {
			return err
		}
	}

	pipe, err := pipeline.New(cfg, transport.Debug{}, pump)
	if err != nil {
		return err
	}

	if cfg.Monitor.Enabled {
		mon, err := monitor.New(monitor.Config{Addr: cfg.Monitor.Addr})
		if err != nil {
			return err
		}
		pipe.AddSink(mon)
		go mon.Run(ctx)
		fmt.Printf("Monitor feed on ws://%s/frames\n", mon.Addr())
	}

	if cfg.Role == config.RoleMaster && cfg.Sync.Discover {
		port, err := groupPort(cfg.Sync.GroupAddr)
		if err != nil {
			return err
		}
		ann, err := discovery.Announce(discovery.Announcement{
			SenderID:  cfg.NodeID,
			GroupAddr: cfg.Sync.GroupAddr,
			Port:      port,
		})
		if err != nil {
			return fmt.Errorf("failed to announce sync service: %w", err)
		}
		defer ann.Shutdown()
	}

	fmt.Printf("brsync %s starting, ctrl-c to stop\n", cfg.Role)
	return pipe.Run(ctx)
}

// groupPort extracts the port from a "host:port" sync group address
func groupPort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("bad sync group address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("bad sync group port %q: %w", portStr, err)
	}
	return port, nil
}

// colorCmd builds a single colour command
var colorCmd = &cobra.Command{
	Use:   "color <red> <green> <blue>",
	Short: "Build a colour command packet",
	Long: `Build a single colour command for the configured target address.

Channel values are 0-255. The mode selects how lights interpret the
colour: direct shows it as-is, rainbow and complementary animate around
it.`,
	Example: `  # Full red, direct mode
  brsync color 255 0 0

  # Rainbow animation seeded with blue, explicit target
  brsync color 0 0 255 --mode rainbow --addr-hi 0 --addr-lo 3`,
	Args: cobra.ExactArgs(3),
	RunE: runColor,
}

func init() {
	colorCmd.Flags().StringVar(&modeFlag, "mode", "", "Colour mode: direct, rainbow or complementary")
}

func runColor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var rgb [3]int
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("bad channel value %q: %w", arg, err)
		}
		rgb[i] = v
	}

	addr, err := cfg.Address()
	if err != nil {
		return err
	}
	mode, err := cfg.Mesh.ModeByte()
	if err != nil {
		return err
	}

	pkt, err := protocol.EncodeColor(addr, mode, rgb[0], rgb[1], rgb[2])
	if err != nil {
		return err
	}

	p := ui.NewPrinter(nil)
	p.Field("Target", addr.String())
	p.Field("Mode", cfg.Mesh.Mode)
	p.Packet("Packet", pkt)
	return nil
}

// powerCmd builds a power command
var powerCmd = &cobra.Command{
	Use:   "power <on|off>",
	Short: "Build a power command packet",
	Long: `Build a power on/off command for the configured target address.

Powering on takes an optional brightness (0-255). Powering off always
carries brightness zero.`,
	Example: `  brsync power on
  brsync power on --brightness 128
  brsync power off`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runPower,
}

func init() {
	powerCmd.Flags().IntVar(&brightnessFlag, "brightness", 255, "Brightness 0-255 (power on only)")
}

func runPower(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var on bool
	switch args[0] {
	case "on":
		on = true
	case "off":
		on = false
	default:
		return fmt.Errorf("bad power state %q (want on or off)", args[0])
	}

	addr, err := cfg.Address()
	if err != nil {
		return err
	}

	pkt, err := protocol.EncodePower(addr, on, brightnessFlag)
	if err != nil {
		return err
	}

	p := ui.NewPrinter(nil)
	p.Field("Target", addr.String())
	p.Field("State", args[0])
	p.Packet("Packet", pkt)
	return nil
}

// effectCmd builds an autonomous colour-cycling effect
var effectCmd = &cobra.Command{
	Use:   "effect <color> [color...]",
	Short: "Build an autonomous effect packet",
	Long: `Build an effect command cycling through the given colours.

Colours are 6-digit hex values (rrggbb). The lights cycle through them
on their own at the configured speed; no further commands are needed
until the effect should stop.`,
	Example: `  # Red/green/blue cycle at the captured reference speed
  brsync effect ff0000 00ff00 0000ff --speed 0x30`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEffect,
}

func init() {
	effectCmd.Flags().StringVar(&speedFlag, "speed", "0x30", "Cycle speed byte (decimal or 0x hex)")
}

func runEffect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	speed64, err := strconv.ParseUint(speedFlag, 0, 8)
	if err != nil {
		return fmt.Errorf("bad speed %q: %w", speedFlag, err)
	}
	speed := byte(speed64)

	colors := make([]protocol.RGB, 0, len(args))
	for _, arg := range args {
		raw, err := hex.DecodeString(arg)
		if err != nil || len(raw) != 3 {
			return fmt.Errorf("bad colour %q (want rrggbb hex)", arg)
		}
		colors = append(colors, protocol.RGB{R: raw[0], G: raw[1], B: raw[2]})
	}

	pkt, err := protocol.BuildAutonomousEffect(colors, speed)
	if err != nil {
		return err
	}

	p := ui.NewPrinter(nil)
	p.Field("Colours", strconv.Itoa(len(colors)))
	p.Field("Hold", cfg.SpeedTable().HoldDuration(speed).String())
	p.Packet("Packet", pkt)
	return nil
}

// pairCmd builds a pairing packet
var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Build a pairing packet",
	Long: `Build a pairing packet from the device ID, light ID and mesh key.

All three values are hex strings: 6 bytes device ID, 2 bytes light ID,
4 bytes mesh key. Values default to the pairing material in the config
file.`,
	Example: `  brsync pair --device-id aabbccddeeff --light-id 0001 --mesh-key 00112233`,
	RunE:    runPair,
}

func init() {
	pairCmd.Flags().StringVar(&deviceIDFlag, "device-id", "", "Device ID, 12 hex digits")
	pairCmd.Flags().StringVar(&lightIDFlag, "light-id", "", "Light ID, 4 hex digits")
	pairCmd.Flags().StringVar(&meshKeyFlag, "mesh-key", "", "Mesh key, 8 hex digits")
}

func runPair(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pick := func(flag, fromConfig, name string) (string, error) {
		if flag != "" {
			return flag, nil
		}
		if fromConfig != "" {
			return fromConfig, nil
		}
		return "", fmt.Errorf("missing %s: pass --%s or set mesh.%s in the config", name, name, name)
	}

	deviceHex, err := pick(deviceIDFlag, cfg.Mesh.DeviceID, "device-id")
	if err != nil {
		return err
	}
	lightHex, err := pick(lightIDFlag, cfg.Mesh.LightID, "light-id")
	if err != nil {
		return err
	}
	keyHex, err := pick(meshKeyFlag, cfg.Mesh.MeshKey, "mesh-key")
	if err != nil {
		return err
	}

	deviceID, err := hex.DecodeString(deviceHex)
	if err != nil {
		return fmt.Errorf("bad device ID %q: %w", deviceHex, err)
	}
	lightID, err := hex.DecodeString(lightHex)
	if err != nil {
		return fmt.Errorf("bad light ID %q: %w", lightHex, err)
	}
	meshKey, err := hex.DecodeString(keyHex)
	if err != nil {
		return fmt.Errorf("bad mesh key %q: %w", keyHex, err)
	}

	pkt, err := protocol.EncodePairing(deviceID, lightID, meshKey)
	if err != nil {
		return err
	}

	p := ui.NewPrinter(nil)
	p.Field("Device", deviceHex)
	p.Field("Light", lightHex)
	p.Packet("Packet", pkt)
	return nil
}

// scanCmd discovers master nodes on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for master nodes on the network",
	Long: `Scan for running brsync masters using mDNS/DNS-SD discovery.

This command listens for mDNS advertisements of the sync service and
displays every discovered master with its sync group address.`,
	Example: `  # Scan for 5 seconds (default)
  brsync scan

  # Longer scan for sleepy networks
  brsync scan --timeout 15`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 5, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for brsync masters (timeout: %ds)...\n\n", scanTimeout)

	nodes, err := discovery.ScanForMasters(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(nodes) == 0 {
		fmt.Println("No masters found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure a master is running with --discover")
		fmt.Println("  - Check that the network allows multicast (mDNS uses UDP 5353)")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use 'brsync run --group <host:port>' to join manually")
		return nil
	}

	fmt.Printf("Found %d master(s):\n\n", len(nodes))
	for i, node := range nodes {
		fmt.Printf("%d. %s\n", i+1, node.Instance)
		fmt.Printf("   Host:   %s (%s)\n", node.Hostname, node.IP)
		fmt.Printf("   Group:  %s\n", node.GroupAddr())
		fmt.Printf("   Node:   %d\n", node.SenderID())
		fmt.Println()
	}

	fmt.Println("Use 'brsync run --role follower --discover' to join automatically")
	return nil
}

// levelsCmd shows the live band meters
var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Show live band level meters",
	Long: `Render live bass/mid/treble meters in the terminal.

As master, the meters show the local analysis of the audio source. As
follower, they show the intensities received from the sync feed, which
makes this the quickest way to verify sync reception.`,
	Example: `  # Watch the local analysis of a capture stream
  arecord -f S16_LE -r 22050 -c 1 -t raw | brsync levels --role master

  # Watch the test tone
  brsync levels --role master --source sine

  # Watch what a follower receives
  brsync levels --role follower`,
	RunE: runLevels,
}

func init() {
	levelsCmd.Flags().StringVar(&roleFlag, "role", "", "Node role: master or follower (overrides config)")
	levelsCmd.Flags().StringVar(&groupAddr, "group", "", "UDP sync group address (overrides config)")
	levelsCmd.Flags().StringVar(&sourceFlag, "source", "stdin", "Audio source: stdin or sine")
	levelsCmd.Flags().Float64Var(&sineFreq, "sine-freq", 120, "Test tone frequency in Hz")
}

func runLevels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	var src pipeline.IntensitySource
	switch cfg.Role {
	case config.RoleMaster:
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
			return err
		}
		pump, err := audioPump(cfg)
		if err != nil {
			return err
		}
		go pump.Run(ctx, anl)
		src = anl

	case config.RoleFollower:
		recv, err := lightsync.NewReceiver(lightsync.ReceiverConfig{
			GroupAddr:       cfg.Sync.GroupAddr,
			FPS:             cfg.Audio.FPS,
			SilenceTimeout:  cfg.Sync.SilenceTimeout,
			SilenceHalfLife: cfg.Sync.SilenceHalfLife,
		})
		if err != nil {
			return err
		}
		src = recv
	}

	go src.Run(ctx)
	return ui.RunLevels(ctx, src.Frames(), cfg.Role)
}
