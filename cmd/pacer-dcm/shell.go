package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/openpacer/pacer-go/pkg/discovery"
	"github.com/openpacer/pacer-go/pkg/params"
	"github.com/openpacer/pacer-go/pkg/profile"
	"github.com/openpacer/pacer-go/pkg/transport"
	"github.com/openpacer/pacer-go/pkg/wire"
)

// requestTimeout bounds every DCM request.
const requestTimeout = 5 * time.Second

// shell is the interactive DCM session.
type shell struct {
	rl       *readline.Instance
	client   *transport.Client
	profiles *profile.Store
}

func newShell(profiles *profile.Store) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "dcm> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &shell{rl: rl, profiles: profiles}, nil
}

// Close tears down the session.
func (s *shell) Close() {
	if s.client != nil {
		s.client.Close()
	}
	s.rl.Close()
}

// Run is the command loop.
func (s *shell) Run() {
	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}

		args := strings.Fields(strings.TrimSpace(line))
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "discover":
			s.cmdDiscover()
		case "connect":
			s.cmdConnect(args[1:])
		case "info":
			s.cmdInfo()
		case "telemetry":
			s.cmdTelemetry()
		case "get":
			s.cmdGet(args[1:])
		case "set":
			s.cmdSet(args[1:])
		case "mode":
			s.cmdMode(args[1:])
		case "clock":
			s.cmdClock()
		case "events":
			s.cmdEvents()
		case "profile":
			s.cmdProfile(args[1:])
		case "help":
			s.printHelp()
		case "exit", "quit":
			return
		default:
			fmt.Printf("unknown command %q (try help)\n", args[0])
		}
	}
}

func (s *shell) printHelp() {
	fmt.Println(`commands:
  discover                     find pacer devices on the bench network
  connect <host:port>          connect to a device
  info                         device identity and firmware
  telemetry                    mode and full parameter snapshot
  get <field>                  one parameter value
  set <field> <value>          program one parameter
  mode <AOO|VOO|AAI|VVI>       switch pacing mode
  clock                        set the device clock to DCM time
  events                       recent device events
  profile list                 stored parameter profiles
  profile save <name>          save the device's current parameters
  profile load <name>          program a stored profile
  exit`)
}

// connected guards commands that need a device.
func (s *shell) connected() bool {
	if s.client == nil {
		fmt.Println("not connected (use discover / connect)")
		return false
	}
	return true
}

func (s *shell) connect(addr string) error {
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}

	client, err := transport.Dial(addr, requestTimeout)
	if err != nil {
		return err
	}
	client.OnNotification(func(n *wire.Notification) {
		if n.Kind == wire.NotifyFault && n.Event != nil && n.Event.Fault != nil {
			fmt.Printf("\n[DEVICE FAULT] %s: %s\n", n.Event.Fault.Code, n.Event.Fault.Message)
			s.rl.Refresh()
		}
	})
	s.client = client

	info, err := client.DeviceInfo(requestTimeout)
	if err != nil {
		return fmt.Errorf("connected but device info failed: %w", err)
	}
	fmt.Printf("connected to %s (%s, firmware %s)\n", info.DeviceID, info.Model, info.FirmwareVersion)
	return nil
}

func (s *shell) cmdDiscover() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	services, err := discovery.Browse(ctx)
	if err != nil {
		fmt.Printf("discovery failed: %v\n", err)
		return
	}

	found := 0
	for svc := range services {
		found++
		fmt.Printf("  %s  %s  firmware %s  %s\n", svc.DeviceID, svc.Model, svc.Firmware, svc.Addr())
	}
	if found == 0 {
		fmt.Println("no devices found")
	}
}

func (s *shell) cmdConnect(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: connect <host:port>")
		return
	}
	if err := s.connect(args[0]); err != nil {
		fmt.Printf("connect failed: %v\n", err)
	}
}

func (s *shell) cmdInfo() {
	if !s.connected() {
		return
	}
	info, err := s.client.DeviceInfo(requestTimeout)
	if err != nil {
		fmt.Printf("request failed: %v\n", err)
		return
	}
	fmt.Printf("device ID: %s\nmodel:     %s\nfirmware:  %s\nclock:     %s\n",
		info.DeviceID, info.Model, info.FirmwareVersion, info.Clock.Format(time.RFC3339))
}

func (s *shell) fetchTelemetry() (*wire.TelemetryPayload, bool) {
	t, err := s.client.Telemetry(requestTimeout)
	if err != nil {
		fmt.Printf("request failed: %v\n", err)
		return nil, false
	}
	return t, true
}

func (s *shell) cmdTelemetry() {
	if !s.connected() {
		return
	}
	t, ok := s.fetchTelemetry()
	if !ok {
		return
	}

	fmt.Printf("mode: %s\n", params.Mode(t.Mode))

	names := make([]string, 0, len(t.Parameters))
	byName := make(map[string]float64, len(t.Parameters))
	for f, v := range t.Parameters {
		name := params.Field(f).String()
		names = append(names, name)
		byName[name] = v
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-26s %g\n", name, byName[name])
	}
}

func (s *shell) cmdGet(args []string) {
	if !s.connected() {
		return
	}
	if len(args) != 1 {
		fmt.Println("usage: get <field>")
		return
	}
	field, err := params.ParseField(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}

	t, ok := s.fetchTelemetry()
	if !ok {
		return
	}
	fmt.Printf("%s = %g\n", field, t.Parameters[uint8(field)])
}

func (s *shell) cmdSet(args []string) {
	if !s.connected() {
		return
	}
	if len(args) != 2 {
		fmt.Println("usage: set <field> <value>")
		return
	}
	field, err := params.ParseField(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Printf("bad value %q\n", args[1])
		return
	}

	resp, err := s.client.SetParameter(uint8(field), value, requestTimeout)
	if err != nil {
		fmt.Printf("request failed: %v\n", err)
		return
	}
	s.printAck(resp)
}

func (s *shell) cmdMode(args []string) {
	if !s.connected() {
		return
	}
	if len(args) != 1 {
		fmt.Println("usage: mode <AOO|VOO|AAI|VVI>")
		return
	}
	mode, err := params.ParseMode(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}

	resp, err := s.client.SetMode(uint8(mode), requestTimeout)
	if err != nil {
		fmt.Printf("request failed: %v\n", err)
		return
	}
	s.printAck(resp)
}

func (s *shell) cmdClock() {
	if !s.connected() {
		return
	}
	resp, err := s.client.SetClock(time.Now(), requestTimeout)
	if err != nil {
		fmt.Printf("request failed: %v\n", err)
		return
	}
	s.printAck(resp)
}

func (s *shell) cmdEvents() {
	if !s.connected() {
		return
	}
	t, ok := s.fetchTelemetry()
	if !ok {
		return
	}
	if len(t.Events) == 0 {
		fmt.Println("no recent events")
		return
	}
	for _, ev := range t.Events {
		line := fmt.Sprintf("  %s  %-6s", ev.Timestamp.Format("15:04:05.000"), ev.Category)
		switch {
		case ev.Sense != nil:
			line += fmt.Sprintf("  %s inhibited=%v", ev.Sense.Chamber, ev.Sense.Inhibited)
		case ev.Pace != nil:
			line += fmt.Sprintf("  %s %.1fV %.2fms", ev.Pace.Chamber, ev.Pace.Amplitude, ev.Pace.Width)
		case ev.Param != nil:
			line += fmt.Sprintf("  %s=%g", ev.Param.Field, ev.Param.Value)
		case ev.Mode != nil:
			line += fmt.Sprintf("  %s -> %s", ev.Mode.OldMode, ev.Mode.NewMode)
		case ev.Fault != nil:
			line += fmt.Sprintf("  %s: %s", ev.Fault.Code, ev.Fault.Message)
		case ev.State != nil:
			line += fmt.Sprintf("  %s (%s)", ev.State.NewState, ev.State.Reason)
		}
		fmt.Println(line)
	}
}

func (s *shell) cmdProfile(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: profile <list|save|load|delete> [name]")
		return
	}

	switch args[0] {
	case "list":
		names, err := s.profiles.List()
		if err != nil {
			fmt.Printf("profile list failed: %v\n", err)
			return
		}
		if len(names) == 0 {
			fmt.Println("no stored profiles")
			return
		}
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}

	case "save":
		if len(args) != 2 {
			fmt.Println("usage: profile save <name>")
			return
		}
		s.profileSave(args[1])

	case "load":
		if len(args) != 2 {
			fmt.Println("usage: profile load <name>")
			return
		}
		s.profileLoad(args[1])

	case "delete":
		if len(args) != 2 {
			fmt.Println("usage: profile delete <name>")
			return
		}
		if err := s.profiles.Delete(args[1]); err != nil {
			fmt.Printf("profile delete failed: %v\n", err)
		}

	default:
		fmt.Println("usage: profile <list|save|load|delete> [name]")
	}
}

func (s *shell) profileSave(name string) {
	if !s.connected() {
		return
	}
	t, ok := s.fetchTelemetry()
	if !ok {
		return
	}

	values := make(map[string]float64, len(t.Parameters))
	for f, v := range t.Parameters {
		values[params.Field(f).String()] = v
	}
	p := &profile.Profile{
		Name:       name,
		Mode:       params.Mode(t.Mode).String(),
		Parameters: values,
	}
	if err := s.profiles.Save(p); err != nil {
		fmt.Printf("profile save failed: %v\n", err)
		return
	}
	fmt.Printf("saved profile %q\n", name)
}

func (s *shell) profileLoad(name string) {
	if !s.connected() {
		return
	}
	p, err := s.profiles.Load(name)
	if err != nil {
		fmt.Printf("profile load failed: %v\n", err)
		return
	}

	mode, err := params.ParseMode(p.Mode)
	if err != nil {
		fmt.Println(err)
		return
	}
	if resp, err := s.client.SetMode(uint8(mode), requestTimeout); err != nil {
		fmt.Printf("request failed: %v\n", err)
		return
	} else if resp.Status.IsError() {
		s.printAck(resp)
		return
	}

	rejected, err := programParameters(func(field params.Field, value float64) (*wire.Response, error) {
		return s.client.SetParameter(uint8(field), value, requestTimeout)
	}, p.Parameters)
	if err != nil {
		fmt.Printf("request failed: %v\n", err)
		return
	}
	if len(rejected) > 0 {
		for _, fieldName := range rejected {
			fmt.Printf("  %s rejected\n", fieldName)
		}
		fmt.Printf("profile %q partially programmed (%d writes rejected)\n", name, len(rejected))
		return
	}
	fmt.Printf("programmed profile %q\n", name)
}

// programParameters writes a parameter set to the device through set, upper
// rate limit first. Writes the device rejects on the first pass are retried
// once after the rest have been applied, so moving both rate limits in
// either direction converges regardless of the device's current values.
// Returns the names of parameters still rejected after the retry.
func programParameters(set func(field params.Field, value float64) (*wire.Response, error), values map[string]float64) ([]string, error) {
	urlName := params.FieldUpperRateLimit.String()
	var order []string
	for name := range values {
		if name != urlName {
			order = append(order, name)
		}
	}
	sort.Strings(order)
	if _, ok := values[urlName]; ok {
		order = append([]string{urlName}, order...)
	}

	var retry, rejected []string
	for _, name := range order {
		field, err := params.ParseField(name)
		if err != nil {
			rejected = append(rejected, name)
			continue
		}
		resp, err := set(field, values[name])
		if err != nil {
			return nil, err
		}
		if resp.Status.IsError() {
			retry = append(retry, name)
		}
	}
	for _, name := range retry {
		field, _ := params.ParseField(name)
		resp, err := set(field, values[name])
		if err != nil {
			return nil, err
		}
		if resp.Status.IsError() {
			rejected = append(rejected, name)
		}
	}
	return rejected, nil
}

func (s *shell) printAck(resp *wire.Response) {
	if resp.IsSuccess() {
		fmt.Println("ok")
		return
	}
	reason := ""
	if p, err := wire.DecodeRejectPayload(resp.Payload); err == nil && p.Reason != "" {
		reason = ": " + p.Reason
	}
	fmt.Printf("rejected (%s)%s\n", resp.Status, reason)
}
